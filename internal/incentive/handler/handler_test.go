package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuspulse/internal/incentive"
	"campuspulse/pkg/domain"
	"campuspulse/pkg/requestcontext"
)

type stubService struct {
	summaryFn     func(ctx context.Context, participantID domain.ParticipantID) (*incentive.Summary, error)
	leaderboardFn func(ctx context.Context, n int) ([]*incentive.LeaderboardEntry, error)
}

func (s stubService) Summary(ctx context.Context, participantID domain.ParticipantID) (*incentive.Summary, error) {
	return s.summaryFn(ctx, participantID)
}

func (s stubService) Leaderboard(ctx context.Context, n int) ([]*incentive.LeaderboardEntry, error) {
	return s.leaderboardFn(ctx, n)
}

func passthrough(next http.Handler) http.Handler { return next }

func newTestRouter(svc Service) *chi.Mux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	New(svc, logger).Register(r, passthrough)
	return r
}

func TestHandleMe(t *testing.T) {
	participantID := domain.NewParticipantID()
	router := newTestRouter(stubService{
		summaryFn: func(_ context.Context, got domain.ParticipantID) (*incentive.Summary, error) {
			assert.Equal(t, participantID, got)
			return &incentive.Summary{ParticipantID: got, Points: 40}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/incentives/me", nil)
	req = req.WithContext(requestcontext.WithParticipantID(req.Context(), participantID))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(40), resp["points"])
	assert.Equal(t, participantID.String(), resp["participantId"])
}

func TestHandleLeaderboard(t *testing.T) {
	t.Run("defaults to ten entries", func(t *testing.T) {
		var requested int
		router := newTestRouter(stubService{
			leaderboardFn: func(_ context.Context, n int) ([]*incentive.LeaderboardEntry, error) {
				requested = n
				return []*incentive.LeaderboardEntry{
					{Rank: 1, ParticipantID: domain.NewParticipantID(), Name: "alice", RollNumber: "CS-001", Points: 50},
				}, nil
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/incentives/leaderboard", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, 10, requested)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		entries := resp["leaderboard"].([]any)
		require.Len(t, entries, 1)
		first := entries[0].(map[string]any)
		assert.Equal(t, "alice", first["name"])
		assert.Equal(t, "CS-001", first["rollNumber"])
		assert.Equal(t, float64(1), first["rank"])
	})

	t.Run("honors the limit parameter", func(t *testing.T) {
		var requested int
		router := newTestRouter(stubService{
			leaderboardFn: func(_ context.Context, n int) ([]*incentive.LeaderboardEntry, error) {
				requested = n
				return nil, nil
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/incentives/leaderboard?limit=3", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 3, requested)
	})

	t.Run("rejects a bad limit", func(t *testing.T) {
		router := newTestRouter(stubService{
			leaderboardFn: func(_ context.Context, n int) ([]*incentive.LeaderboardEntry, error) {
				return nil, nil
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/incentives/leaderboard?limit=zero", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
