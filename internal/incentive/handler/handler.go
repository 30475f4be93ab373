package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"campuspulse/internal/incentive"
	"campuspulse/pkg/domain"
	dErrors "campuspulse/pkg/domain-errors"
	"campuspulse/pkg/platform/httputil"
	"campuspulse/pkg/requestcontext"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

// Service defines the interface for incentive reads.
type Service interface {
	Summary(ctx context.Context, participantID domain.ParticipantID) (*incentive.Summary, error)
	Leaderboard(ctx context.Context, n int) ([]*incentive.LeaderboardEntry, error)
}

// Handler wires incentive endpoints to the incentive service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an incentive handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts incentive endpoints. Only students hold balances, so the
// self view sits behind the student role check.
func (h *Handler) Register(r chi.Router, requireStudent func(http.Handler) http.Handler) {
	r.Get("/incentives/leaderboard", h.HandleLeaderboard)

	r.Group(func(g chi.Router) {
		g.Use(requireStudent)
		g.Get("/incentives/me", h.HandleMe)
	})
}

// HandleMe handles GET /incentives/me.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	participantID := requestcontext.ParticipantID(ctx)

	summary, err := h.service.Summary(ctx, participantID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load incentive summary",
			"request_id", requestcontext.RequestID(ctx),
			"participant_id", participantID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSummary(summary))
}

// HandleLeaderboard handles GET /incentives/leaderboard.
func (h *Handler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	size := defaultLeaderboardSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer"))
			return
		}
		size = parsed
	}
	if size > maxLeaderboardSize {
		size = maxLeaderboardSize
	}

	entries, err := h.service.Leaderboard(ctx, size)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load leaderboard",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromLeaderboard(entries))
}
