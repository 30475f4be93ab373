package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"campuspulse/internal/directory"
	"campuspulse/internal/ledger"
	"campuspulse/pkg/domain"
	dErrors "campuspulse/pkg/domain-errors"
	"campuspulse/pkg/platform/httputil"
	"campuspulse/pkg/requestcontext"
)

// Service defines the interface for participation operations.
type Service interface {
	Register(ctx context.Context, eventID domain.EventID, participantID domain.ParticipantID, role domain.Role, niche domain.Niche) (*ledger.Participation, error)
	Cancel(ctx context.Context, eventID domain.EventID, participantID domain.ParticipantID) error
	MarkAttended(ctx context.Context, eventID domain.EventID, participantID domain.ParticipantID, awardPoints int) (int, error)
	ListMine(ctx context.Context, participantID domain.ParticipantID) ([]*ledger.Participation, error)
	ListByEvent(ctx context.Context, eventID domain.EventID) ([]*ledger.Participation, error)
}

// Directory resolves participant detail for the faculty participants view.
type Directory interface {
	FindByIDs(ctx context.Context, ids []domain.ParticipantID) (map[domain.ParticipantID]*directory.Participant, error)
}

// Handler wires participation endpoints to the ledger service.
type Handler struct {
	service   Service
	directory Directory
	logger    *slog.Logger
}

// New constructs a participation handler with its dependencies.
func New(service Service, dir Directory, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		directory: dir,
		logger:    logger,
	}
}

// Register mounts participation endpoints. The router is expected to already
// run the auth middleware; faculty-only routes add their own role check.
func (h *Handler) Register(r chi.Router, requireFaculty func(http.Handler) http.Handler) {
	r.Post("/events/{id}/participate", h.HandleParticipate)
	r.Delete("/events/{id}/participate", h.HandleCancel)
	r.Get("/events/my/participations", h.HandleMyParticipations)

	r.Group(func(g chi.Router) {
		g.Use(requireFaculty)
		g.Post("/events/{id}/attend/{participantId}", h.HandleAttend)
		g.Get("/events/{id}/participants", h.HandleEventParticipants)
	})
}

// HandleParticipate handles POST /events/{id}/participate.
func (h *Handler) HandleParticipate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	eventID, ok := h.eventIDFromPath(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[ParticipateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	participantID := requestcontext.ParticipantID(ctx)
	role := requestcontext.Role(ctx)

	p, err := h.service.Register(ctx, eventID, participantID, role, req.ParsedNiche())
	if err != nil {
		h.logger.WarnContext(ctx, "registration refused",
			"request_id", requestID,
			"event_id", eventID,
			"participant_id", participantID,
			"error", err,
		)
		// The route contract reports a duplicate registration as a plain
		// bad request, like the capacity and inactive-event refusals.
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			httputil.WriteErrorStatus(w, http.StatusBadRequest, err)
			return
		}
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "participant registered",
		"request_id", requestID,
		"event_id", eventID,
		"participant_id", participantID,
		"niche", req.ParsedNiche(),
	)
	httputil.WriteJSON(w, http.StatusCreated, ParticipateResponse{
		Message:       "Registered for event successfully",
		Participation: FromParticipation(p),
	})
}

// HandleCancel handles DELETE /events/{id}/participate.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	eventID, ok := h.eventIDFromPath(w, r)
	if !ok {
		return
	}
	participantID := requestcontext.ParticipantID(ctx)

	if err := h.service.Cancel(ctx, eventID, participantID); err != nil {
		h.logger.WarnContext(ctx, "cancellation refused",
			"request_id", requestID,
			"event_id", eventID,
			"participant_id", participantID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "participation cancelled",
		"request_id", requestID,
		"event_id", eventID,
		"participant_id", participantID,
	)
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Participation cancelled successfully"})
}

// HandleMyParticipations handles GET /events/my/participations.
func (h *Handler) HandleMyParticipations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	participantID := requestcontext.ParticipantID(ctx)

	participations, err := h.service.ListMine(ctx, participantID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list participations",
			"request_id", requestcontext.RequestID(ctx),
			"participant_id", participantID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	payloads := make([]ParticipationPayload, 0, len(participations))
	for _, p := range participations {
		payloads = append(payloads, FromParticipation(p))
	}
	httputil.WriteJSON(w, http.StatusOK, ParticipationsResponse{Participations: payloads})
}

// HandleAttend handles POST /events/{id}/attend/{participantId}.
func (h *Handler) HandleAttend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	eventID, ok := h.eventIDFromPath(w, r)
	if !ok {
		return
	}
	participantID, err := domain.ParseParticipantID(chi.URLParam(r, "participantId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// The points body is optional.
	var req AttendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	awarded, err := h.service.MarkAttended(ctx, eventID, participantID, req.Points)
	if err != nil {
		h.logger.WarnContext(ctx, "attendance refused",
			"request_id", requestID,
			"event_id", eventID,
			"participant_id", participantID,
			"error", err,
		)
		// The route contract reports a participation that is not in the
		// registered state as absent.
		if dErrors.HasCode(err, dErrors.CodeInvalidState) {
			httputil.WriteErrorStatus(w, http.StatusNotFound, err)
			return
		}
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "attendance marked",
		"request_id", requestID,
		"event_id", eventID,
		"participant_id", participantID,
		"points", awarded,
	)
	message := "Attendance marked"
	if awarded > 0 {
		message = fmt.Sprintf("Attendance marked and %d points awarded", awarded)
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: message})
}

// HandleEventParticipants handles GET /events/{id}/participants.
func (h *Handler) HandleEventParticipants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, ok := h.eventIDFromPath(w, r)
	if !ok {
		return
	}

	participations, err := h.service.ListByEvent(ctx, eventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ids := make([]domain.ParticipantID, 0, len(participations))
	for _, p := range participations {
		ids = append(ids, p.ParticipantID)
	}
	detail, err := h.directory.FindByIDs(ctx, ids)
	if err != nil {
		h.logger.ErrorContext(ctx, "directory lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"event_id", eventID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve participants"))
		return
	}

	rows := make([]EventParticipant, 0, len(participations))
	for _, p := range participations {
		d, ok := detail[p.ParticipantID]
		if !ok {
			// Directory lag; skip rather than fail the whole listing.
			continue
		}
		rows = append(rows, fromDirectoryRow(p, d))
	}
	httputil.WriteJSON(w, http.StatusOK, EventParticipantsResponse{Participants: rows})
}

func (h *Handler) eventIDFromPath(w http.ResponseWriter, r *http.Request) (domain.EventID, bool) {
	eventID, err := domain.ParseEventID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.EventID{}, false
	}
	return eventID, true
}
