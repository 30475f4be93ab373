package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"campuspulse/internal/catalog"
	"campuspulse/pkg/domain"
	"campuspulse/pkg/platform/httputil"
	"campuspulse/pkg/requestcontext"
)

// Service defines the interface for catalog operations.
type Service interface {
	Create(ctx context.Context, params catalog.CreateParams) (*catalog.Event, error)
	Update(ctx context.Context, id domain.EventID, params catalog.UpdateParams) (*catalog.EventWithCount, error)
	Get(ctx context.Context, id domain.EventID) (*catalog.EventWithCount, error)
	ListActive(ctx context.Context) ([]*catalog.EventWithCount, error)
}

// Handler wires catalog endpoints to the catalog service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a catalog handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts catalog endpoints. Writes are faculty-only.
func (h *Handler) Register(r chi.Router, requireFaculty func(http.Handler) http.Handler) {
	r.Get("/events", h.HandleList)
	r.Get("/events/{id}", h.HandleGet)

	r.Group(func(g chi.Router) {
		g.Use(requireFaculty)
		g.Post("/events", h.HandleCreate)
		g.Put("/events/{id}", h.HandleUpdate)
	})
}

// HandleCreate handles POST /events.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateEventRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	event, err := h.service.Create(ctx, req.Params())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create event",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "event created",
		"request_id", requestID,
		"event_id", event.ID,
		"name", event.Name,
	)
	httputil.WriteJSON(w, http.StatusCreated, EventResponse{Event: FromEvent(event)})
}

// HandleUpdate handles PUT /events/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, ok := h.eventIDFromPath(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateEventRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	event, err := h.service.Update(ctx, id, req.Params())
	if err != nil {
		h.logger.WarnContext(ctx, "failed to update event",
			"request_id", requestID,
			"event_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "event updated",
		"request_id", requestID,
		"event_id", id,
	)
	httputil.WriteJSON(w, http.StatusOK, EventResponse{Event: FromEventWithCount(event)})
}

// HandleGet handles GET /events/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.eventIDFromPath(w, r)
	if !ok {
		return
	}

	event, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, EventResponse{Event: FromEventWithCount(event)})
}

// HandleList handles GET /events.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	events, err := h.service.ListActive(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list events",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	payloads := make([]EventPayload, 0, len(events))
	for _, e := range events {
		payloads = append(payloads, FromEventWithCount(e))
	}
	httputil.WriteJSON(w, http.StatusOK, EventsResponse{Events: payloads})
}

func (h *Handler) eventIDFromPath(w http.ResponseWriter, r *http.Request) (domain.EventID, bool) {
	id, err := domain.ParseEventID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.EventID{}, false
	}
	return id, true
}
