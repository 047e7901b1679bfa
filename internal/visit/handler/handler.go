// Package handler wires the visit calendar endpoints, including the SSE
// stream that pushes live calendar updates to viewers.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fieldsafe/internal/visit"
	"fieldsafe/pkg/domain"
	dErrors "fieldsafe/pkg/domain-errors"
	"fieldsafe/pkg/platform/httputil"
	"fieldsafe/pkg/requestcontext"
)

// heartbeatInterval keeps idle SSE connections alive through proxies.
const heartbeatInterval = 15 * time.Second

// Service defines the calendar operations the handler exposes.
type Service interface {
	YearView(ctx context.Context, worksiteID domain.WorksiteID, year int) (*visit.YearView, error)
	SetVisitStatus(ctx context.Context, worksiteID domain.WorksiteID, month domain.Month, visited bool) (*visit.Record, error)
}

// Handler serves the calendar endpoints.
type Handler struct {
	service Service
	hub     *visit.Hub
	logger  *slog.Logger
}

func New(service Service, hub *visit.Hub, logger *slog.Logger) *Handler {
	return &Handler{service: service, hub: hub, logger: logger}
}

// Register mounts the calendar endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/worksites/{worksiteID}/visits", func(r chi.Router) {
		r.Get("/", h.HandleYearView)
		r.Get("/stream", h.HandleStream)
		r.Put("/{month}", h.HandleSetStatus)
	})
}

// SetStatusRequest is the HTTP request body for
// PUT /worksites/{worksiteID}/visits/{month}.
type SetStatusRequest struct {
	Visited bool `json:"visited"`
}

func (r *SetStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}

// RecordResponse is the HTTP shape of one calendar cell.
type RecordResponse struct {
	WorksiteID string    `json:"worksite_id"`
	Month      string    `json:"month"`
	Visited    bool      `json:"visited"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HandleYearView handles GET /worksites/{worksiteID}/visits?year=YYYY.
func (h *Handler) HandleYearView(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseWorksiteID(chi.URLParam(r, "worksiteID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	yearParam := r.URL.Query().Get("year")
	if yearParam == "" {
		yearParam = strconv.Itoa(requestcontext.Now(r.Context()).Year())
	}
	year, err := strconv.Atoi(yearParam)
	if err != nil {
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeBadRequest, "year must be numeric, got %q", yearParam))
		return
	}

	view, err := h.service.YearView(r.Context(), id, year)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleSetStatus handles PUT /worksites/{worksiteID}/visits/{month}.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseWorksiteID(chi.URLParam(r, "worksiteID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	month, err := domain.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[SetStatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	record, err := h.service.SetVisitStatus(ctx, id, month, req.Visited)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RecordResponse{
		WorksiteID: record.WorksiteID.String(),
		Month:      record.Month.String(),
		Visited:    record.Visited,
		UpdatedAt:  record.UpdatedAt,
	})
}

// HandleStream handles GET /worksites/{worksiteID}/visits/stream. It holds
// the connection open and pushes one SSE event per committed calendar
// write until the client disconnects.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseWorksiteID(chi.URLParam(r, "worksiteID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "streaming unsupported"))
		return
	}

	updates, cancel := h.hub.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case event, ok := <-updates:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.ErrorContext(ctx, "marshal stream event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
			flusher.Flush()
		}
	}
}
