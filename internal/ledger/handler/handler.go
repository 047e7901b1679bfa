// Package handler wires the capacity ledger endpoints to the ledger
// service.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fieldsafe/internal/ledger"
	"fieldsafe/internal/platform/middleware"
	"fieldsafe/pkg/domain"
	"fieldsafe/pkg/platform/httputil"
	"fieldsafe/pkg/requestcontext"
)

// Service defines the ledger operations the handler exposes.
type Service interface {
	CreatePerson(ctx context.Context, role domain.Role, name string, assignedMinutes int) (*ledger.Person, error)
	GetPerson(ctx context.Context, id domain.PersonID) (*ledger.Person, error)
	ListPersons(ctx context.Context, role domain.Role) ([]*ledger.Person, error)
	AdjustGrantedMinutes(ctx context.Context, id domain.PersonID, minutes int) (*ledger.Person, error)
	DeletePerson(ctx context.Context, id domain.PersonID) error
}

// Handler serves the person endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the person endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/persons", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Route("/{personID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.With(middleware.RequireRole("operator", "admin")).Patch("/granted-minutes", h.HandleAdjustMinutes)
			r.With(middleware.RequireRole("operator", "admin")).Delete("/", h.HandleDelete)
		})
	})
}

// HandleCreate handles POST /persons.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[CreatePersonRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	person, err := h.service.CreatePerson(ctx, req.ParsedRole(), req.Name, req.AssignedMinutes)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromPerson(person))
}

// HandleList handles GET /persons with an optional role filter.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	persons, err := h.service.ListPersons(ctx, domain.Role(r.URL.Query().Get("role")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPersons(persons))
}

// HandleGet handles GET /persons/{personID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParsePersonID(chi.URLParam(r, "personID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	person, err := h.service.GetPerson(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPerson(person))
}

// HandleAdjustMinutes handles PATCH /persons/{personID}/granted-minutes.
func (h *Handler) HandleAdjustMinutes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParsePersonID(chi.URLParam(r, "personID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[AdjustMinutesRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	person, err := h.service.AdjustGrantedMinutes(ctx, id, req.AssignedMinutes)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPerson(person))
}

// HandleDelete handles DELETE /persons/{personID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParsePersonID(chi.URLParam(r, "personID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.DeletePerson(ctx, id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
