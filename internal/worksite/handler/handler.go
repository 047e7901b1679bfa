// Package handler wires the worksite endpoints: profile management, the
// approval workflow, and assignment commits.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fieldsafe/internal/platform/middleware"
	"fieldsafe/internal/worksite"
	"fieldsafe/pkg/domain"
	"fieldsafe/pkg/platform/httputil"
	"fieldsafe/pkg/requestcontext"
)

// Service defines the worksite operations the handler exposes.
type Service interface {
	CreateWorksite(ctx context.Context, name string, tier domain.RiskTier, employeeCount int) (*worksite.Worksite, error)
	GetWorksite(ctx context.Context, id domain.WorksiteID) (*worksite.Worksite, error)
	ListWorksites(ctx context.Context, statusFilter string) ([]*worksite.Worksite, error)
	ListConfirmed(ctx context.Context) ([]*worksite.Worksite, error)
	UpdateProfile(ctx context.Context, id domain.WorksiteID, tier domain.RiskTier, employeeCount int) (*worksite.Worksite, error)
	SetApprovalStatus(ctx context.Context, id domain.WorksiteID, to worksite.ApprovalStatus) (*worksite.Worksite, error)
	Preview(ctx context.Context, id domain.WorksiteID) ([]worksite.SlotPreview, error)
	Assign(ctx context.Context, id domain.WorksiteID, role domain.Role, personID domain.PersonID) (*worksite.Worksite, error)
	Unassign(ctx context.Context, id domain.WorksiteID, role domain.Role) (*worksite.Worksite, error)
	DeleteWorksite(ctx context.Context, id domain.WorksiteID) error
}

// Handler serves the worksite endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the worksite endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/worksites", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/confirmed", h.HandleListConfirmed)
		r.Route("/{worksiteID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.With(middleware.RequireRole("operator", "admin")).Delete("/", h.HandleDelete)
			r.Patch("/profile", h.HandleUpdateProfile)
			r.With(middleware.RequireRole("operator", "admin")).Put("/status", h.HandleSetStatus)
			r.Get("/assignments/preview", h.HandlePreview)
			r.Put("/assignments/{role}", h.HandleAssign)
			r.Delete("/assignments/{role}", h.HandleUnassign)
		})
	})
}

func worksiteID(r *http.Request) (domain.WorksiteID, error) {
	return domain.ParseWorksiteID(chi.URLParam(r, "worksiteID"))
}

// HandleCreate handles POST /worksites.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[CreateWorksiteRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	created, err := h.service.CreateWorksite(ctx, req.Name, req.ParsedTier(), req.EmployeeCount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromWorksite(created))
}

// HandleList handles GET /worksites with an optional status filter.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	worksites, err := h.service.ListWorksites(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromWorksites(worksites))
}

// HandleListConfirmed handles GET /worksites/confirmed, the operational
// view limited to approved worksites.
func (h *Handler) HandleListConfirmed(w http.ResponseWriter, r *http.Request) {
	worksites, err := h.service.ListConfirmed(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromWorksites(worksites))
}

// HandleGet handles GET /worksites/{worksiteID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := worksiteID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	found, err := h.service.GetWorksite(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromWorksite(found))
}

// HandleUpdateProfile handles PATCH /worksites/{worksiteID}/profile.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := worksiteID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateProfileRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	updated, err := h.service.UpdateProfile(ctx, id, req.ParsedTier(), req.EmployeeCount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromWorksite(updated))
}

// HandleSetStatus handles PUT /worksites/{worksiteID}/status.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := worksiteID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[SetStatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	updated, err := h.service.SetApprovalStatus(ctx, id, req.ParsedStatus())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromWorksite(updated))
}

// HandlePreview handles GET /worksites/{worksiteID}/assignments/preview.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	id, err := worksiteID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	previews, err := h.service.Preview(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPreviews(previews))
}

// HandleAssign handles PUT /worksites/{worksiteID}/assignments/{role}.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := worksiteID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	role, err := domain.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[AssignRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	updated, err := h.service.Assign(ctx, id, role, req.ParsedPersonID())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromWorksite(updated))
}

// HandleUnassign handles DELETE /worksites/{worksiteID}/assignments/{role}.
func (h *Handler) HandleUnassign(w http.ResponseWriter, r *http.Request) {
	id, err := worksiteID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	role, err := domain.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	updated, err := h.service.Unassign(r.Context(), id, role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromWorksite(updated))
}

// HandleDelete handles DELETE /worksites/{worksiteID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := worksiteID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.DeleteWorksite(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
