package handler

import (
	"time"

	"fieldsafe/internal/worksite"
)

// AssignmentResponse is one committed slot.
type AssignmentResponse struct {
	PersonID string `json:"person_id"`
	Minutes  int    `json:"minutes"`
}

// WorksiteResponse is the HTTP shape of a worksite.
type WorksiteResponse struct {
	ID            string                         `json:"id"`
	Name          string                         `json:"name"`
	RiskTier      string                         `json:"risk_tier"`
	EmployeeCount int                            `json:"employee_count"`
	Status        string                         `json:"status"`
	Assignments   map[string]*AssignmentResponse `json:"assignments"`
	Version       int64                          `json:"version"`
	CreatedAt     time.Time                      `json:"created_at"`
	UpdatedAt     time.Time                      `json:"updated_at"`
}

// FromWorksite converts a worksite to its HTTP response.
func FromWorksite(w *worksite.Worksite) *WorksiteResponse {
	assignments := make(map[string]*AssignmentResponse, len(w.Assignments))
	for role, a := range w.Assignments {
		assignments[string(role)] = &AssignmentResponse{
			PersonID: a.PersonID.String(),
			Minutes:  a.Minutes,
		}
	}
	return &WorksiteResponse{
		ID:            w.ID.String(),
		Name:          w.Name,
		RiskTier:      string(w.RiskTier),
		EmployeeCount: w.EmployeeCount,
		Status:        string(w.Status),
		Assignments:   assignments,
		Version:       w.Version,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
	}
}

// FromWorksites converts a list of worksites.
func FromWorksites(worksites []*worksite.Worksite) []*WorksiteResponse {
	out := make([]*WorksiteResponse, 0, len(worksites))
	for _, w := range worksites {
		out = append(out, FromWorksite(w))
	}
	return out
}

// SlotPreviewResponse is one row of the eligibility preview.
type SlotPreviewResponse struct {
	Role            string              `json:"role"`
	Eligible        bool                `json:"eligible"`
	RequiredMinutes int                 `json:"required_minutes"`
	Assigned        *AssignmentResponse `json:"assigned,omitempty"`
}

// FromPreviews converts the per-slot preview list.
func FromPreviews(previews []worksite.SlotPreview) []*SlotPreviewResponse {
	out := make([]*SlotPreviewResponse, 0, len(previews))
	for _, p := range previews {
		resp := &SlotPreviewResponse{
			Role:            string(p.Role),
			Eligible:        p.Eligible,
			RequiredMinutes: p.RequiredMinutes,
		}
		if p.Assigned != nil {
			resp.Assigned = &AssignmentResponse{
				PersonID: p.Assigned.PersonID.String(),
				Minutes:  p.Assigned.Minutes,
			}
		}
		out = append(out, resp)
	}
	return out
}
