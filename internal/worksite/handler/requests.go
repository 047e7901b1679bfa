package handler

import (
	"strings"

	"fieldsafe/internal/worksite"
	"fieldsafe/pkg/domain"
	dErrors "fieldsafe/pkg/domain-errors"
)

// CreateWorksiteRequest is the HTTP request body for POST /worksites.
type CreateWorksiteRequest struct {
	Name          string `json:"name"`
	RiskTier      string `json:"risk_tier"`
	EmployeeCount int    `json:"employee_count"`

	parsedTier domain.RiskTier
}

// Validate validates and parses the request.
func (r *CreateWorksiteRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}

	tier, err := domain.ParseRiskTier(r.RiskTier)
	if err != nil {
		return err
	}
	r.parsedTier = tier
	return nil
}

func (r *CreateWorksiteRequest) ParsedTier() domain.RiskTier { return r.parsedTier }

// UpdateProfileRequest is the HTTP request body for
// PATCH /worksites/{worksiteID}/profile.
type UpdateProfileRequest struct {
	RiskTier      string `json:"risk_tier"`
	EmployeeCount int    `json:"employee_count"`

	parsedTier domain.RiskTier
}

func (r *UpdateProfileRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	tier, err := domain.ParseRiskTier(r.RiskTier)
	if err != nil {
		return err
	}
	r.parsedTier = tier
	return nil
}

func (r *UpdateProfileRequest) ParsedTier() domain.RiskTier { return r.parsedTier }

// SetStatusRequest is the HTTP request body for
// PUT /worksites/{worksiteID}/status.
type SetStatusRequest struct {
	Status string `json:"status"`

	parsedStatus worksite.ApprovalStatus
}

func (r *SetStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	status, err := worksite.ParseApprovalStatus(r.Status)
	if err != nil {
		return err
	}
	r.parsedStatus = status
	return nil
}

func (r *SetStatusRequest) ParsedStatus() worksite.ApprovalStatus { return r.parsedStatus }

// AssignRequest is the HTTP request body for
// PUT /worksites/{worksiteID}/assignments/{role}.
type AssignRequest struct {
	PersonID string `json:"person_id"`

	parsedPersonID domain.PersonID
}

func (r *AssignRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	personID, err := domain.ParsePersonID(r.PersonID)
	if err != nil {
		return err
	}
	r.parsedPersonID = personID
	return nil
}

func (r *AssignRequest) ParsedPersonID() domain.PersonID { return r.parsedPersonID }
