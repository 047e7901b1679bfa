package handler

import (
	"strings"

	"fieldsafe/pkg/domain"
	dErrors "fieldsafe/pkg/domain-errors"
)

// CreatePersonRequest is the HTTP request body for POST /persons.
type CreatePersonRequest struct {
	Role            string `json:"role"`
	Name            string `json:"name"`
	AssignedMinutes int    `json:"assigned_minutes"`

	parsedRole domain.Role
}

// Validate validates and parses the request.
func (r *CreatePersonRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}

	role, err := domain.ParseRole(r.Role)
	if err != nil {
		return err
	}
	r.parsedRole = role
	return nil
}

func (r *CreatePersonRequest) ParsedRole() domain.Role { return r.parsedRole }

// AdjustMinutesRequest is the HTTP request body for
// PATCH /persons/{personID}/granted-minutes.
type AdjustMinutesRequest struct {
	AssignedMinutes int `json:"assigned_minutes"`
}

func (r *AdjustMinutesRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}
