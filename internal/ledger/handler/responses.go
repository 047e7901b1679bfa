package handler

import (
	"time"

	"fieldsafe/internal/ledger"
)

// PersonResponse is the HTTP shape of a ledger person.
type PersonResponse struct {
	ID               string    `json:"id"`
	Role             string    `json:"role"`
	Name             string    `json:"name"`
	AssignedMinutes  int       `json:"assigned_minutes"`
	UsedMinutes      int       `json:"used_minutes"`
	RemainingMinutes int       `json:"remaining_minutes"`
	Version          int64     `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// FromPerson converts a ledger person to its HTTP response.
func FromPerson(p *ledger.Person) *PersonResponse {
	return &PersonResponse{
		ID:               p.ID.String(),
		Role:             string(p.Role),
		Name:             p.Name,
		AssignedMinutes:  p.AssignedMinutes,
		UsedMinutes:      p.UsedMinutes,
		RemainingMinutes: p.RemainingMinutes(),
		Version:          p.Version,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// FromPersons converts a list of ledger persons.
func FromPersons(persons []*ledger.Person) []*PersonResponse {
	out := make([]*PersonResponse, 0, len(persons))
	for _, p := range persons {
		out = append(out, FromPerson(p))
	}
	return out
}
