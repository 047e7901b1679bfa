// Package domain holds the primitive types shared across the service:
// typed entity IDs, personnel roles, risk tiers, and calendar months.
// Values are validated at parse time so the rest of the codebase can
// treat them as trusted.
package domain

import (
	"github.com/google/uuid"

	dErrors "fieldsafe/pkg/domain-errors"
)

// Typed IDs prevent cross-entity assignment at compile time.
type (
	// PersonID identifies a field expert, physician, or safety-support worker.
	PersonID uuid.UUID

	// WorksiteID identifies a client worksite.
	WorksiteID uuid.UUID
)

// NewPersonID returns a fresh random PersonID.
func NewPersonID() PersonID { return PersonID(uuid.New()) }

// NewWorksiteID returns a fresh random WorksiteID.
func NewWorksiteID() WorksiteID { return WorksiteID(uuid.New()) }

// ParsePersonID validates and converts a string into a PersonID.
// Rejects empty strings, malformed UUIDs, and the nil UUID.
func ParsePersonID(s string) (PersonID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return PersonID{}, err
	}
	return PersonID(u), nil
}

// ParseWorksiteID validates and converts a string into a WorksiteID.
func ParseWorksiteID(s string) (WorksiteID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return WorksiteID{}, err
	}
	return WorksiteID(u), nil
}

func (id PersonID) String() string { return uuid.UUID(id).String() }
func (id PersonID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id WorksiteID) String() string { return uuid.UUID(id).String() }
func (id WorksiteID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// MarshalText serializes typed IDs as canonical UUID strings in JSON and
// other text encodings. Nil IDs serialize as the empty string; the strict
// rejection of nil lives in the Parse functions, which guard API input.
func (id PersonID) MarshalText() ([]byte, error) {
	if id.IsNil() {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

func (id WorksiteID) MarshalText() ([]byte, error) {
	if id.IsNil() {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

func (id *PersonID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*id = PersonID{}
		return nil
	}
	u, err := uuid.Parse(string(b))
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	*id = PersonID(u)
	return nil
}

func (id *WorksiteID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*id = WorksiteID{}
		return nil
	}
	u, err := uuid.Parse(string(b))
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	*id = WorksiteID(u)
	return nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}
