// Package visit owns the monthly visit-tracking calendar kept for approved
// worksites. A record is keyed by worksite and month; a month with no
// record reads as not visited. Records survive approval reverts.
package visit

import (
	"time"

	"fieldsafe/pkg/domain"
)

// Record is one committed calendar cell.
type Record struct {
	WorksiteID domain.WorksiteID `json:"worksite_id"`
	Month      domain.Month      `json:"month"`
	Visited    bool              `json:"visited"`
	RecordedBy domain.PersonID   `json:"recorded_by"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// MonthStatus is one cell of the twelve-month year view.
type MonthStatus struct {
	Month   domain.Month `json:"month"`
	Visited bool         `json:"visited"`
}

// YearView is the full calendar for one worksite and year: always twelve
// months, missing records filled in as not visited.
type YearView struct {
	WorksiteID domain.WorksiteID `json:"worksite_id"`
	Year       int               `json:"year"`
	Months     []MonthStatus     `json:"months"`
}
