package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type DonorType string

const (
	DonorTypeDonor    DonorType = "donor"    // a donor from our network, logged
	DonorTypeRelative DonorType = "relative" // relative donated at the hospital
	DonorTypeOther    DonorType = "other"    // closed for another reason
)

func (t DonorType) IsValid() bool {
	switch t {
	case DonorTypeDonor, DonorTypeRelative, DonorTypeOther:
		return true
	}
	return false
}

type ClosureType string

const (
	ClosureFulfilled ClosureType = "fulfilled"
	ClosureRelative  ClosureType = "relative"
	ClosureOther     ClosureType = "other"
)

// DonationLog is one recorded donation against a request. Logs are
// append-only; reopening a request starts a new cycle but never deletes logs
// from previous cycles.
type DonationLog struct {
	ID             uuid.UUID `json:"id" db:"id"`
	RequestID      string    `json:"request_id" db:"request_id"`
	DonorID        string    `json:"donor_id" db:"donor_id"`
	PatientName    string    `json:"patient_name" db:"patient_name"`
	BloodGroup     string    `json:"blood_group" db:"blood_group"`
	UnitsDonated   int       `json:"units_donated" db:"units_donated"`
	DonorType      DonorType `json:"donor_type" db:"donor_type"`
	DonorName      string    `json:"donor_name" db:"donor_name"`
	DonorContact   string    `json:"donor_contact" db:"donor_contact"`
	RecordedByName string    `json:"recorded_by_name" db:"recorded_by_name"`
	RecordedByUID  string    `json:"recorded_by_uid" db:"recorded_by_uid"`
	ReopenCycle    int       `json:"reopen_cycle" db:"reopen_cycle"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type LogDonationInput struct {
	Units         int       `json:"units"`
	DonorType     DonorType `json:"donor_type"`
	DonorName     string    `json:"donor_name"`
	DonorContact  string    `json:"donor_contact"`
	ClosureReason string    `json:"closure_reason"`
}

type DonationResult struct {
	Success        bool        `json:"success"`
	AutoClosed     bool        `json:"auto_closed"`
	UnitsRemaining int         `json:"units_remaining"`
	ClosureType    ClosureType `json:"closure_type,omitempty"`
	DonationLogID  string      `json:"donation_log_id,omitempty"`
}

// ClosureEntry records one closure of a request. A request closed, reopened
// and closed again carries one entry per closure.
type ClosureEntry struct {
	ClosedBy       string      `json:"closed_by"`
	ClosedByUID    string      `json:"closed_by_uid"`
	ClosedAt       time.Time   `json:"closed_at"`
	ClosureReason  string      `json:"closure_reason"`
	ClosureType    ClosureType `json:"closure_type"`
	ReopenCycle    int         `json:"reopen_cycle"`
	UnitsFulfilled int         `json:"units_fulfilled"`
	DonationLogIDs []string    `json:"donation_log_ids"`
}

// ClosureHistory is stored as a JSONB column.
type ClosureHistory []ClosureEntry

func (h ClosureHistory) Value() (driver.Value, error) {
	if h == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h)
}

func (h *ClosureHistory) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*h = ClosureHistory{}
		return nil
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	default:
		return fmt.Errorf("unsupported closure history type %T", src)
	}
}
