package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

type RequestStatus string

const (
	StatusOpen     RequestStatus = "Open"
	StatusVerified RequestStatus = "Verified"
	StatusReopened RequestStatus = "Reopened"
	StatusClosed   RequestStatus = "Closed"
)

// IsActive reports whether the request is visible in the public feed and
// blocks creation of a second request for the same patient identity.
func (s RequestStatus) IsActive() bool {
	switch s {
	case StatusOpen, StatusVerified, StatusReopened:
		return true
	}
	return false
}

func (s RequestStatus) IsValid() bool {
	return s.IsActive() || s == StatusClosed
}

type Source string

const (
	SourceWebForm     Source = "web_form"
	SourceTelegramBot Source = "telegram_bot"
	SourceAppsScript  Source = "apps_script"
)

// Request is one patient's outstanding blood need. It is never deleted:
// closure is a status value, and reopening starts a new donation cycle while
// AllDonationLogIDs keeps the lifetime history.
type Request struct {
	ID                   string        `json:"id" db:"id"`
	PatientName          string        `json:"patient_name" db:"patient_name"`
	ContactNumber        string        `json:"contact_number" db:"contact_number"`
	RequiredBloodGroup   string        `json:"required_blood_group" db:"required_blood_group"`
	UnitsRequired        string        `json:"units_required" db:"units_required"`
	HospitalName         string        `json:"hospital_name" db:"hospital_name"`
	HospitalCity         string        `json:"hospital_city" db:"hospital_city"`
	HospitalAddress      string        `json:"hospital_address" db:"hospital_address"`
	PatientAge           string        `json:"patient_age" db:"patient_age"`
	PatientSufferingFrom string        `json:"patient_suffering_from" db:"patient_suffering_from"`
	ContactPerson        string        `json:"contact_person" db:"contact_person"`
	ContactEmail         string        `json:"contact_email" db:"contact_email"`
	UrgencyLevel         string        `json:"urgency_level" db:"urgency_level"`
	AdditionalInfo       string        `json:"additional_info" db:"additional_info"`
	Status               RequestStatus `json:"status" db:"status"`

	UnitsFulfilled    int            `json:"units_fulfilled" db:"units_fulfilled"`
	DonationLogIDs    pq.StringArray `json:"donation_log_ids" db:"donation_log_ids"`
	AllDonationLogIDs pq.StringArray `json:"all_donation_log_ids" db:"all_donation_log_ids"`
	DonorSummary      string         `json:"donor_summary" db:"donor_summary"`
	FulfilledAt       *time.Time     `json:"fulfilled_at,omitempty" db:"fulfilled_at"`
	LastDonationAt    *time.Time     `json:"last_donation_at,omitempty" db:"last_donation_at"`

	ClosedAt       *time.Time     `json:"closed_at,omitempty" db:"closed_at"`
	ClosedBy       string         `json:"closed_by" db:"closed_by"`
	ClosedByUID    string         `json:"closed_by_uid" db:"closed_by_uid"`
	ClosureReason  string         `json:"closure_reason" db:"closure_reason"`
	ClosureType    ClosureType    `json:"closure_type" db:"closure_type"`
	ClosureHistory ClosureHistory `json:"closure_history" db:"closure_history"`
	TotalClosures  int            `json:"total_closures" db:"total_closures"`

	ReopenedAt  *time.Time `json:"reopened_at,omitempty" db:"reopened_at"`
	ReopenCount int        `json:"reopen_count" db:"reopen_count"`

	VerifiedAt     *time.Time `json:"verified_at,omitempty" db:"verified_at"`
	VerifiedByName string     `json:"verified_by_name" db:"verified_by_name"`
	VerifiedByUID  string     `json:"verified_by_uid" db:"verified_by_uid"`

	// Provenance, immutable once set.
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	CreatedBy    string    `json:"created_by" db:"created_by"`
	CreatedByUID string    `json:"created_by_uid" db:"created_by_uid"`
	Source       Source    `json:"source" db:"source"`

	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
	UpdatedBy    string    `json:"updated_by" db:"updated_by"`
	UpdatedByUID string    `json:"updated_by_uid" db:"updated_by_uid"`
}

// UnitsRemaining tolerates the free-text units field the intake channels
// produce; unparseable values count as zero.
func (r *Request) UnitsRemaining() int {
	remaining := atoiLoose(r.UnitsRequired) - r.UnitsFulfilled
	if remaining < 0 {
		return 0
	}
	return remaining
}

func atoiLoose(s string) int {
	n := 0
	for _, r := range strings.TrimSpace(s) {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// NewRequestID builds the natural document id: lowercased alphanumeric
// patient name, contact digits, and a millisecond timestamp.
func NewRequestID(patientName, contactNumber string, now time.Time) string {
	var name strings.Builder
	for _, r := range strings.ToLower(patientName) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			name.WriteRune(r)
		}
	}
	var contact strings.Builder
	for _, r := range contactNumber {
		if r >= '0' && r <= '9' {
			contact.WriteRune(r)
		}
	}
	return fmt.Sprintf("%s_%s_%d", name.String(), contact.String(), now.UnixMilli())
}

// Submission is the channel-independent intake shape. Optional fields are
// plain strings: an empty value means "not provided" and never overwrites a
// stored value during reconciliation.
type Submission struct {
	PatientName          string `json:"patient_name"`
	ContactNumber        string `json:"contact_number"`
	RequiredBloodGroup   string `json:"required_blood_group"`
	UnitsRequired        string `json:"units_required"`
	HospitalName         string `json:"hospital_name"`
	HospitalCity         string `json:"hospital_city"`
	HospitalAddress      string `json:"hospital_address"`
	PatientAge           string `json:"patient_age"`
	PatientSufferingFrom string `json:"patient_suffering_from"`
	ContactPerson        string `json:"contact_person"`
	ContactEmail         string `json:"contact_email"`
	UrgencyLevel         string `json:"urgency_level"`
	AdditionalInfo       string `json:"additional_info"`

	Source         Source `json:"source"`
	SubmittedBy    string `json:"submitted_by"`
	SubmittedByUID string `json:"submitted_by_uid"`
}

// MissingFields returns the mandatory fields that are absent, in a stable
// order suitable for user-facing messages.
func (s *Submission) MissingFields() []string {
	var missing []string
	mandatory := []struct {
		name  string
		value string
	}{
		{"patientName", s.PatientName},
		{"contactNumber", s.ContactNumber},
		{"requiredBloodGroup", s.RequiredBloodGroup},
		{"unitsRequired", s.UnitsRequired},
		{"hospitalName", s.HospitalName},
	}
	for _, f := range mandatory {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

type ReconcileAction string

const (
	ActionCreated           ReconcileAction = "CREATED"
	ActionUpdated           ReconcileAction = "UPDATED"
	ActionReopened          ReconcileAction = "REOPENED"
	ActionRejectedDuplicate ReconcileAction = "REJECTED_DUPLICATE"
	ActionNoChange          ReconcileAction = "NO_CHANGE"
)

type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

func (c FieldChange) String() string {
	old := c.Old
	if old == "" {
		old = "(empty)"
	}
	return fmt.Sprintf("%s: %s → %s", c.Field, old, c.New)
}

// Outcome codes for the structured negative results. Validation failures and
// duplicate-active are expected outcomes, not faults, and must never be
// conflated with store errors.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeDuplicateActive = "DUPLICATE_ACTIVE"
)

// ReconcileOutcome is what every intake channel gets back.
type ReconcileOutcome struct {
	Success       bool            `json:"success"`
	Action        ReconcileAction `json:"action,omitempty"`
	Code          string          `json:"code,omitempty"`
	RequestID     string          `json:"request_id,omitempty"`
	ChangedFields []FieldChange   `json:"changed_fields,omitempty"`
	MissingFields []string        `json:"missing_fields,omitempty"`
	Existing      *Request        `json:"existing,omitempty"`
	Message       string          `json:"message"`
}

type CloseRequestInput struct {
	Reason string      `json:"reason"`
	Type   ClosureType `json:"type"`
}

type RequestListFilter struct {
	Statuses []RequestStatus
}
