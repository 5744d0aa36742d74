package domain

import (
	"strings"
	"time"
)

type DonorStatus string

const (
	DonorActive   DonorStatus = "Active"
	DonorInactive DonorStatus = "Inactive"
)

// Donor is a registered blood donor. At most one Active donor may exist per
// normalized contact number.
type Donor struct {
	ID                 string      `json:"id" db:"id"`
	FullName           string      `json:"full_name" db:"full_name"`
	ContactNumber      string      `json:"contact_number" db:"contact_number"`
	Email              string      `json:"email" db:"email"`
	Gender             string      `json:"gender" db:"gender"`
	DateOfBirth        *time.Time  `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Age                int         `json:"age" db:"age"`
	WeightKG           int         `json:"weight_kg" db:"weight_kg"`
	BloodGroup         string      `json:"blood_group" db:"blood_group"`
	City               string      `json:"city" db:"city"`
	Area               string      `json:"area" db:"area"`
	EmergencyAvailable bool        `json:"emergency_available" db:"emergency_available"`
	PreferredContact   string      `json:"preferred_contact" db:"preferred_contact"`
	MedicalHistory     string      `json:"medical_history" db:"medical_history"`
	Status             DonorStatus `json:"status" db:"status"`
	LastDonatedAt      *time.Time  `json:"last_donated_at,omitempty" db:"last_donated_at"`
	CreatedAt          time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at" db:"updated_at"`
}

type RegisterDonorInput struct {
	FullName           string     `json:"full_name"`
	ContactNumber      string     `json:"contact_number"`
	Email              string     `json:"email"`
	Gender             string     `json:"gender"`
	DateOfBirth        *time.Time `json:"date_of_birth"`
	WeightKG           int        `json:"weight_kg"`
	BloodGroup         string     `json:"blood_group"`
	City               string     `json:"city"`
	Area               string     `json:"area"`
	EmergencyAvailable bool       `json:"emergency_available"`
	PreferredContact   string     `json:"preferred_contact"`
	MedicalHistory     string     `json:"medical_history"`
}

// bloodCompatibility maps a donor group to the patient groups it can serve.
var bloodCompatibility = map[string][]string{
	"O-":  {"O-", "O+", "A-", "A+", "B-", "B+", "AB-", "AB+"},
	"O+":  {"O+", "A+", "B+", "AB+"},
	"A-":  {"A-", "A+", "AB-", "AB+"},
	"A+":  {"A+", "AB+"},
	"B-":  {"B-", "B+", "AB-", "AB+"},
	"B+":  {"B+", "AB+"},
	"AB-": {"AB-", "AB+"},
	"AB+": {"AB+"},
}

// IsBloodCompatible reports whether a donor with donorGroup can donate to a
// patient needing patientGroup.
func IsBloodCompatible(donorGroup, patientGroup string) bool {
	recipients, ok := bloodCompatibility[strings.ToUpper(strings.TrimSpace(donorGroup))]
	if !ok {
		return false
	}
	want := strings.ToUpper(strings.TrimSpace(patientGroup))
	for _, g := range recipients {
		if g == want {
			return true
		}
	}
	return false
}
