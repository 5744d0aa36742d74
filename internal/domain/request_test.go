package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lifesavers-united/internal/domain"
)

func TestNewRequestID(t *testing.T) {
	at := time.UnixMilli(1700000000000)

	id := domain.NewRequestID("Ramesh Kumar Jr.", "9428354534", at)
	assert.Equal(t, "rameshkumarjr_9428354534_1700000000000", id)

	id = domain.NewRequestID("  O'Brien-Patel 2  ", "+91 9428354534", at)
	assert.Equal(t, "obrienpatel2_919428354534_1700000000000", id)
}

func TestUnitsRemaining(t *testing.T) {
	tests := []struct {
		required  string
		fulfilled int
		expected  int
	}{
		{"3", 0, 3},
		{"3", 2, 1},
		{"3", 3, 0},
		{"3", 5, 0},
		{"2 units", 1, 1},
		{"unknown", 0, 0},
		{"", 1, 0},
	}

	for _, tt := range tests {
		r := &domain.Request{UnitsRequired: tt.required, UnitsFulfilled: tt.fulfilled}
		assert.Equal(t, tt.expected, r.UnitsRemaining(), "required=%q fulfilled=%d", tt.required, tt.fulfilled)
	}
}

func TestMissingFields(t *testing.T) {
	s := &domain.Submission{PatientName: "Ramesh", UnitsRequired: "3"}
	assert.Equal(t, []string{"contactNumber", "requiredBloodGroup", "hospitalName"}, s.MissingFields())

	complete := &domain.Submission{
		PatientName:        "Ramesh",
		ContactNumber:      "9428354534",
		RequiredBloodGroup: "B+",
		UnitsRequired:      "3",
		HospitalName:       "City Hospital",
	}
	assert.Empty(t, complete.MissingFields())
}

func TestFieldChangeString(t *testing.T) {
	c := domain.FieldChange{Field: "Units Required", Old: "3", New: "5"}
	assert.Equal(t, "Units Required: 3 → 5", c.String())

	c = domain.FieldChange{Field: "Location", Old: "", New: "Rajkot"}
	assert.Equal(t, "Location: (empty) → Rajkot", c.String())
}

func TestStatusIsActive(t *testing.T) {
	assert.True(t, domain.StatusOpen.IsActive())
	assert.True(t, domain.StatusVerified.IsActive())
	assert.True(t, domain.StatusReopened.IsActive())
	assert.False(t, domain.StatusClosed.IsActive())
}
