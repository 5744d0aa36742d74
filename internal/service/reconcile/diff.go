package reconcile

import (
	"strings"

	"lifesavers-united/internal/domain"
)

// userFields is the user-submitted subset compared for change detection.
// Only these fields decide whether a resubmission counts as "changed";
// system-generated fields never do.
var userFields = []struct {
	label     string
	submitted func(domain.Submission) string
	stored    func(*domain.Request) *string
}{
	{"Patient Name", func(s domain.Submission) string { return s.PatientName }, func(r *domain.Request) *string { return &r.PatientName }},
	{"Age", func(s domain.Submission) string { return s.PatientAge }, func(r *domain.Request) *string { return &r.PatientAge }},
	{"Blood Group", func(s domain.Submission) string { return s.RequiredBloodGroup }, func(r *domain.Request) *string { return &r.RequiredBloodGroup }},
	{"Units Required", func(s domain.Submission) string { return s.UnitsRequired }, func(r *domain.Request) *string { return &r.UnitsRequired }},
	{"Hospital", func(s domain.Submission) string { return s.HospitalName }, func(r *domain.Request) *string { return &r.HospitalName }},
	{"Location", func(s domain.Submission) string { return s.HospitalCity }, func(r *domain.Request) *string { return &r.HospitalCity }},
	{"Suffering From", func(s domain.Submission) string { return s.PatientSufferingFrom }, func(r *domain.Request) *string { return &r.PatientSufferingFrom }},
	{"Contact Person", func(s domain.Submission) string { return s.ContactPerson }, func(r *domain.Request) *string { return &r.ContactPerson }},
	{"Contact Number", func(s domain.Submission) string { return s.ContactNumber }, func(r *domain.Request) *string { return &r.ContactNumber }},
}

// auxFields are merged on update/reopen when non-empty but never counted as
// changes. Provenance fields (createdAt, createdBy, createdByUid, source) are
// not listed anywhere and therefore can never be overwritten.
var auxFields = []struct {
	submitted func(domain.Submission) string
	stored    func(*domain.Request) *string
}{
	{func(s domain.Submission) string { return s.HospitalAddress }, func(r *domain.Request) *string { return &r.HospitalAddress }},
	{func(s domain.Submission) string { return s.ContactEmail }, func(r *domain.Request) *string { return &r.ContactEmail }},
	{func(s domain.Submission) string { return s.UrgencyLevel }, func(r *domain.Request) *string { return &r.UrgencyLevel }},
	{func(s domain.Submission) string { return s.AdditionalInfo }, func(r *domain.Request) *string { return &r.AdditionalInfo }},
}

// diffUserFields compares the user-submitted subset against the stored
// record, string-trimmed. Empty submitted values never count: a field absent
// from the submission leaves the stored value untouched.
func diffUserFields(submission domain.Submission, stored *domain.Request) []domain.FieldChange {
	var changes []domain.FieldChange
	for _, f := range userFields {
		submitted := strings.TrimSpace(f.submitted(submission))
		if submitted == "" {
			continue
		}
		current := strings.TrimSpace(*f.stored(stored))
		if submitted != current {
			changes = append(changes, domain.FieldChange{Field: f.label, Old: current, New: submitted})
		}
	}
	return changes
}

// applyChanges writes the detected user-field changes plus any non-empty
// auxiliary fields onto the stored record.
func applyChanges(submission domain.Submission, stored *domain.Request, changes []domain.FieldChange) {
	for _, c := range changes {
		for _, f := range userFields {
			if f.label == c.Field {
				*f.stored(stored) = c.New
				break
			}
		}
	}
	for _, f := range auxFields {
		if submitted := strings.TrimSpace(f.submitted(submission)); submitted != "" {
			*f.stored(stored) = submitted
		}
	}
}
