package bot

import (
	"strings"

	"lifesavers-united/internal/domain"
)

// fieldAliases maps the labels people type (or edit from the template) onto
// submission fields. Matching is case-insensitive and tolerates the markdown
// Telegram clients sometimes leave in copied text.
var fieldAliases = map[string]func(*domain.Submission, string){
	"patient name":   func(s *domain.Submission, v string) { s.PatientName = v },
	"name":           func(s *domain.Submission, v string) { s.PatientName = v },
	"age":            func(s *domain.Submission, v string) { s.PatientAge = v },
	"patient age":    func(s *domain.Submission, v string) { s.PatientAge = v },
	"blood group":    func(s *domain.Submission, v string) { s.RequiredBloodGroup = v },
	"blood":          func(s *domain.Submission, v string) { s.RequiredBloodGroup = v },
	"units":          func(s *domain.Submission, v string) { s.UnitsRequired = v },
	"units required": func(s *domain.Submission, v string) { s.UnitsRequired = v },
	"hospital":       func(s *domain.Submission, v string) { s.HospitalName = v },
	"hospital name":  func(s *domain.Submission, v string) { s.HospitalName = v },
	"location":       func(s *domain.Submission, v string) { s.HospitalCity = v },
	"city":           func(s *domain.Submission, v string) { s.HospitalCity = v },
	"address":        func(s *domain.Submission, v string) { s.HospitalAddress = v },
	"suffering from": func(s *domain.Submission, v string) { s.PatientSufferingFrom = v },
	"condition":      func(s *domain.Submission, v string) { s.PatientSufferingFrom = v },
	"contact person": func(s *domain.Submission, v string) { s.ContactPerson = v },
	"attendant":      func(s *domain.Submission, v string) { s.ContactPerson = v },
	"contact number": func(s *domain.Submission, v string) { s.ContactNumber = v },
	"contact":        func(s *domain.Submission, v string) { s.ContactNumber = v },
	"phone":          func(s *domain.Submission, v string) { s.ContactNumber = v },
	"urgency":        func(s *domain.Submission, v string) { s.UrgencyLevel = v },
	"notes":          func(s *domain.Submission, v string) { s.AdditionalInfo = v },
	"additional info": func(s *domain.Submission, v string) { s.AdditionalInfo = v },
}

// ParseSubmission reads a "Label: value" template message into a submission.
// The second return is false when the message contains no recognizable
// labels at all, so plain chatter is not mistaken for a request.
func ParseSubmission(text string) (domain.Submission, bool) {
	var submission domain.Submission
	matched := false

	for _, line := range strings.Split(text, "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		label = strings.ToLower(strings.TrimSpace(stripMarkdown(label)))
		value = strings.TrimSpace(stripMarkdown(value))
		if value == "" {
			continue
		}

		if assign, ok := fieldAliases[label]; ok {
			assign(&submission, value)
			matched = true
		}
	}

	return submission, matched
}

func stripMarkdown(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '*', '_', '`':
			return -1
		}
		return r
	}, s)
}
