package phone_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lifesavers-united/internal/pkg/phone"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain 10 digits", "9428354534", "9428354534"},
		{"country code with plus", "+919428354534", "9428354534"},
		{"spaces and dashes", "+91 94283-54534", "9428354534"},
		{"double zero prefix", "00919428354534", "9428354534"},
		{"letters ignored", "call 9428354534 now", "9428354534"},
		{"short number kept as is", "12345", "12345"},
		{"leading 91 in a 10 digit number kept", "9198765432", "9198765432"},
		{"empty", "", ""},
		{"only punctuation", "+- ()", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, phone.Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"+91 94283 54534", "9428354534", "00919428354534", "12345"}
	for _, input := range inputs {
		once := phone.Normalize(input)
		assert.Equal(t, once, phone.Normalize(once))
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, phone.IsValid("9428354534"))
	assert.True(t, phone.IsValid("+91 94283 54534"))
	assert.False(t, phone.IsValid("1234567890")) // starts below 6
	assert.False(t, phone.IsValid("94283"))
	assert.False(t, phone.IsValid(""))
}

func TestFormatForDisplay(t *testing.T) {
	assert.Equal(t, "94283 54534", phone.FormatForDisplay("+919428354534"))
	assert.Equal(t, "12345", phone.FormatForDisplay("12345"))
}
