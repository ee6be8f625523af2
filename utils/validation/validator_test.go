package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateStruct(t *testing.T) {
	type payload struct {
		Email string `validate:"required,email"`
		Count int    `validate:"gte=0"`
	}

	v := NewValidator()

	assert.NoError(t, v.ValidateStruct(payload{Email: "user@example.com", Count: 1}))
	assert.Error(t, v.ValidateStruct(payload{Email: "not-an-email", Count: 1}))
	assert.Error(t, v.ValidateStruct(payload{Email: "user@example.com", Count: -1}))
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		valid    bool
	}{
		{"valid simple", "alice", true},
		{"valid with separators", "alice_smith-2", true},
		{"too short", "ab", false},
		{"too long", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"spaces", "alice smith", false},
		{"special characters", "alice!", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, _ := ValidateUsername(tt.username)
			assert.Equal(t, tt.valid, ok)
		})
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello  "))
	assert.Equal(t, "a b", SanitizeString("a b"))
}
