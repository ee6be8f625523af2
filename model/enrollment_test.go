package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyProgressClamps(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"negative clamps to zero", -5, 0},
		{"zero stays", 0, 0},
		{"midpoint stays", 42, 42},
		{"hundred stays", 100, 100},
		{"over hundred clamps", 150, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Enrollment{}
			e.ApplyProgress(tt.input)
			assert.Equal(t, tt.expected, e.Progress)
		})
	}
}

func TestApplyProgressCompletion(t *testing.T) {
	e := Enrollment{}

	e.ApplyProgress(99)
	assert.False(t, e.IsCompleted)

	e.ApplyProgress(100)
	assert.True(t, e.IsCompleted)
}

func TestApplyProgressCompletionIsSticky(t *testing.T) {
	e := Enrollment{}
	e.ApplyProgress(100)
	assert.True(t, e.IsCompleted)

	// Re-reporting 100 is idempotent
	e.ApplyProgress(100)
	assert.True(t, e.IsCompleted)
	assert.Equal(t, 100, e.Progress)

	// A lower report moves progress but never clears completion
	e.ApplyProgress(40)
	assert.True(t, e.IsCompleted)
	assert.Equal(t, 40, e.Progress)
}

func TestApplyProgressLeavesCertificateAlone(t *testing.T) {
	e := Enrollment{IsCertificateReady: false}
	e.ApplyProgress(100)
	assert.False(t, e.IsCertificateReady, "completion alone must not release a certificate")

	graded := Enrollment{IsCertificateReady: true, IsCompleted: true, Progress: 100}
	graded.ApplyProgress(80)
	assert.True(t, graded.IsCertificateReady)
}
