package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	tests := []struct {
		name  string
		role  Role
		valid bool
	}{
		{"admin", RoleAdmin, true},
		{"teacher", RoleTeacher, true},
		{"student", RoleStudent, true},
		{"empty", Role(""), false},
		{"unknown", Role("superuser"), false},
		{"case sensitive", Role("Admin"), false},
		{"whitespace", Role(" admin"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.role.Valid())
		})
	}
}
