package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"admin", RoleAdmin},
		{"  Pharmacist ", RolePharmacist},
		{"ASSISTANT", RoleAssistant},
		{"doctor", RoleDoctor},
		{"nurse", RoleNurse},
		{"janitor", RoleUnknown},
		{"", RoleUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRole(tt.in))
		})
	}
}

func TestRole_Capabilities(t *testing.T) {
	tests := []struct {
		role       Role
		privileged bool
	}{
		{RoleAdmin, true},
		{RolePharmacist, true},
		{RoleAssistant, false},
		{RoleDoctor, false},
		{RoleNurse, false},
		{RoleUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			assert.Equal(t, tt.privileged, tt.role.CanApprove())
			assert.Equal(t, tt.privileged, tt.role.CanOverrideSchedule())
			assert.Equal(t, tt.privileged, tt.role.CanDispose())
		})
	}
}

func TestNewActor(t *testing.T) {
	a := NewActor(" u-42 ", "Asha", "Pharmacist")

	assert.Equal(t, "u-42", a.ID)
	assert.Equal(t, RolePharmacist, a.Role)
	assert.True(t, System.Role.CanApprove())
}
