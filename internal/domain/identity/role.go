package identity

import "strings"

// Role is the acting user's role as supplied by the identity boundary
type Role string

const (
	RoleAdmin      Role = "admin"
	RolePharmacist Role = "pharmacist" // Pharmacist-in-Charge
	RoleAssistant  Role = "assistant"
	RoleDoctor     Role = "doctor"
	RoleNurse      Role = "nurse"
	RoleUnknown    Role = "unknown"
)

// ParseRole normalizes a role string; unrecognised roles map to RoleUnknown
func ParseRole(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r.IsValid() {
		return r
	}
	return RoleUnknown
}

// IsValid returns true if the role is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RolePharmacist, RoleAssistant, RoleDoctor, RoleNurse, RoleUnknown:
		return true
	}
	return false
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

func (r Role) privileged() bool {
	return r == RoleAdmin || r == RolePharmacist
}

// CanApprove reports whether the role may approve purchases and returns
func (r Role) CanApprove() bool {
	return r.privileged()
}

// CanOverrideSchedule reports whether the role may waive missing
// prescription data on a scheduled sale. Independent of the schedule symbol.
func (r Role) CanOverrideSchedule() bool {
	return r.privileged()
}

// CanDispose reports whether the role may write off stock
func (r Role) CanDispose() bool {
	return r.privileged()
}

// Actor is the authenticated user performing an operation
type Actor struct {
	ID   string
	Name string
	Role Role
}

// NewActor creates an actor from identity boundary values
func NewActor(id, name, role string) Actor {
	return Actor{ID: strings.TrimSpace(id), Name: strings.TrimSpace(name), Role: ParseRole(role)}
}

// System is the actor used for automated operations
var System = Actor{ID: "system", Name: "system", Role: RoleAdmin}
