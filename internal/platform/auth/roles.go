package auth

import "strings"

// Role is the closed set of staff/patient roles. Authorization decisions
// compare against these values only; anything outside the set is denied.
type Role string

const (
	RoleAdmin         Role = "Admin"
	RoleDoctor        Role = "Doctor"
	RoleReceptionist  Role = "Receptionist"
	RoleLabTechnician Role = "LabTechnician"
	RolePatient       Role = "Patient"
)

var allRoles = map[Role]bool{
	RoleAdmin:         true,
	RoleDoctor:        true,
	RoleReceptionist:  true,
	RoleLabTechnician: true,
	RolePatient:       true,
}

// ParseRole maps a stored role string onto the canonical enumeration.
// Historical records spelled the technician role "Lab Technician"; that
// form is folded into RoleLabTechnician. Unknown strings return false.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.TrimSpace(s))
	if allRoles[r] {
		return r, true
	}
	if strings.EqualFold(strings.ReplaceAll(string(r), " ", ""), string(RoleLabTechnician)) {
		return RoleLabTechnician, true
	}
	return "", false
}

func (r Role) String() string { return string(r) }

// Valid reports whether r is a member of the canonical enumeration.
func (r Role) Valid() bool { return allRoles[r] }
