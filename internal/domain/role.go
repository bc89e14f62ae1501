package domain

import "fmt"

// Role closed set of user roles (users.role CHECK constraint).
type Role string

const (
	RoleAdministrator Role = "administrador"
	RoleClinician     Role = "medico"
	RolePatient       Role = "paciente"
)

// ParseRole rejects anything outside the three known roles.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdministrator, RoleClinician, RolePatient:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string { return string(r) }
