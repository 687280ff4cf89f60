package domain

import "strings"

type Role string

const (
	RoleDonor     Role = "donor"
	RoleOrganizer Role = "organizer"
)

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleDonor, RoleOrganizer:
		return r, true
	}
	return "", false
}

// Actor is the authenticated caller as supplied by the identity layer.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsOrganizer() bool { return a.ID != "" && a.Role == RoleOrganizer }
func (a Actor) IsDonor() bool     { return a.ID != "" && a.Role == RoleDonor }
