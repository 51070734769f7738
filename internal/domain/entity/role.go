package entity

import "github.com/google/uuid"

// Role ID constants, as issued in access tokens by the identity service
const (
	RoleIDAdmin   = 1
	RoleIDDoctor  = 2
	RoleIDPatient = 3
)

// RoleNames constants
const (
	RoleAdmin   = "admin"
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

// RoleName maps a role ID to its name; unknown IDs map to "".
func RoleName(roleID int) string {
	switch roleID {
	case RoleIDAdmin:
		return RoleAdmin
	case RoleIDDoctor:
		return RoleDoctor
	case RoleIDPatient:
		return RolePatient
	default:
		return ""
	}
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID     uuid.UUID
	RoleID int
}

func (a Actor) IsAdmin() bool {
	return a.RoleID == RoleIDAdmin
}

func (a Actor) IsDoctor() bool {
	return a.RoleID == RoleIDDoctor
}

func (a Actor) IsPatient() bool {
	return a.RoleID == RoleIDPatient
}
