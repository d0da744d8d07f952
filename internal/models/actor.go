package models

// Role of an actor on the projector
type Role string

const (
	RoleViewer  Role = "viewer"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Operation is the kind of access a request needs
type Operation string

const (
	OperationView   Operation = "view"
	OperationManage Operation = "manage"
)

// Actor is the caller of a projector operation
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Anonymous is used when a request carries no token
var Anonymous = Actor{ID: "anonymous", Role: RoleViewer}

// NormalizeRole maps unknown role strings to viewer
func NormalizeRole(role string) Role {
	switch Role(role) {
	case RoleViewer, RoleManager, RoleAdmin:
		return Role(role)
	default:
		return RoleViewer
	}
}
