package scheduling

import "github.com/gerenciacar/gerenciacar-server/cmd/models"

// Actor is the authenticated identity performing an operation, resolved by
// the auth middleware before the service is invoked.
type Actor struct {
	ID   uint
	Role string
}

type Operation string

const (
	OpCreate Operation = "appointment:create"
	OpUpdate Operation = "appointment:update"
	OpCancel Operation = "appointment:cancel"
	OpRead   Operation = "appointment:read"
)

var allowedRoles = map[Operation]map[string]bool{
	OpCreate: {
		models.RoleAdmin:     true,
		models.RoleManager:   true,
		models.RoleFrontDesk: true,
	},
	OpUpdate: {
		models.RoleAdmin:     true,
		models.RoleManager:   true,
		models.RoleFrontDesk: true,
	},
	OpCancel: {
		models.RoleAdmin:   true,
		models.RoleManager: true,
	},
	OpRead: {
		models.RoleAdmin:      true,
		models.RoleManager:    true,
		models.RoleFrontDesk:  true,
		models.RoleTechnician: true,
	},
}

// Allowed is the single authorization decision point for the scheduling
// service. Every operation checks it before touching the store.
func Allowed(actor Actor, op Operation) bool {
	roles, ok := allowedRoles[op]
	if !ok {
		return false
	}
	return roles[actor.Role]
}
