package services

import (
	"context"
	"errors"
	"fmt"

	"projector-server/internal/models"
)

// ErrForbidden is matched by every AuthorizationError
var ErrForbidden = errors.New("forbidden")

// AuthorizationError is returned when the permission gate denies an actor
type AuthorizationError struct {
	Actor     models.Actor
	Operation models.Operation
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("actor %s (%s) may not %s the projector", e.Actor.ID, e.Actor.Role, e.Operation)
}

// Is makes errors.Is(err, ErrForbidden) match any AuthorizationError
func (e *AuthorizationError) Is(target error) bool {
	return target == ErrForbidden
}

// PermissionGate authorizes an actor for an operation
type PermissionGate interface {
	Authorize(ctx context.Context, actor models.Actor, op models.Operation) error
}

// RoleGate grants operations by actor role
type RoleGate struct{}

// NewRoleGate creates the role based permission gate
func NewRoleGate() *RoleGate {
	return &RoleGate{}
}

// Can reports whether a role may perform op
func Can(role models.Role, op models.Operation) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleManager:
		return op == models.OperationView || op == models.OperationManage
	case models.RoleViewer:
		return op == models.OperationView
	default:
		return false
	}
}

// Authorize implements PermissionGate
func (g *RoleGate) Authorize(ctx context.Context, actor models.Actor, op models.Operation) error {
	if !Can(actor.Role, op) {
		return &AuthorizationError{Actor: actor, Operation: op}
	}
	return nil
}
