package auth

import (
	"context"
	"fmt"

	"github.com/geoflow/geoflow/internal/domain"
)

// RoleSource looks up the roles held by a user.
type RoleSource interface {
	GetRoles(ctx context.Context, userID int64) ([]domain.Role, error)
}

// InstanceSource looks up a load instance so participant based capabilities
// can consult its phase users.
type InstanceSource interface {
	GetByID(ctx context.Context, liID int64) (domain.LoadInstance, error)
}

// Gate evaluates whether an acting user may perform a mutation class. Checks
// are pure reads with no side effects.
type Gate struct {
	roles     RoleSource
	instances InstanceSource
}

func NewGate(roles RoleSource, instances InstanceSource) *Gate {
	return &Gate{roles: roles, instances: instances}
}

// Can reports whether the user holds the capability. The admin role grants
// every capability; the others require the capability specific role, and
// UpdateLoadInstanceAsParticipant alternatively accepts a recorded phase
// user of the targeted load instance.
func (g *Gate) Can(ctx context.Context, userID int64, capability Capability) (bool, error) {
	roles, err := g.roles.GetRoles(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve roles for user %d: %w", userID, err)
	}

	held := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		held[role.Name] = struct{}{}
	}
	if _, admin := held[domain.RoleAdmin]; admin {
		return true, nil
	}
	if capability.kind == capIsAdmin {
		return false, nil
	}

	if required, ok := roleFor[capability.kind]; ok {
		if _, has := held[required]; has {
			return true, nil
		}
	}

	if capability.kind == capUpdateLoadInstance {
		instance, err := g.instances.GetByID(ctx, capability.loadInstanceID)
		if err != nil {
			return false, err
		}
		if instance.IsParticipant(userID) {
			return true, nil
		}
	}

	return false, nil
}

// Require is Can with the denial surfaced as an AuthorizationDenied error.
func (g *Gate) Require(ctx context.Context, userID int64, capability Capability) error {
	allowed, err := g.Can(ctx, userID, capability)
	if err != nil {
		return err
	}
	if !allowed {
		return AuthorizationDenied{UserID: userID, Capability: capability}
	}
	return nil
}
