// Package access answers "may this identifier perform action X" against the
// role store. Nothing is cached: role changes apply to the very next call.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/m3rciful/catalogbot/bot/roles"
)

// ErrDenied is returned when an identifier lacks the capability an action needs.
var ErrDenied = errors.New("access denied")

// Policy evaluates role predicates for a configured primary owner.
type Policy struct {
	primary roles.Identifier
	store   roles.Store
}

// NewPolicy builds a Policy. The primary owner is never read from store.
func NewPolicy(primary roles.Identifier, store roles.Store) *Policy {
	return &Policy{primary: primary, store: store}
}

// PrimaryOwner returns the configured primary owner identifier.
func (p *Policy) PrimaryOwner() roles.Identifier {
	return p.primary
}

// IsPrimaryOwner reports whether id is the configured primary owner.
func (p *Policy) IsPrimaryOwner(id roles.Identifier) bool {
	return p.primary != "" && id == p.primary
}

// Role returns the effective role of id, treating the primary owner as owner.
func (p *Policy) Role(ctx context.Context, id roles.Identifier) (roles.Role, error) {
	if id == "" {
		return roles.RoleNone, nil
	}
	if p.IsPrimaryOwner(id) {
		return roles.RoleOwner, nil
	}
	r, err := p.store.Role(ctx, id)
	if err != nil {
		return roles.RoleNone, fmt.Errorf("access: role of %s: %w", id, err)
	}
	return r, nil
}

func (p *Policy) IsOwner(ctx context.Context, id roles.Identifier) (bool, error) {
	r, err := p.Role(ctx, id)
	return r == roles.RoleOwner, err
}

// IsAdmin is true only for a stored admin record; owners are not admins.
func (p *Policy) IsAdmin(ctx context.Context, id roles.Identifier) (bool, error) {
	if id == "" {
		return false, nil
	}
	r, err := p.store.Role(ctx, id)
	if err != nil {
		return false, fmt.Errorf("access: role of %s: %w", id, err)
	}
	return r == roles.RoleAdmin, nil
}

func (p *Policy) HasPrivilege(ctx context.Context, id roles.Identifier) (bool, error) {
	r, err := p.Role(ctx, id)
	return r != roles.RoleNone, err
}

// Can reports whether id holds capability c.
func (p *Policy) Can(ctx context.Context, id roles.Identifier, c roles.Capability) (bool, error) {
	r, err := p.Role(ctx, id)
	if err != nil {
		return false, err
	}
	return r.Grants(c), nil
}

// Require returns ErrDenied unless id holds capability c.
func (p *Policy) Require(ctx context.Context, id roles.Identifier, c roles.Capability) error {
	ok, err := p.Can(ctx, id, c)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s lacks %s", ErrDenied, id, c)
	}
	return nil
}
