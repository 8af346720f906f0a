// Package roles defines the role model: identifiers, the ordered role enum,
// the capability table and the Store contract backends implement.
package roles

import (
	"context"
	"fmt"
	"strings"
)

// Identifier is a user handle such as a Telegram username, without the leading "@".
// Identifiers are case-sensitive.
type Identifier string

// NormalizeIdentifier strips "@" markers and surrounding whitespace from raw input.
func NormalizeIdentifier(raw string) Identifier {
	return Identifier(strings.TrimSpace(strings.ReplaceAll(raw, "@", "")))
}

// Mention renders the identifier as a chat mention.
func (id Identifier) Mention() string {
	return "@" + string(id)
}

// Role is an access tier. Higher values grant a superset of lower ones.
type Role uint8

const (
	// RoleNone means the identifier has no stored role.
	RoleNone Role = iota
	// RoleAdmin may register and look up resources and appoint admins.
	RoleAdmin
	// RoleOwner additionally manages owners.
	RoleOwner
)

// String returns the persisted name of the role.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleOwner:
		return "owner"
	default:
		return "none"
	}
}

// ParseRole maps a persisted name back to a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "owner":
		return RoleOwner, nil
	case "", "none":
		return RoleNone, nil
	}
	return RoleNone, fmt.Errorf("roles: unknown role %q", s)
}

// AtLeast reports whether r ranks at or above other.
func (r Role) AtLeast(other Role) bool {
	return r >= other
}

// Store persists identifier → role records.
// Every mutating call is durable before it returns.
type Store interface {
	// Role returns RoleNone when the identifier has no record.
	Role(ctx context.Context, id Identifier) (Role, error)
	SetRole(ctx context.Context, id Identifier, role Role) error
	// DeleteRole is a no-op for unknown identifiers.
	DeleteRole(ctx context.Context, id Identifier) error
	// ListByRole returns identifiers holding exactly role, sorted.
	ListByRole(ctx context.Context, role Role) ([]Identifier, error)
}
