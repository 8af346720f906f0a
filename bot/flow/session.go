package flow

import (
	"github.com/m3rciful/catalogbot/bot/roles"
	"github.com/m3rciful/catalogbot/core/telegram/state"
)

const (
	StateIdle                    = state.StateIdle
	StateAwaitingResourceNames   state.State = "awaiting_resource_names"
	StateAwaitingResourceLink    state.State = "awaiting_resource_link"
	StateAwaitingNewAdminID      state.State = "awaiting_new_admin_id"
	StateAwaitingNewOwnerID      state.State = "awaiting_new_owner_id"
	StateAwaitingOwnerIDToRemove state.State = "awaiting_owner_id_to_remove"
)

// Session is one active dialogue. The set of implementations is closed:
// RegisterResource, AddAdmin, AddOwner and RemoveOwner.
type Session interface {
	state.Session
	// Capability is the permission required to start and advance the flow.
	Capability() roles.Capability
	kind() string
}

// RegisterResource collects a list of names, then one link for all of them.
type RegisterResource struct {
	Names []string
}

func (r RegisterResource) State() state.State {
	if len(r.Names) == 0 {
		return StateAwaitingResourceNames
	}
	return StateAwaitingResourceLink
}

func (RegisterResource) Capability() roles.Capability { return roles.CapRegisterResource }
func (RegisterResource) kind() string                 { return "register_resource" }

// AddAdmin waits for the identifier to promote to admin.
type AddAdmin struct{}

func (AddAdmin) State() state.State           { return StateAwaitingNewAdminID }
func (AddAdmin) Capability() roles.Capability { return roles.CapAddAdmin }
func (AddAdmin) kind() string                 { return "add_admin" }

// AddOwner waits for the identifier to promote to owner.
type AddOwner struct{}

func (AddOwner) State() state.State           { return StateAwaitingNewOwnerID }
func (AddOwner) Capability() roles.Capability { return roles.CapAddOwner }
func (AddOwner) kind() string                 { return "add_owner" }

// RemoveOwner waits for the owner identifier to revoke.
type RemoveOwner struct{}

func (RemoveOwner) State() state.State           { return StateAwaitingOwnerIDToRemove }
func (RemoveOwner) Capability() roles.Capability { return roles.CapRemoveOwner }
func (RemoveOwner) kind() string                 { return "remove_owner" }
