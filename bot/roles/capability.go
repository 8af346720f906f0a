package roles

// Capability names a gated action.
type Capability string

const (
	CapLookup           Capability = "lookup"
	CapRegisterResource Capability = "register_resource"
	CapAdminPanel       Capability = "admin_panel"
	CapAddAdmin         Capability = "add_admin"
	CapOwnerPanel       Capability = "owner_panel"
	CapAddOwner         Capability = "add_owner"
	CapRemoveOwner      Capability = "remove_owner"
)

// minRole is the lowest tier granting each capability.
// Adding a tier means adding a Role constant and adjusting this table.
var minRole = map[Capability]Role{
	CapLookup:           RoleAdmin,
	CapRegisterResource: RoleAdmin,
	CapAdminPanel:       RoleAdmin,
	CapAddAdmin:         RoleAdmin,
	CapOwnerPanel:       RoleOwner,
	CapAddOwner:         RoleOwner,
	CapRemoveOwner:      RoleOwner,
}

// Grants reports whether r holds capability c. Unknown capabilities are never granted.
func (r Role) Grants(c Capability) bool {
	need, ok := minRole[c]
	if !ok || r == RoleNone {
		return false
	}
	return r.AtLeast(need)
}
