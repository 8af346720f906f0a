package dispatch

import "fmt"

const (
	msgNoUsername   = "❌ Your account has no username"
	msgDenied       = "❌ You do not have access\nContact the bot owner to get access"
	msgDeniedShort  = "❌ Access denied"
	msgOwnerMenu    = "👑 Owner panel"
	msgAdminMenu    = "🎬 Admin panel"
	msgSearchUsage  = "Usage: /search <name>"
	msgNothingFound = "❌ Nothing found"
	msgInternal     = "⚠️ Something went wrong, please try again"

	msgAskNames       = "🎬 Send the resource name\n(separate several names with commas)"
	msgAskNamesAgain  = "🎬 Send at least one name\n(separate several names with commas)"
	msgAskLink        = "🔗 Send the resource link"
	msgAskAdmin       = "🆔 Send the new admin's username without @"
	msgAskOwner       = "🆔 Send the new owner's username without @"
	msgAskOwnerRemove = "🆔 Send the username of the owner to remove, without @"
	msgAskUsername    = "🆔 Send a username"

	msgSaved         = "✅ Resource saved"
	msgImmutable     = "❌ The primary owner cannot be removed"
	msgOwnerNotFound = "❌ Owner not found"
	msgCancelled     = "Cancelled"
	msgNothingActive = "Nothing to cancel"

	btnAddResource = "🎬 Register resource"
	btnAdminPanel  = "👥 Manage admins"
	btnOwnerPanel  = "👑 Manage owners"
	btnAddAdmin    = "➕ Add admin"
	btnAddOwner    = "➕ Add owner"
	btnDelOwner    = "❌ Remove owner"
	btnBack        = "⬅ Back"
	btnCancel      = "✖ Cancel"
)

func msgSavedMany(n int) string {
	if n == 1 {
		return msgSaved
	}
	return fmt.Sprintf("✅ %d resources saved", n)
}

func msgAdminAdded(mention string) string   { return fmt.Sprintf("✅ %s is now an admin", mention) }
func msgOwnerAdded(mention string) string   { return fmt.Sprintf("✅ %s is now an owner", mention) }
func msgOwnerRemoved(mention string) string { return fmt.Sprintf("✅ %s removed", mention) }
