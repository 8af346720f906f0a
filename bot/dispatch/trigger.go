package dispatch

import "github.com/m3rciful/catalogbot/bot/roles"

// Kind classifies an inbound trigger.
type Kind int

const (
	KindCommand Kind = iota
	KindCallback
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindCallback:
		return "callback"
	case KindText:
		return "text"
	}
	return "unknown"
}

// Command names, without the leading slash.
const (
	CmdStart  = "start"
	CmdSearch = "search"
	CmdCancel = "cancel"
)

// Callback keys carried by menu buttons.
const (
	CbAddResource = "add_resource"
	CbAdminPanel  = "admin_panel"
	CbOwnerPanel  = "owner_panel"
	CbAddAdmin    = "add_admin"
	CbAddOwner    = "add_owner"
	CbDelOwner    = "del_owner"
	CbBack        = "back"
	CbCancel      = "cancel"
)

// Trigger is one inbound event, already stripped of transport details.
type Trigger struct {
	Kind Kind
	// Identifier is empty when the sender has no resolvable handle.
	Identifier roles.Identifier
	// Private is true for one-to-one conversations.
	Private bool
	// Action is the command name or callback key; unused for text.
	Action string
	// Text holds command arguments or the free-text message body.
	Text string
}

// Button is one inline menu entry.
type Button struct {
	Text   string
	Action string
}

// Response is what the transport should show the user.
type Response struct {
	Text string
	Menu [][]Button
	// Edit asks the transport to replace the message a callback came from.
	Edit bool
	// Markdown marks Text as Telegram legacy Markdown.
	Markdown bool
}
