package state

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Session is a conversation payload that knows which step it is waiting on.
type Session interface {
	State() State
}

// Manager stores at most one session per key.
type Manager[T Session] interface {
	Get(key string) (T, bool)
	// Set replaces any existing session for key.
	Set(key string, session T)
	Clear(key string)

	GetState(key string) State
	InProgress(key string) bool
	Len() int

	// Lock serializes work on one key and returns the matching unlock func.
	Lock(key string) (unlock func())
}
