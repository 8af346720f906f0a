// Package flow implements the per-user multi-step input state machine.
//
// A user has at most one active session. Starting a flow replaces whatever
// was in progress; free text from a user with no session is ignored.
// Completing a flow writes to the role store or the resource directory and
// returns the user to idle.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/catalogbot/bot/access"
	"github.com/m3rciful/catalogbot/bot/directory"
	"github.com/m3rciful/catalogbot/bot/roles"
	"github.com/m3rciful/catalogbot/core/logger"
	"github.com/m3rciful/catalogbot/core/telegram/state"
)

var (
	// ErrNotFound is returned when the identifier to remove holds no owner role.
	ErrNotFound = errors.New("not found")
	// ErrImmutablePrimaryOwner is returned on attempts to remove the primary owner.
	ErrImmutablePrimaryOwner = errors.New("primary owner cannot be removed")
)

const component = "flow"

// Outcome describes what a handled message did.
type Outcome int

const (
	// OutcomeIgnored means no session was active; nothing changed.
	OutcomeIgnored Outcome = iota
	// OutcomeReprompt means the input was unusable and the step is unchanged.
	OutcomeReprompt
	// OutcomeAwaitingLink means resource names were accepted.
	OutcomeAwaitingLink
	OutcomeResourcesSaved
	OutcomeAdminAdded
	OutcomeOwnerAdded
	OutcomeOwnerRemoved
	// OutcomeFailed accompanies errors that ended the flow.
	OutcomeFailed
)

var outcomeNames = map[Outcome]string{
	OutcomeIgnored:        "ignored",
	OutcomeReprompt:       "reprompt",
	OutcomeAwaitingLink:   "awaiting_link",
	OutcomeResourcesSaved: "resources_saved",
	OutcomeAdminAdded:     "admin_added",
	OutcomeOwnerAdded:     "owner_added",
	OutcomeOwnerRemoved:   "owner_removed",
	OutcomeFailed:         "failed",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result reports the effect of one message on the caller's session.
type Result struct {
	Outcome Outcome
	// State is the session state after handling.
	State  state.State
	Names  []string
	Link   string
	Target roles.Identifier
}

// Machine advances flow sessions. It is safe for concurrent use; messages
// from the same identifier are handled one at a time.
type Machine struct {
	sessions state.Manager[Session]
	policy   *access.Policy
	roles    roles.Store
	dir      directory.Store
}

// NewMachine wires a Machine. A nil sessions manager gets an in-memory one.
func NewMachine(sessions state.Manager[Session], policy *access.Policy, rs roles.Store, dir directory.Store) *Machine {
	if sessions == nil {
		sessions = state.NewMemoryManager[Session]()
	}
	return &Machine{sessions: sessions, policy: policy, roles: rs, dir: dir}
}

// Start begins s for id after checking its capability, discarding any flow in progress.
func (m *Machine) Start(ctx context.Context, id roles.Identifier, s Session) error {
	if err := m.policy.Require(ctx, id, s.Capability()); err != nil {
		return err
	}
	key := string(id)
	unlock := m.sessions.Lock(key)
	defer unlock()

	prev := m.sessions.GetState(key)
	m.sessions.Set(key, s)
	attrs := []slog.Attr{
		slog.String("identifier", key),
		slog.String("flow", s.kind()),
		slog.String("state", string(s.State())),
	}
	if prev != state.StateIdle {
		attrs = append(attrs, slog.String("replaced", string(prev)))
	}
	logger.Debug(ctx, component, "flow.start", attrs...)
	return nil
}

// State returns the current state for id.
func (m *Machine) State(id roles.Identifier) state.State {
	return m.sessions.GetState(string(id))
}

// InProgress reports whether id has an active flow.
func (m *Machine) InProgress(id roles.Identifier) bool {
	return m.sessions.InProgress(string(id))
}

// Active returns the number of users with a flow in progress.
func (m *Machine) Active() int {
	return m.sessions.Len()
}

// Cancel abandons the active flow of id and reports whether one existed.
func (m *Machine) Cancel(ctx context.Context, id roles.Identifier) bool {
	key := string(id)
	unlock := m.sessions.Lock(key)
	defer unlock()
	if !m.sessions.InProgress(key) {
		return false
	}
	m.sessions.Clear(key)
	logger.Debug(ctx, component, "flow.cancel", slog.String("identifier", key))
	return true
}

// Handle feeds one free-text message from id into its session.
func (m *Machine) Handle(ctx context.Context, id roles.Identifier, text string) (Result, error) {
	key := string(id)
	unlock := m.sessions.Lock(key)
	defer unlock()

	sess, ok := m.sessions.Get(key)
	if !ok || id == "" {
		return Result{Outcome: OutcomeIgnored, State: state.StateIdle}, nil
	}

	if err := m.policy.Require(ctx, id, sess.Capability()); err != nil {
		if errors.Is(err, access.ErrDenied) {
			m.sessions.Clear(key)
			logger.Warn(ctx, component, "flow.revoked",
				slog.String("identifier", key),
				slog.String("flow", sess.kind()),
			)
		}
		return Result{Outcome: OutcomeFailed, State: m.sessions.GetState(key)}, err
	}

	var (
		res Result
		err error
	)
	switch s := sess.(type) {
	case RegisterResource:
		res, err = m.registerResource(ctx, key, s, text)
	case AddAdmin:
		res, err = m.addAdmin(ctx, key, text)
	case AddOwner:
		res, err = m.addOwner(ctx, key, text)
	case RemoveOwner:
		res, err = m.removeOwner(ctx, key, text)
	default:
		m.sessions.Clear(key)
		return Result{Outcome: OutcomeIgnored, State: state.StateIdle}, nil
	}
	res.State = m.sessions.GetState(key)

	attrs := []slog.Attr{
		slog.String("identifier", key),
		slog.String("flow", sess.kind()),
		slog.String("outcome", res.Outcome.String()),
		slog.String("state", string(res.State)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
		logger.Info(ctx, component, "flow.step", attrs...)
		return res, err
	}
	logger.Debug(ctx, component, "flow.step", attrs...)
	return res, nil
}

func (m *Machine) registerResource(ctx context.Context, key string, s RegisterResource, text string) (Result, error) {
	if len(s.Names) == 0 {
		names := directory.SplitNames(text)
		if len(names) == 0 {
			return Result{Outcome: OutcomeReprompt}, nil
		}
		m.sessions.Set(key, RegisterResource{Names: names})
		return Result{Outcome: OutcomeAwaitingLink, Names: names}, nil
	}

	link := strings.TrimSpace(text)
	if link == "" {
		return Result{Outcome: OutcomeReprompt, Names: s.Names}, nil
	}
	if err := m.dir.PutMany(ctx, s.Names, link); err != nil {
		return Result{Outcome: OutcomeFailed, Names: s.Names}, fmt.Errorf("flow: save resources: %w", err)
	}
	m.sessions.Clear(key)
	logger.Info(ctx, component, "resources.saved",
		slog.String("identifier", key),
		slog.Int("count", len(s.Names)),
	)
	return Result{Outcome: OutcomeResourcesSaved, Names: s.Names, Link: link}, nil
}

func (m *Machine) addAdmin(ctx context.Context, key, text string) (Result, error) {
	target := roles.NormalizeIdentifier(text)
	if target == "" {
		return Result{Outcome: OutcomeReprompt}, nil
	}
	// upsert: an owner named here is stored as admin; the primary owner stays owner
	if err := m.roles.SetRole(ctx, target, roles.RoleAdmin); err != nil {
		return Result{Outcome: OutcomeFailed, Target: target}, fmt.Errorf("flow: add admin: %w", err)
	}
	m.sessions.Clear(key)
	logger.Info(ctx, component, "role.granted",
		slog.String("identifier", key),
		slog.String("target", string(target)),
		slog.String("role", roles.RoleAdmin.String()),
	)
	return Result{Outcome: OutcomeAdminAdded, Target: target}, nil
}

func (m *Machine) addOwner(ctx context.Context, key, text string) (Result, error) {
	target := roles.NormalizeIdentifier(text)
	if target == "" {
		return Result{Outcome: OutcomeReprompt}, nil
	}
	if err := m.roles.SetRole(ctx, target, roles.RoleOwner); err != nil {
		return Result{Outcome: OutcomeFailed, Target: target}, fmt.Errorf("flow: add owner: %w", err)
	}
	m.sessions.Clear(key)
	logger.Info(ctx, component, "role.granted",
		slog.String("identifier", key),
		slog.String("target", string(target)),
		slog.String("role", roles.RoleOwner.String()),
	)
	return Result{Outcome: OutcomeOwnerAdded, Target: target}, nil
}

func (m *Machine) removeOwner(ctx context.Context, key, text string) (Result, error) {
	target := roles.NormalizeIdentifier(text)
	if m.policy.IsPrimaryOwner(target) {
		m.sessions.Clear(key)
		return Result{Outcome: OutcomeFailed, Target: target}, ErrImmutablePrimaryOwner
	}
	current, err := m.roles.Role(ctx, target)
	if err != nil {
		return Result{Outcome: OutcomeFailed, Target: target}, fmt.Errorf("flow: lookup owner: %w", err)
	}
	if target == "" || current != roles.RoleOwner {
		m.sessions.Clear(key)
		return Result{Outcome: OutcomeFailed, Target: target}, fmt.Errorf("owner %q: %w", target, ErrNotFound)
	}
	if err := m.roles.DeleteRole(ctx, target); err != nil {
		return Result{Outcome: OutcomeFailed, Target: target}, fmt.Errorf("flow: remove owner: %w", err)
	}
	m.sessions.Clear(key)
	logger.Info(ctx, component, "role.revoked",
		slog.String("identifier", key),
		slog.String("target", string(target)),
		slog.String("role", roles.RoleOwner.String()),
	)
	return Result{Outcome: OutcomeOwnerRemoved, Target: target}, nil
}
