// Package dispatch routes commands, menu callbacks and free text to the
// authorization policy and the flow state machine, and turns the outcome
// into a transport-neutral Response.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/catalogbot/bot/access"
	"github.com/m3rciful/catalogbot/bot/directory"
	"github.com/m3rciful/catalogbot/bot/flow"
	"github.com/m3rciful/catalogbot/bot/roles"
	"github.com/m3rciful/catalogbot/core/logger"
	"github.com/m3rciful/catalogbot/core/telegram/format"
)

// ErrMissingIdentifier is returned when the acting user has no handle.
var ErrMissingIdentifier = errors.New("missing identifier")

const component = "dispatch"

type menuItem struct {
	text   string
	action string
	cap    roles.Capability
}

// mainMenu lists start-menu entries; each is shown only to roles granting its capability.
var mainMenu = []menuItem{
	{btnAddResource, CbAddResource, roles.CapRegisterResource},
	{btnAdminPanel, CbAdminPanel, roles.CapAdminPanel},
	{btnOwnerPanel, CbOwnerPanel, roles.CapOwnerPanel},
}

// callbackGates maps each gated callback to its capability.
var callbackGates = map[string]roles.Capability{
	CbAddResource: roles.CapRegisterResource,
	CbAdminPanel:  roles.CapAdminPanel,
	CbOwnerPanel:  roles.CapOwnerPanel,
	CbAddAdmin:    roles.CapAddAdmin,
	CbAddOwner:    roles.CapAddOwner,
	CbDelOwner:    roles.CapRemoveOwner,
}

// Dispatcher is stateless apart from its collaborators.
type Dispatcher struct {
	policy  *access.Policy
	roles   roles.Store
	dir     directory.Store
	machine *flow.Machine
}

// New builds a Dispatcher.
func New(policy *access.Policy, rs roles.Store, dir directory.Store, machine *flow.Machine) *Dispatcher {
	return &Dispatcher{policy: policy, roles: rs, dir: dir, machine: machine}
}

// Dispatch handles one trigger. A nil Response means nothing should be sent.
// A non-nil error is returned alongside a user-facing Response for failures
// that should be logged; expected denials and misses return a nil error.
// Callers without a handle get ErrMissingIdentifier with the explanation.
func (d *Dispatcher) Dispatch(ctx context.Context, t Trigger) (*Response, error) {
	switch t.Kind {
	case KindCommand:
		return d.command(ctx, t)
	case KindCallback:
		return d.callback(ctx, t)
	case KindText:
		return d.text(ctx, t)
	}
	return nil, fmt.Errorf("dispatch: unknown trigger kind %d", t.Kind)
}

func (d *Dispatcher) command(ctx context.Context, t Trigger) (*Response, error) {
	switch t.Action {
	case CmdStart:
		if !t.Private {
			return nil, nil
		}
		if t.Identifier == "" {
			return missingIdentifier()
		}
		return d.startMenu(ctx, t.Identifier, false)

	case CmdSearch:
		if t.Identifier == "" {
			return missingIdentifier()
		}
		return d.search(ctx, t.Identifier, t.Text)

	case CmdCancel:
		if t.Identifier == "" {
			return missingIdentifier()
		}
		return d.cancel(ctx, t.Identifier, false), nil
	}
	return nil, nil
}

func (d *Dispatcher) callback(ctx context.Context, t Trigger) (*Response, error) {
	if t.Identifier == "" {
		return missingIdentifier()
	}

	if c, gated := callbackGates[t.Action]; gated {
		if err := d.policy.Require(ctx, t.Identifier, c); err != nil {
			return d.denied(ctx, t, err, true)
		}
	}

	switch t.Action {
	case CbBack:
		return d.startMenu(ctx, t.Identifier, true)
	case CbCancel:
		return d.cancel(ctx, t.Identifier, true), nil
	case CbAdminPanel:
		return d.adminPanel(ctx)
	case CbOwnerPanel:
		return d.ownerPanel(ctx)
	case CbAddResource:
		return d.startFlow(ctx, t, flow.RegisterResource{}, msgAskNames)
	case CbAddAdmin:
		return d.startFlow(ctx, t, flow.AddAdmin{}, msgAskAdmin)
	case CbAddOwner:
		return d.startFlow(ctx, t, flow.AddOwner{}, msgAskOwner)
	case CbDelOwner:
		return d.startFlow(ctx, t, flow.RemoveOwner{}, msgAskOwnerRemove)
	}
	return nil, nil
}

func (d *Dispatcher) text(ctx context.Context, t Trigger) (*Response, error) {
	if !t.Private || t.Identifier == "" {
		return nil, nil
	}
	res, err := d.machine.Handle(ctx, t.Identifier, t.Text)
	mention := res.Target.Mention()
	switch {
	case errors.Is(err, access.ErrDenied):
		return &Response{Text: msgDeniedShort}, nil
	case errors.Is(err, flow.ErrImmutablePrimaryOwner):
		return &Response{Text: msgImmutable}, nil
	case errors.Is(err, flow.ErrNotFound):
		return &Response{Text: msgOwnerNotFound}, nil
	case err != nil:
		return &Response{Text: msgInternal}, err
	}

	switch res.Outcome {
	case flow.OutcomeReprompt:
		return &Response{Text: repromptFor(res), Menu: cancelMenu()}, nil
	case flow.OutcomeAwaitingLink:
		return &Response{Text: msgAskLink, Menu: cancelMenu()}, nil
	case flow.OutcomeResourcesSaved:
		return &Response{Text: msgSavedMany(len(res.Names))}, nil
	case flow.OutcomeAdminAdded:
		return &Response{Text: msgAdminAdded(mention)}, nil
	case flow.OutcomeOwnerAdded:
		return &Response{Text: msgOwnerAdded(mention)}, nil
	case flow.OutcomeOwnerRemoved:
		return &Response{Text: msgOwnerRemoved(mention)}, nil
	}
	return nil, nil
}

func missingIdentifier() (*Response, error) {
	return &Response{Text: msgNoUsername}, ErrMissingIdentifier
}

func repromptFor(res flow.Result) string {
	switch res.State {
	case flow.StateAwaitingResourceNames:
		return msgAskNamesAgain
	case flow.StateAwaitingResourceLink:
		return msgAskLink
	}
	return msgAskUsername
}

func (d *Dispatcher) startMenu(ctx context.Context, id roles.Identifier, edit bool) (*Response, error) {
	role, err := d.policy.Role(ctx, id)
	if err != nil {
		return &Response{Text: msgInternal}, err
	}
	if role == roles.RoleNone {
		logger.Info(ctx, component, "access.denied",
			slog.String("identifier", string(id)),
			slog.String("action", CmdStart),
			slog.String("outcome", "denied"),
		)
		return &Response{Text: msgDenied, Edit: edit}, nil
	}

	var rows [][]Button
	for _, item := range mainMenu {
		if role.Grants(item.cap) {
			rows = append(rows, []Button{{Text: item.text, Action: item.action}})
		}
	}
	title := msgAdminMenu
	if role == roles.RoleOwner {
		title = msgOwnerMenu
	}
	return &Response{Text: title, Menu: rows, Edit: edit}, nil
}

func (d *Dispatcher) search(ctx context.Context, id roles.Identifier, args string) (*Response, error) {
	if err := d.policy.Require(ctx, id, roles.CapLookup); err != nil {
		return d.denied(ctx, Trigger{Kind: KindCommand, Identifier: id, Action: CmdSearch}, err, false)
	}
	name := strings.Join(strings.Fields(args), " ")
	if name == "" {
		return &Response{Text: msgSearchUsage}, nil
	}
	link, ok, err := d.dir.Get(ctx, name)
	if err != nil {
		return &Response{Text: msgInternal}, fmt.Errorf("dispatch: lookup %q: %w", name, err)
	}
	if !ok {
		logger.Debug(ctx, component, "lookup.miss",
			slog.String("name", logger.SanitizeLimit(name, 128)),
			slog.String("outcome", "not_found"),
		)
		return &Response{Text: msgNothingFound}, nil
	}
	return &Response{Text: link}, nil
}

func (d *Dispatcher) cancel(ctx context.Context, id roles.Identifier, edit bool) *Response {
	if d.machine.Cancel(ctx, id) {
		return &Response{Text: msgCancelled, Edit: edit}
	}
	return &Response{Text: msgNothingActive, Edit: edit}
}

func (d *Dispatcher) startFlow(ctx context.Context, t Trigger, s flow.Session, prompt string) (*Response, error) {
	if err := d.machine.Start(ctx, t.Identifier, s); err != nil {
		return d.denied(ctx, t, err, true)
	}
	return &Response{Text: prompt, Menu: cancelMenu(), Edit: true}, nil
}

func (d *Dispatcher) adminPanel(ctx context.Context) (*Response, error) {
	admins, err := d.roles.ListByRole(ctx, roles.RoleAdmin)
	if err != nil {
		return &Response{Text: msgInternal}, fmt.Errorf("dispatch: list admins: %w", err)
	}
	var b strings.Builder
	b.WriteString("*👥 Admins:*\n\n")
	if len(admins) == 0 {
		b.WriteString("(no admins yet)")
	}
	for _, id := range admins {
		b.WriteString("• " + escape(id.Mention()) + "\n")
	}
	return &Response{
		Text:     b.String(),
		Markdown: true,
		Edit:     true,
		Menu: [][]Button{
			{{Text: btnAddAdmin, Action: CbAddAdmin}},
			{{Text: btnBack, Action: CbBack}},
		},
	}, nil
}

func (d *Dispatcher) ownerPanel(ctx context.Context) (*Response, error) {
	owners, err := d.roles.ListByRole(ctx, roles.RoleOwner)
	if err != nil {
		return &Response{Text: msgInternal}, fmt.Errorf("dispatch: list owners: %w", err)
	}
	primary := d.policy.PrimaryOwner()
	var b strings.Builder
	b.WriteString("*👑 Owners:*\n\n")
	if primary != "" {
		b.WriteString("• " + escape(primary.Mention()) + " (primary owner)\n")
	}
	for _, id := range owners {
		if id == primary {
			continue
		}
		b.WriteString("• " + escape(id.Mention()) + "\n")
	}
	return &Response{
		Text:     b.String(),
		Markdown: true,
		Edit:     true,
		Menu: [][]Button{
			{{Text: btnAddOwner, Action: CbAddOwner}},
			{{Text: btnDelOwner, Action: CbDelOwner}},
			{{Text: btnBack, Action: CbBack}},
		},
	}, nil
}

func (d *Dispatcher) denied(ctx context.Context, t Trigger, err error, edit bool) (*Response, error) {
	if !errors.Is(err, access.ErrDenied) {
		return &Response{Text: msgInternal}, err
	}
	logger.Info(ctx, component, "access.denied",
		slog.String("identifier", string(t.Identifier)),
		slog.String("kind", t.Kind.String()),
		slog.String("action", t.Action),
		slog.String("outcome", "denied"),
	)
	return &Response{Text: msgDeniedShort, Edit: edit}, nil
}

func cancelMenu() [][]Button {
	return [][]Button{{{Text: btnCancel, Action: CbCancel}}}
}

func escape(s string) string {
	out, err := format.EscapeMarkdown(s, format.MarkdownV1, "")
	if err != nil {
		return s
	}
	return out
}
