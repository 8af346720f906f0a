package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m3rciful/catalogbot/bot/access"
	"github.com/m3rciful/catalogbot/bot/directory"
	"github.com/m3rciful/catalogbot/bot/flow"
	"github.com/m3rciful/catalogbot/bot/roles"
)

const primary roles.Identifier = "root"

type harness struct {
	d     *Dispatcher
	roles *roles.MemoryStore
	dir   *directory.MemoryStore
	m     *flow.Machine
}

func newHarness() harness {
	rs := roles.NewMemoryStore(map[roles.Identifier]roles.Role{
		"olga": roles.RoleOwner,
		"adam": roles.RoleAdmin,
	})
	dir := directory.NewMemoryStore(nil)
	policy := access.NewPolicy(primary, rs)
	m := flow.NewMachine(nil, policy, rs, dir)
	return harness{d: New(policy, rs, dir, m), roles: rs, dir: dir, m: m}
}

func (h harness) cmd(t *testing.T, id roles.Identifier, action, text string) *Response {
	t.Helper()
	return h.do(t, Trigger{Kind: KindCommand, Identifier: id, Private: true, Action: action, Text: text})
}

func (h harness) press(t *testing.T, id roles.Identifier, action string) *Response {
	t.Helper()
	return h.do(t, Trigger{Kind: KindCallback, Identifier: id, Private: true, Action: action})
}

func (h harness) say(t *testing.T, id roles.Identifier, text string) *Response {
	t.Helper()
	return h.do(t, Trigger{Kind: KindText, Identifier: id, Private: true, Text: text})
}

func (h harness) do(t *testing.T, tr Trigger) *Response {
	t.Helper()
	resp, err := h.d.Dispatch(context.Background(), tr)
	if err != nil {
		t.Fatalf("Dispatch(%+v) error = %v", tr, err)
	}
	return resp
}

func actions(r *Response) []string {
	var out []string
	for _, row := range r.Menu {
		for _, b := range row {
			out = append(out, b.Action)
		}
	}
	return out
}

func TestStartMenuByRole(t *testing.T) {
	h := newHarness()
	tests := []struct {
		id    roles.Identifier
		title string
		want  []string
	}{
		{primary, msgOwnerMenu, []string{CbAddResource, CbAdminPanel, CbOwnerPanel}},
		{"olga", msgOwnerMenu, []string{CbAddResource, CbAdminPanel, CbOwnerPanel}},
		{"adam", msgAdminMenu, []string{CbAddResource, CbAdminPanel}},
		{"eve", msgDenied, nil},
	}
	for _, tt := range tests {
		resp := h.cmd(t, tt.id, CmdStart, "")
		if resp.Text != tt.title {
			t.Errorf("start(%s) text = %q, want %q", tt.id, resp.Text, tt.title)
		}
		if got := strings.Join(actions(resp), ","); got != strings.Join(tt.want, ",") {
			t.Errorf("start(%s) menu = %s, want %v", tt.id, got, tt.want)
		}
	}
}

func TestStartIgnoredOutsidePrivateChat(t *testing.T) {
	h := newHarness()
	resp := h.do(t, Trigger{Kind: KindCommand, Identifier: primary, Action: CmdStart})
	if resp != nil {
		t.Fatalf("start in group = %+v, want no reply", resp)
	}
}

func TestMissingIdentifier(t *testing.T) {
	h := newHarness()
	for _, tr := range []Trigger{
		{Kind: KindCommand, Private: true, Action: CmdStart},
		{Kind: KindCommand, Private: true, Action: CmdSearch, Text: "x"},
		{Kind: KindCallback, Private: true, Action: CbAddResource},
	} {
		resp, err := h.d.Dispatch(context.Background(), tr)
		if !errors.Is(err, ErrMissingIdentifier) {
			t.Errorf("Dispatch(%+v) error = %v, want ErrMissingIdentifier", tr, err)
		}
		if resp == nil || resp.Text != msgNoUsername {
			t.Errorf("Dispatch(%+v) = %+v, want no-username reply", tr, resp)
		}
	}
	if h.m.InProgress("") {
		t.Fatal("flow started for empty identifier")
	}
	if resp := h.say(t, "", "Heat"); resp != nil {
		t.Fatalf("anonymous text = %+v, want no reply", resp)
	}
}

func TestUnprivilegedDeniedEverywhere(t *testing.T) {
	h := newHarness()
	for _, cb := range []string{CbAddResource, CbAdminPanel, CbOwnerPanel, CbAddAdmin, CbAddOwner, CbDelOwner} {
		resp := h.press(t, "eve", cb)
		if resp == nil || resp.Text != msgDeniedShort {
			t.Errorf("eve %s = %+v, want denial", cb, resp)
		}
	}
	if resp := h.cmd(t, "eve", CmdSearch, "Heat"); resp.Text != msgDeniedShort {
		t.Errorf("eve search = %q, want denial", resp.Text)
	}
	if h.m.InProgress("eve") {
		t.Fatal("denied trigger created a session")
	}
}

func TestAdminCannotManageOwners(t *testing.T) {
	h := newHarness()
	for _, cb := range []string{CbOwnerPanel, CbAddOwner, CbDelOwner} {
		if resp := h.press(t, "adam", cb); resp.Text != msgDeniedShort {
			t.Errorf("adam %s = %q, want denial", cb, resp.Text)
		}
	}
	if resp := h.press(t, "adam", CbAddAdmin); resp.Text != msgAskAdmin {
		t.Errorf("adam add_admin = %q, want prompt", resp.Text)
	}
}

func TestRegisterThenSearch(t *testing.T) {
	h := newHarness()

	if resp := h.press(t, "adam", CbAddResource); resp.Text != msgAskNames || !resp.Edit {
		t.Fatalf("add_resource = %+v", resp)
	}
	if resp := h.say(t, "adam", "A, B"); resp.Text != msgAskLink {
		t.Fatalf("names reply = %q", resp.Text)
	}
	if resp := h.say(t, "adam", "L"); !strings.Contains(resp.Text, "2 resources saved") {
		t.Fatalf("link reply = %q", resp.Text)
	}

	for _, name := range []string{"A", "B"} {
		if resp := h.cmd(t, "olga", CmdSearch, name); resp.Text != "L" {
			t.Errorf("search %s = %q, want L", name, resp.Text)
		}
	}
	if resp := h.cmd(t, "olga", CmdSearch, "C"); resp.Text != msgNothingFound {
		t.Errorf("search C = %q, want not found", resp.Text)
	}
	if resp := h.cmd(t, "olga", CmdSearch, "   "); resp.Text != msgSearchUsage {
		t.Errorf("empty search = %q, want usage", resp.Text)
	}
}

func TestSearchJoinsArguments(t *testing.T) {
	h := newHarness()
	_ = h.dir.Put(context.Background(), "The Thing", "http://thing")
	if resp := h.cmd(t, primary, CmdSearch, "  The   Thing "); resp.Text != "http://thing" {
		t.Fatalf("search = %q", resp.Text)
	}
}

func TestOwnerFlowsThroughDispatcher(t *testing.T) {
	h := newHarness()

	h.press(t, primary, CbAddOwner)
	if resp := h.say(t, primary, "@zoe"); resp.Text != msgOwnerAdded("@zoe") {
		t.Fatalf("add owner reply = %q", resp.Text)
	}

	h.press(t, "zoe", CbDelOwner)
	if resp := h.say(t, "zoe", "root"); resp.Text != msgImmutable {
		t.Fatalf("remove primary reply = %q", resp.Text)
	}

	h.press(t, "zoe", CbDelOwner)
	if resp := h.say(t, "zoe", "ghost"); resp.Text != msgOwnerNotFound {
		t.Fatalf("remove unknown reply = %q", resp.Text)
	}

	h.press(t, "zoe", CbDelOwner)
	if resp := h.say(t, "zoe", "olga"); resp.Text != msgOwnerRemoved("@olga") {
		t.Fatalf("remove olga reply = %q", resp.Text)
	}
	if r, _ := h.roles.Role(context.Background(), "olga"); r != roles.RoleNone {
		t.Fatalf("olga role = %v after removal", r)
	}
}

func TestTextWithoutFlowIsSilent(t *testing.T) {
	h := newHarness()
	if resp := h.say(t, "adam", "hello"); resp != nil {
		t.Fatalf("idle text reply = %+v, want nil", resp)
	}
	if resp := h.say(t, "eve", "hello"); resp != nil {
		t.Fatalf("stranger text reply = %+v, want nil", resp)
	}
}

func TestTextOutsidePrivateChatIgnored(t *testing.T) {
	h := newHarness()
	h.press(t, "adam", CbAddAdmin)
	resp := h.do(t, Trigger{Kind: KindText, Identifier: "adam", Text: "alice"})
	if resp != nil {
		t.Fatalf("group text reply = %+v", resp)
	}
	if r, _ := h.roles.Role(context.Background(), "alice"); r != roles.RoleNone {
		t.Fatal("group text advanced the flow")
	}
}

func TestPanels(t *testing.T) {
	h := newHarness()
	_ = h.roles.SetRole(context.Background(), "john_doe", roles.RoleAdmin)

	resp := h.press(t, primary, CbAdminPanel)
	if !resp.Markdown || !strings.Contains(resp.Text, `@john\_doe`) || !strings.Contains(resp.Text, "@adam") {
		t.Fatalf("admin panel = %q", resp.Text)
	}
	if got := strings.Join(actions(resp), ","); got != CbAddAdmin+","+CbBack {
		t.Fatalf("admin panel menu = %s", got)
	}

	resp = h.press(t, primary, CbOwnerPanel)
	if !strings.Contains(resp.Text, "@root (primary owner)") || !strings.Contains(resp.Text, "@olga") {
		t.Fatalf("owner panel = %q", resp.Text)
	}

	empty := New(access.NewPolicy(primary, roles.NewMemoryStore(nil)), roles.NewMemoryStore(nil), directory.NewMemoryStore(nil), h.m)
	resp, _ = empty.Dispatch(context.Background(), Trigger{Kind: KindCallback, Identifier: primary, Action: CbAdminPanel})
	if !strings.Contains(resp.Text, "no admins yet") {
		t.Fatalf("empty admin panel = %q", resp.Text)
	}
}

func TestBackAndCancel(t *testing.T) {
	h := newHarness()

	if resp := h.press(t, "adam", CbBack); resp.Text != msgAdminMenu || !resp.Edit {
		t.Fatalf("back = %+v", resp)
	}

	h.press(t, "adam", CbAddResource)
	if resp := h.press(t, "adam", CbCancel); resp.Text != msgCancelled {
		t.Fatalf("cancel = %q", resp.Text)
	}
	if h.m.InProgress("adam") {
		t.Fatal("flow active after cancel")
	}
	if resp := h.cmd(t, "adam", CmdCancel, ""); resp.Text != msgNothingActive {
		t.Fatalf("second cancel = %q", resp.Text)
	}
}

func TestRepromptKeepsState(t *testing.T) {
	h := newHarness()
	h.press(t, "adam", CbAddResource)
	if resp := h.say(t, "adam", ", ,"); resp.Text != msgAskNamesAgain {
		t.Fatalf("empty names reply = %q", resp.Text)
	}
	if got := h.m.State("adam"); got != flow.StateAwaitingResourceNames {
		t.Fatalf("state = %q", got)
	}
}

type brokenRoles struct{ roles.Store }

func (brokenRoles) Role(context.Context, roles.Identifier) (roles.Role, error) {
	return roles.RoleNone, errors.New("io error")
}

func TestStoreFailureReturnsGenericReply(t *testing.T) {
	rs := brokenRoles{}
	policy := access.NewPolicy(primary, rs)
	dir := directory.NewMemoryStore(nil)
	d := New(policy, rs, dir, flow.NewMachine(nil, policy, rs, dir))

	resp, err := d.Dispatch(context.Background(), Trigger{Kind: KindCommand, Identifier: "adam", Private: true, Action: CmdStart})
	if err == nil {
		t.Fatal("expected error to be surfaced for logging")
	}
	if resp == nil || resp.Text != msgInternal {
		t.Fatalf("resp = %+v, want generic failure text", resp)
	}
}
