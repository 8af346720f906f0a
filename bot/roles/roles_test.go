package roles

import (
	"context"
	"testing"
)

func TestNormalizeIdentifier(t *testing.T) {
	cases := map[string]Identifier{
		"alice":      "alice",
		"@alice":     "alice",
		"  @Alice  ": "Alice",
		"@@bob":      "bob",
		"":           "",
	}
	for in, want := range cases {
		if got := NormalizeIdentifier(in); got != want {
			t.Errorf("NormalizeIdentifier(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseRoleRoundTrip(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleOwner} {
		got, err := ParseRole(r.String())
		if err != nil || got != r {
			t.Fatalf("ParseRole(%q) = %v, %v", r.String(), got, err)
		}
	}
	if _, err := ParseRole("superuser"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestGrants(t *testing.T) {
	tests := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleNone, CapLookup, false},
		{RoleNone, CapOwnerPanel, false},
		{RoleAdmin, CapLookup, true},
		{RoleAdmin, CapRegisterResource, true},
		{RoleAdmin, CapAdminPanel, true},
		{RoleAdmin, CapAddAdmin, true},
		{RoleAdmin, CapOwnerPanel, false},
		{RoleAdmin, CapAddOwner, false},
		{RoleAdmin, CapRemoveOwner, false},
		{RoleOwner, CapAddAdmin, true},
		{RoleOwner, CapRemoveOwner, true},
		{RoleOwner, Capability("unknown"), false},
	}
	for _, tt := range tests {
		if got := tt.role.Grants(tt.cap); got != tt.want {
			t.Errorf("%s.Grants(%s) = %v, want %v", tt.role, tt.cap, got, tt.want)
		}
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(map[Identifier]Role{"carol": RoleOwner})

	if err := s.SetRole(ctx, "bob", RoleAdmin); err != nil {
		t.Fatal(err)
	}
	if err := s.SetRole(ctx, "alice", RoleAdmin); err != nil {
		t.Fatal(err)
	}
	admins, _ := s.ListByRole(ctx, RoleAdmin)
	if len(admins) != 2 || admins[0] != "alice" || admins[1] != "bob" {
		t.Fatalf("ListByRole(admin) = %v", admins)
	}

	// upsert replaces the previous role
	if err := s.SetRole(ctx, "bob", RoleOwner); err != nil {
		t.Fatal(err)
	}
	if r, _ := s.Role(ctx, "bob"); r != RoleOwner {
		t.Fatalf("Role(bob) = %v, want owner", r)
	}

	if err := s.DeleteRole(ctx, "nobody"); err != nil {
		t.Fatalf("DeleteRole(absent) error = %v", err)
	}
	if err := s.DeleteRole(ctx, "carol"); err != nil {
		t.Fatal(err)
	}
	if r, _ := s.Role(ctx, "carol"); r != RoleNone {
		t.Fatalf("Role(carol) = %v after delete", r)
	}
}
