package keyboard

import "testing"

func TestInline(t *testing.T) {
	if Inline() != nil || Inline(nil, []Button{}) != nil {
		t.Fatal("empty keyboard should be nil")
	}
	m := Inline(
		[]Button{{Text: "Add", Unique: "add_admin"}},
		nil,
		[]Button{{Text: "Back", Unique: "back"}, {Text: "Cancel", Unique: "cancel", Data: "x"}},
	)
	if len(m.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d, want 2", len(m.InlineKeyboard))
	}
	if got := m.InlineKeyboard[0][0].Unique; got != "add_admin" {
		t.Fatalf("unique = %q", got)
	}
	cancel := m.InlineKeyboard[1][1]
	if cancel.Text != "Cancel" || cancel.Data != "x" {
		t.Fatalf("cancel = %+v", cancel)
	}
}
