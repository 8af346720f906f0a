package format

import "testing"

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		in      string
		version int
		entity  string
		want    string
	}{
		{"@john_doe", MarkdownV1, "", `@john\_doe`},
		{"a*b`c[d", MarkdownV1, "", "a\\*b\\`c\\[d"},
		{"plain", MarkdownV1, "", "plain"},
		{"v2.0 (beta)!", MarkdownV2, "", `v2\.0 \(beta\)\!`},
		{"a-b 1,2/3:4;5<6", MarkdownV2, "", `a\-b 1,2/3:4;5<6`},
		{"x+y=z", MarkdownV2, "", `x\+y\=z`},
		{"x_y", MarkdownV2, "code", "x_y"},
		{"a`b", MarkdownV2, "pre", "a\\`b"},
	}
	for _, tt := range tests {
		got, err := EscapeMarkdown(tt.in, tt.version, tt.entity)
		if err != nil {
			t.Fatalf("EscapeMarkdown(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("EscapeMarkdown(%q, v%d) = %q, want %q", tt.in, tt.version, got, tt.want)
		}
	}
	if _, err := EscapeMarkdown("x", 3, ""); err == nil {
		t.Fatal("expected error for unknown version")
	}
}
