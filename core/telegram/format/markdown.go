package format

import (
	"fmt"
	"regexp"
)

const (
	// MarkdownV1 denotes Telegram legacy markdown.
	MarkdownV1 = 1
	// MarkdownV2 denotes Telegram markdown version 2.
	MarkdownV2 = 2
)

// "-" is appended escaped in mdV2Re.
const mdV2Specials = "_*[]()~`>#+=|{}.!\\"

var (
	mdV1Re = regexp.MustCompile("[_*`\\[]")
	mdV2Re = regexp.MustCompile("[" + regexp.QuoteMeta(mdV2Specials) + `\-]`)
	// inside pre and code entities only ` and \ must be escaped
	mdV2CodeRe = regexp.MustCompile("[`\\\\]")
)

// EscapeMarkdown escapes special characters for MarkdownV1 or V2.
// For V2, entityType "pre" or "code" applies the reduced escape set.
func EscapeMarkdown(text string, version int, entityType string) (string, error) {
	switch version {
	case MarkdownV1:
		return mdV1Re.ReplaceAllString(text, `\$0`), nil
	case MarkdownV2:
		if entityType == "pre" || entityType == "code" {
			return mdV2CodeRe.ReplaceAllString(text, `\$0`), nil
		}
		return mdV2Re.ReplaceAllString(text, `\$0`), nil
	}
	return "", fmt.Errorf("unsupported markdown version: %d", version)
}
