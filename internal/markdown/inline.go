package markdown

import (
	"regexp"
	"strings"

	"larkmd/internal/domain"
)

// inlinePattern matches the supported markers in priority order: bold,
// inline code, strikethrough, link. Markers do not nest; the leftmost
// match wins and scanning resumes after it.
var inlinePattern = regexp.MustCompile(
	`(\*\*(.+?)\*\*)` +
		"|(`([^`]+)`)" +
		`|(~~(.+?)~~)` +
		`|(\[([^\]]+)\]\(([^)]+)\))`)

// ParseInline splits a Markdown line into styled runs. It never fails:
// unrecognized syntax passes through as plain text, and empty input
// yields a single space run.
func ParseInline(text string) []domain.TextElement {
	if text == "" {
		return domain.PlainElements("")
	}

	var els []domain.TextElement
	pos := 0
	for _, m := range inlinePattern.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > pos {
			els = append(els, plainRun(text[pos:m[0]]))
		}
		switch {
		case m[4] >= 0: // bold content
			els = append(els, styledRun(text[m[4]:m[5]], &domain.RunStyle{Bold: true}))
		case m[8] >= 0: // inline code content
			els = append(els, styledRun(text[m[8]:m[9]], &domain.RunStyle{InlineCode: true}))
		case m[12] >= 0: // strikethrough content
			els = append(els, styledRun(text[m[12]:m[13]], &domain.RunStyle{Strikethrough: true}))
		case m[16] >= 0: // link label and target
			label, url := text[m[16]:m[17]], text[m[18]:m[19]]
			if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
				els = append(els, styledRun(label, &domain.RunStyle{Link: &domain.Link{URL: url}}))
			} else {
				// The link style requires an absolute URL; keep the
				// literal Markdown instead.
				els = append(els, plainRun("["+label+"]("+url+")"))
			}
		}
		pos = m[1]
	}
	if pos < len(text) {
		els = append(els, plainRun(text[pos:]))
	}
	if len(els) == 0 {
		return domain.PlainElements("")
	}
	return els
}

func plainRun(text string) domain.TextElement {
	return domain.TextElement{TextRun: &domain.TextRun{Content: text}}
}

func styledRun(text string, style *domain.RunStyle) domain.TextElement {
	return domain.TextElement{TextRun: &domain.TextRun{Content: text, Style: style}}
}
