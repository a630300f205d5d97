package markdown

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"larkmd/internal/domain"
)

// TitleMode controls what happens to the document's first top-level
// heading.
type TitleMode int

const (
	// TitleReplace captures the first `# ` line as the document title
	// instead of emitting a draft; the caller patches the page block.
	TitleReplace TitleMode = iota
	// TitleAsHeading keeps the first `# ` line as a level-1 heading
	// draft, for appends that must not retitle the document.
	TitleAsHeading
)

// Document is a parse result: the captured title, when one was seen,
// plus the ordered drafts to upload.
type Document struct {
	Title    string
	HasTitle bool
	Drafts   []domain.Draft
}

var (
	titleRe    = regexp.MustCompile(`^#\s+(.+)`)
	headingRe  = regexp.MustCompile(`^(#{1,9})\s+(.*)`)
	ruleDashRe = regexp.MustCompile(`^-{3,}$`)
	ruleStarRe = regexp.MustCompile(`^\*{3,}$`)
	todoRe     = regexp.MustCompile(`^-\s*\[([ xX])\]\s*(.*)`)
	bulletRe   = regexp.MustCompile(`^[-*+]\s+`)
	orderedRe  = regexp.MustCompile(`^\d+\.\s+(.*)`)
	tableSepRe = regexp.MustCompile(`^\s*\|[\s\-:|]+\|?\s*$`)
)

// dividerRule is what a horizontal rule uploads as: the block API has
// no divider creation, so a text block stands in for one.
const dividerRule = "───────────────────"

// Parse tokenizes a Markdown document line by line into upload drafts.
// Recognition order per line: title, fenced code, blank, rule, heading,
// todo, bullet, ordered item, quote run, pipe table, paragraph. List
// nesting is flattened to a single depth.
func Parse(text string, mode TitleMode) *Document {
	doc := &Document{}
	lines := strings.Split(text, "\n")
	i := 0

	for i < len(lines) {
		line := lines[i]

		// The first top-level `# ` heading names the document.
		if !doc.HasTitle && !strings.HasPrefix(line, "##") {
			if m := titleRe.FindStringSubmatch(line); m != nil {
				doc.Title = m[1]
				doc.HasTitle = true
				if mode == TitleAsHeading {
					doc.Drafts = append(doc.Drafts, domain.BlockDraft(domain.NewHeadingBlock(1, m[1])))
				}
				i++
				continue
			}
		}

		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			lang := strings.TrimSpace(trimmed[3:])
			var code []string
			i++
			for i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
				code = append(code, lines[i])
				i++
			}
			i++ // closing fence
			codeText := strings.Join(code, "\n")
			if lang == "" {
				lang = DetectLanguage(codeText)
			}
			doc.Drafts = append(doc.Drafts, domain.BlockDraft(
				domain.NewCodeBlock(domain.PlainElements(codeText), LanguageCode(lang))))
			continue
		}

		if trimmed == "" {
			i++
			continue
		}

		if ruleDashRe.MatchString(trimmed) || ruleStarRe.MatchString(trimmed) {
			doc.Drafts = append(doc.Drafts, domain.BlockDraft(
				domain.NewTextBlock(ParseInline(dividerRule))))
			i++
			continue
		}

		if m := headingRe.FindStringSubmatch(line); m != nil {
			doc.Drafts = append(doc.Drafts, domain.BlockDraft(
				domain.NewHeadingBlock(len(m[1]), m[2])))
			i++
			continue
		}

		// List items and quotes may be indented; match on the
		// unindented rest of the line.
		stripped := strings.TrimLeftFunc(line, unicode.IsSpace)

		if m := todoRe.FindStringSubmatch(stripped); m != nil {
			done := strings.EqualFold(m[1], "x")
			doc.Drafts = append(doc.Drafts, domain.BlockDraft(
				domain.NewTodoBlock(ParseInline(m[2]), done)))
			i++
			continue
		}

		if bulletRe.MatchString(stripped) {
			rest := bulletRe.ReplaceAllString(stripped, "")
			doc.Drafts = append(doc.Drafts, domain.BlockDraft(
				domain.NewBulletBlock(ParseInline(rest))))
			i++
			continue
		}

		if m := orderedRe.FindStringSubmatch(stripped); m != nil {
			doc.Drafts = append(doc.Drafts, domain.BlockDraft(
				domain.NewOrderedBlock(ParseInline(m[1]))))
			i++
			continue
		}

		if isQuoteStart(stripped) {
			var quote []string
			for i < len(lines) {
				ql := strings.TrimLeftFunc(lines[i], unicode.IsSpace)
				if strings.HasPrefix(ql, "> ") {
					quote = append(quote, ql[2:])
				} else if strings.HasPrefix(ql, ">") {
					quote = append(quote, ql[1:])
				} else {
					break
				}
				i++
			}
			doc.Drafts = append(doc.Drafts, domain.QuoteDraft(strings.Join(quote, "\n")))
			continue
		}

		if strings.HasPrefix(stripped, "|") && i+1 < len(lines) && tableSepRe.MatchString(lines[i+1]) {
			var tableLines []string
			for i < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[i]), "|") {
				tableLines = append(tableLines, strings.TrimSpace(lines[i]))
				i++
			}
			if len(tableLines) >= 2 {
				header := splitRow(tableLines[0])
				rows := make([][]string, 0, len(tableLines)-2)
				for _, rl := range tableLines[2:] {
					rows = append(rows, splitRow(rl))
				}
				doc.Drafts = append(doc.Drafts, domain.Draft{
					Kind: domain.DraftTable,
					Table: &domain.TableDraft{
						Header:       header,
						Rows:         rows,
						ColumnWidths: columnWidths(header, rows),
						Raw:          strings.Join(tableLines, "\n"),
					},
				})
			}
			continue
		}

		doc.Drafts = append(doc.Drafts, domain.BlockDraft(
			domain.NewTextBlock(ParseInline(line))))
		i++
	}

	return doc
}

// NewTableDraft builds a table draft from pre-split cells, for rows
// that do not originate as Markdown text.
func NewTableDraft(header []string, rows [][]string) domain.Draft {
	return domain.Draft{
		Kind: domain.DraftTable,
		Table: &domain.TableDraft{
			Header:       header,
			Rows:         rows,
			ColumnWidths: columnWidths(header, rows),
			Raw:          FormatTable(header, rows),
		},
	}
}

func isQuoteStart(s string) bool {
	if strings.HasPrefix(s, "> ") || s == ">" {
		return true
	}
	return strings.HasPrefix(s, ">") && !strings.HasPrefix(s, ">>>")
}

// splitRow drops empty cells, so `| a |  | b |` collapses to two cells.
func splitRow(line string) []string {
	var cells []string
	for _, c := range strings.Split(line, "|") {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}

// columnWidths spreads 700 points across columns proportionally to
// their longest cell, with a floor of 100 points per column.
func columnWidths(header []string, rows [][]string) []int {
	cols := len(header)
	colMax := make([]int, cols)
	all := append([][]string{header}, rows...)
	for _, row := range all {
		for ci := 0; ci < len(row) && ci < cols; ci++ {
			if n := utf8.RuneCountInString(row[ci]); n > colMax[ci] {
				colMax[ci] = n
			}
		}
	}

	total := 0
	for _, n := range colMax {
		total += n
	}
	if total < 1 {
		total = 1
	}

	widths := make([]int, cols)
	for i, n := range colMax {
		w := 700 * n / total
		if w < 100 {
			w = 100
		}
		widths[i] = w
	}
	return widths
}
