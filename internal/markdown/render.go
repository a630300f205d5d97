package markdown

import (
	"strings"

	"larkmd/internal/domain"
)

// Placeholders for block kinds whose content cannot round-trip through
// Markdown.
const (
	tablePlaceholder   = "[table]"
	imagePlaceholder   = "[image]"
	bitablePlaceholder = "[bitable]"
	gridPlaceholder    = "[grid]"
)

// RenderDocument converts a fetched block tree to Markdown: one
// fragment per block in fetch order, skipping subtrees that the table
// and callout sub-renderers already account for, joined with newlines.
func RenderDocument(tree *domain.Tree) string {
	skip := tree.SkipSet()
	var lines []string
	for _, b := range tree.Ordered() {
		if skip[b.BlockID] {
			continue
		}
		if frag, ok := renderBlock(b, tree); ok {
			lines = append(lines, frag)
		}
	}
	return strings.Join(lines, "\n")
}

// renderBlock maps one block to a Markdown fragment. ok is false when
// the block contributes nothing, not even a blank line.
func renderBlock(b *domain.Block, tree *domain.Tree) (string, bool) {
	switch {
	case b.BlockType == domain.BlockTypePage:
		return "# " + b.PlainText(), true
	case b.BlockType == domain.BlockTypeText:
		return b.PlainText(), true
	case b.HeadingLevel() > 0:
		return strings.Repeat("#", b.HeadingLevel()) + " " + b.PlainText(), true
	case b.BlockType == domain.BlockTypeBullet:
		return "- " + b.PlainText(), true
	case b.BlockType == domain.BlockTypeOrdered:
		// Renumbering is left to Markdown viewers.
		return "1. " + b.PlainText(), true
	case b.BlockType == domain.BlockTypeCode:
		lang := 0
		if b.Code != nil && b.Code.Style != nil {
			lang = b.Code.Style.Language
		}
		return "```" + LanguageName(lang) + "\n" + b.PlainText() + "\n```", true
	case b.BlockType == domain.BlockTypeQuote:
		return "> " + b.PlainText(), true
	case b.BlockType == domain.BlockTypeTodo:
		mark := " "
		if b.Todo != nil && b.Todo.Style != nil && b.Todo.Style.Done {
			mark = "x"
		}
		return "- [" + mark + "] " + b.PlainText(), true
	case b.BlockType == domain.BlockTypeDivider:
		return "---", true
	case b.BlockType == domain.BlockTypeImage:
		return imagePlaceholder, true
	case b.IsTable():
		return renderTable(b, tree), true
	case b.BlockType == domain.BlockTypeBitable:
		return bitablePlaceholder, true
	case b.BlockType == domain.BlockTypeGrid:
		return gridPlaceholder, true
	case b.BlockType == domain.BlockTypeCallout:
		return renderCallout(b, tree)
	default:
		if text := b.PlainText(); text != "" {
			return text, true
		}
		return "", false
	}
}

// renderTable resolves each cell's text and lays out a pipe table. The
// first grid row is the header. Missing geometry or an empty cell list
// renders as a placeholder.
func renderTable(b *domain.Block, tree *domain.Tree) string {
	if b.Table == nil || b.Table.Property == nil {
		return tablePlaceholder
	}
	rows := b.Table.Property.RowSize
	cols := b.Table.Property.ColumnSize
	cells := b.Table.Cells
	if rows <= 0 || cols <= 0 || len(cells) == 0 {
		return tablePlaceholder
	}

	// Clamp to the rows the cell list can fill, rounding up so a
	// partial final row still renders with its missing cells empty.
	rowCount := (len(cells) + cols - 1) / cols
	if rowCount < 1 {
		rowCount = 1
	}
	if rowCount > rows {
		rowCount = rows
	}

	matrix := make([][]string, rowCount)
	for r := range matrix {
		matrix[r] = make([]string, cols)
	}
	total := rowCount * cols
	if total > len(cells) {
		total = len(cells)
	}
	for idx := 0; idx < total; idx++ {
		text := strings.TrimSpace(tree.ResolveText(cells[idx]))
		text = strings.ReplaceAll(text, "\n", "<br>")
		text = strings.ReplaceAll(text, "|", "\\|")
		matrix[idx/cols][idx%cols] = text
	}

	sep := make([]string, cols)
	for i := range sep {
		sep[i] = "---"
	}
	lines := []string{
		"| " + strings.Join(matrix[0], " | ") + " |",
		"| " + strings.Join(sep, " | ") + " |",
	}
	for _, row := range matrix[1:] {
		lines = append(lines, "| "+strings.Join(row, " | ")+" |")
	}
	return strings.Join(lines, "\n")
}

// renderCallout prefers child text over payload elements so the same
// text is not emitted twice. Empty callouts contribute nothing.
func renderCallout(b *domain.Block, tree *domain.Tree) (string, bool) {
	var texts []string
	if len(b.Children) > 0 {
		for _, child := range b.Children {
			if text := strings.TrimSpace(tree.ResolveText(child)); text != "" {
				texts = append(texts, text)
			}
		}
	} else if b.Callout != nil && len(b.Callout.Elements) > 0 {
		if direct := strings.TrimSpace(domain.ExtractText(b.Callout.Elements)); direct != "" {
			texts = append(texts, direct)
		}
	}
	if len(texts) == 0 {
		return "", false
	}

	var lines []string
	for _, ln := range strings.Split(strings.Join(texts, "\n"), "\n") {
		if ln == "" {
			lines = append(lines, ">")
		} else {
			lines = append(lines, "> "+ln)
		}
	}
	return strings.Join(lines, "\n"), true
}

// FormatTable lays out pre-split cells as Markdown pipe-table text, for
// content that does not originate as Markdown.
func FormatTable(header []string, rows [][]string) string {
	row := func(cells []string) string { return "| " + strings.Join(cells, " | ") + " |" }
	escape := func(s string) string {
		s = strings.ReplaceAll(s, "\n", "<br>")
		return strings.ReplaceAll(s, "|", "\\|")
	}

	head := make([]string, len(header))
	for i, h := range header {
		head[i] = escape(h)
	}
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	lines := []string{row(head), row(sep)}
	for _, r := range rows {
		cells := make([]string, len(header))
		for i := 0; i < len(header) && i < len(r); i++ {
			cells[i] = escape(r[i])
		}
		lines = append(lines, row(cells))
	}
	return strings.Join(lines, "\n")
}
