package domain

import (
	"encoding/json"
	"sort"
	"strings"
)

// BlockType is the numeric block kind used by the document API.
type BlockType int

const (
	BlockTypePage     BlockType = 1
	BlockTypeText     BlockType = 2
	BlockTypeHeading1 BlockType = 3
	BlockTypeHeading2 BlockType = 4
	BlockTypeHeading3 BlockType = 5
	BlockTypeHeading4 BlockType = 6
	BlockTypeHeading5 BlockType = 7
	BlockTypeHeading6 BlockType = 8
	BlockTypeHeading7 BlockType = 9
	BlockTypeHeading8 BlockType = 10
	BlockTypeHeading9 BlockType = 11
	BlockTypeBullet   BlockType = 12
	BlockTypeOrdered  BlockType = 13
	BlockTypeCode     BlockType = 14
	BlockTypeQuote    BlockType = 15
	BlockTypeTodo     BlockType = 17
	BlockTypeBitable  BlockType = 18
	BlockTypeCallout  BlockType = 19
	BlockTypeTable    BlockType = 22
	BlockTypeDivider  BlockType = 23
	BlockTypeImage    BlockType = 27
	BlockTypeGrid     BlockType = 31
)

// TextElement is one inline fragment of a text-bearing block: a styled
// text run, or a mention of a user or document.
type TextElement struct {
	TextRun     *TextRun `json:"text_run,omitempty"`
	MentionUser *Mention `json:"mention_user,omitempty"`
	MentionDoc  *Mention `json:"mention_doc,omitempty"`
}

// TextRun is a contiguous span of text sharing one style.
type TextRun struct {
	Content string    `json:"content"`
	Style   *RunStyle `json:"text_element_style,omitempty"`
}

// RunStyle carries the inline formatting flags of a run.
type RunStyle struct {
	Bold          bool  `json:"bold,omitempty"`
	Italic        bool  `json:"italic,omitempty"`
	Strikethrough bool  `json:"strikethrough,omitempty"`
	Underline     bool  `json:"underline,omitempty"`
	InlineCode    bool  `json:"inline_code,omitempty"`
	Link          *Link `json:"link,omitempty"`
}

// Link is the target of a hyperlinked run.
type Link struct {
	URL string `json:"url"`
}

// Mention references a user or another document inline. Content is the
// display text the mention contributes to plain-text extraction.
type Mention struct {
	Content string `json:"content,omitempty"`
	Token   string `json:"token,omitempty"`
}

// TextPayload is the common shape of every text-bearing block payload:
// a list of inline elements plus an optional per-block style.
type TextPayload struct {
	Elements []TextElement `json:"elements,omitempty"`
	Style    *BlockStyle   `json:"style,omitempty"`
}

// BlockStyle holds the style fields that vary by block kind; only the
// ones relevant to the kind are populated.
type BlockStyle struct {
	Language int  `json:"language,omitempty"`
	Done     bool `json:"done,omitempty"`
	Wrap     bool `json:"wrap,omitempty"`
}

// CalloutPayload configures a callout container. Some documents also
// carry inline elements directly on the payload.
type CalloutPayload struct {
	BackgroundColor int           `json:"background_color,omitempty"`
	BorderColor     int           `json:"border_color,omitempty"`
	TextColor       int           `json:"text_color,omitempty"`
	Elements        []TextElement `json:"elements,omitempty"`
}

// TablePayload describes a table grid. On read, Cells lists the cell
// block ids in row-major order.
type TablePayload struct {
	Cells    []string       `json:"cells,omitempty"`
	Property *TableProperty `json:"property,omitempty"`
}

// TableProperty is the table geometry.
type TableProperty struct {
	RowSize     int   `json:"row_size"`
	ColumnSize  int   `json:"column_size"`
	ColumnWidth []int `json:"column_width,omitempty"`
	HeaderRow   bool  `json:"header_row,omitempty"`
}

// Block is one node of a document tree, in the wire shape the API uses
// for both reads and child creation.
type Block struct {
	BlockID   string    `json:"block_id,omitempty"`
	ParentID  string    `json:"parent_id,omitempty"`
	BlockType BlockType `json:"block_type"`
	Children  []string  `json:"children,omitempty"`

	Page           *TextPayload    `json:"page,omitempty"`
	Text           *TextPayload    `json:"text,omitempty"`
	Heading1       *TextPayload    `json:"heading1,omitempty"`
	Heading2       *TextPayload    `json:"heading2,omitempty"`
	Heading3       *TextPayload    `json:"heading3,omitempty"`
	Heading4       *TextPayload    `json:"heading4,omitempty"`
	Heading5       *TextPayload    `json:"heading5,omitempty"`
	Heading6       *TextPayload    `json:"heading6,omitempty"`
	Heading7       *TextPayload    `json:"heading7,omitempty"`
	Heading8       *TextPayload    `json:"heading8,omitempty"`
	Heading9       *TextPayload    `json:"heading9,omitempty"`
	Bullet         *TextPayload    `json:"bullet,omitempty"`
	Ordered        *TextPayload    `json:"ordered,omitempty"`
	Code           *TextPayload    `json:"code,omitempty"`
	Quote          *TextPayload    `json:"quote,omitempty"`
	QuoteContainer *TextPayload    `json:"quote_container,omitempty"`
	Todo           *TextPayload    `json:"todo,omitempty"`
	Callout        *CalloutPayload `json:"callout,omitempty"`
	Table          *TablePayload   `json:"table,omitempty"`

	// extra holds a text payload found under an unrecognized key, so
	// blocks of unknown kinds still surface their text.
	extra *TextPayload
}

// knownKeys are the object keys UnmarshalJSON must not probe for a
// fallback text payload.
var knownKeys = map[string]bool{
	"block_id":    true,
	"block_type":  true,
	"parent_id":   true,
	"children":    true,
	"comment_ids": true,
	"revision_id": true,
}

// UnmarshalJSON decodes the typed fields and, for block kinds without a
// typed payload, probes the remaining keys (in sorted order, for
// determinism) for the first object carrying inline elements.
func (b *Block) UnmarshalJSON(data []byte) error {
	type alias Block
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*b = Block(a)
	if b.payload() != nil || b.Callout != nil || b.Table != nil {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if !knownKeys[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		var p TextPayload
		if json.Unmarshal(fields[k], &p) == nil && len(p.Elements) > 0 {
			b.extra = &p
			return nil
		}
	}
	return nil
}

// payload returns the text payload matching the block's declared kind,
// or nil when the kind has none.
func (b *Block) payload() *TextPayload {
	switch b.BlockType {
	case BlockTypePage:
		return b.Page
	case BlockTypeText:
		return b.Text
	case BlockTypeBullet:
		return b.Bullet
	case BlockTypeOrdered:
		return b.Ordered
	case BlockTypeCode:
		return b.Code
	case BlockTypeQuote:
		if b.QuoteContainer != nil {
			return b.QuoteContainer
		}
		return b.Quote
	case BlockTypeTodo:
		return b.Todo
	}
	if lvl := b.HeadingLevel(); lvl > 0 {
		return *b.headingSlot(lvl)
	}
	return nil
}

func (b *Block) headingSlot(level int) **TextPayload {
	switch level {
	case 1:
		return &b.Heading1
	case 2:
		return &b.Heading2
	case 3:
		return &b.Heading3
	case 4:
		return &b.Heading4
	case 5:
		return &b.Heading5
	case 6:
		return &b.Heading6
	case 7:
		return &b.Heading7
	case 8:
		return &b.Heading8
	case 9:
		return &b.Heading9
	}
	return nil
}

// HeadingLevel reports the heading depth 1..9, or 0 for non-headings.
func (b *Block) HeadingLevel() int {
	if b.BlockType >= BlockTypeHeading1 && b.BlockType <= BlockTypeHeading9 {
		return int(b.BlockType-BlockTypeHeading1) + 1
	}
	return 0
}

// IsTable reports whether the block is a table grid. Documents encode
// tables either as the table kind or as the grid kind carrying a table
// payload.
func (b *Block) IsTable() bool {
	if b.BlockType == BlockTypeTable {
		return true
	}
	return b.BlockType == BlockTypeGrid && b.Table != nil
}

// Elements returns the block's own inline elements, falling back to
// elements carried on a callout payload or under an unrecognized key.
func (b *Block) Elements() []TextElement {
	if p := b.payload(); p != nil {
		return p.Elements
	}
	if b.Callout != nil && len(b.Callout.Elements) > 0 {
		return b.Callout.Elements
	}
	if b.extra != nil {
		return b.extra.Elements
	}
	return nil
}

// PlainText concatenates the text of the block's own elements.
func (b *Block) PlainText() string {
	return ExtractText(b.Elements())
}

// ExtractText concatenates run contents and mention display text. When
// an element somehow carries both mention kinds, the user mention wins.
func ExtractText(els []TextElement) string {
	var sb strings.Builder
	for _, el := range els {
		if el.TextRun != nil {
			sb.WriteString(el.TextRun.Content)
		}
		switch {
		case el.MentionUser != nil:
			sb.WriteString(el.MentionUser.Content)
		case el.MentionDoc != nil:
			sb.WriteString(el.MentionDoc.Content)
		}
	}
	return sb.String()
}

// PlainElements wraps text in a single unstyled run. The API rejects
// empty element lists, so empty text becomes a single space.
func PlainElements(text string) []TextElement {
	if text == "" {
		text = " "
	}
	return []TextElement{{TextRun: &TextRun{Content: text}}}
}

// NewTextBlock builds a plain text block from inline elements.
func NewTextBlock(els []TextElement) *Block {
	return &Block{BlockType: BlockTypeText, Text: &TextPayload{Elements: els}}
}

// NewHeadingBlock builds a heading of the given depth. Headings carry a
// single bold run; inline markers inside heading text are not parsed.
func NewHeadingBlock(level int, text string) *Block {
	if level < 1 {
		level = 1
	}
	if level > 9 {
		level = 9
	}
	b := &Block{BlockType: BlockTypeHeading1 + BlockType(level-1)}
	*b.headingSlot(level) = &TextPayload{Elements: []TextElement{
		{TextRun: &TextRun{Content: text, Style: &RunStyle{Bold: true}}},
	}}
	return b
}

// NewBulletBlock builds an unordered list item.
func NewBulletBlock(els []TextElement) *Block {
	return &Block{BlockType: BlockTypeBullet, Bullet: &TextPayload{Elements: els}}
}

// NewOrderedBlock builds an ordered list item.
func NewOrderedBlock(els []TextElement) *Block {
	return &Block{BlockType: BlockTypeOrdered, Ordered: &TextPayload{Elements: els}}
}

// NewCodeBlock builds a code block with the remote language code.
func NewCodeBlock(els []TextElement, language int) *Block {
	return &Block{BlockType: BlockTypeCode, Code: &TextPayload{
		Elements: els,
		Style:    &BlockStyle{Language: language},
	}}
}

// NewTodoBlock builds a task item.
func NewTodoBlock(els []TextElement, done bool) *Block {
	p := &TextPayload{Elements: els}
	if done {
		p.Style = &BlockStyle{Done: true}
	}
	return &Block{BlockType: BlockTypeTodo, Todo: p}
}

// NewCalloutBlock builds an empty callout container. Its text lives in
// a child block created afterwards.
func NewCalloutBlock(background int) *Block {
	return &Block{BlockType: BlockTypeCallout, Callout: &CalloutPayload{BackgroundColor: background}}
}

// NewTableBlock builds a table skeleton with a header row. Cells are
// filled with child blocks after creation.
func NewTableBlock(rows, cols int, widths []int) *Block {
	return &Block{BlockType: BlockTypeGrid, Table: &TablePayload{
		Property: &TableProperty{
			RowSize:     rows,
			ColumnSize:  cols,
			ColumnWidth: widths,
			HeaderRow:   true,
		},
	}}
}
