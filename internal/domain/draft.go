package domain

// DraftKind selects how a parsed Markdown element is uploaded.
type DraftKind int

const (
	// DraftBlock is a ready-to-create block, batched with its neighbors.
	DraftBlock DraftKind = iota
	// DraftQuote becomes a callout container plus a child text block,
	// created in two phases.
	DraftQuote
	// DraftTable becomes one or more table grids with per-cell child
	// blocks.
	DraftTable
)

// Draft is one parsed Markdown element awaiting upload. Plain drafts
// carry the wire block directly; quotes and tables carry the raw
// material their multi-phase creation needs.
type Draft struct {
	Kind  DraftKind
	Block *Block
	Quote string
	Table *TableDraft
}

// TableDraft is a parsed pipe table. Raw keeps the original Markdown
// text so a failed grid creation can fall back to a code block.
type TableDraft struct {
	Header       []string
	Rows         [][]string
	ColumnWidths []int
	Raw          string
}

// BlockDraft wraps a block for batched upload.
func BlockDraft(b *Block) Draft { return Draft{Kind: DraftBlock, Block: b} }

// QuoteDraft wraps quote text for two-phase callout upload.
func QuoteDraft(text string) Draft { return Draft{Kind: DraftQuote, Quote: text} }
