package domain

import "strings"

// Tree indexes one document's full block set by id, preserving the
// order blocks were fetched in. Duplicate fetches of the same id merge
// idempotently: the latest payload wins, the first position is kept.
type Tree struct {
	order  []string
	blocks map[string]*Block
}

// NewTree builds a tree from the flat paginated block list.
func NewTree(items []*Block) *Tree {
	t := &Tree{blocks: make(map[string]*Block, len(items))}
	for _, b := range items {
		if b == nil || b.BlockID == "" {
			continue
		}
		if _, seen := t.blocks[b.BlockID]; !seen {
			t.order = append(t.order, b.BlockID)
		}
		t.blocks[b.BlockID] = b
	}
	return t
}

// Len reports the number of distinct blocks.
func (t *Tree) Len() int { return len(t.order) }

// Get returns the block with the given id, or nil.
func (t *Tree) Get(id string) *Block { return t.blocks[id] }

// Ordered returns the blocks in fetch order.
func (t *Tree) Ordered() []*Block {
	out := make([]*Block, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.blocks[id])
	}
	return out
}

// SkipSet returns the ids the generic render pass must suppress:
// table-cell subtrees and callout-child subtrees, which dedicated
// sub-renderers emit instead. Without this the content would appear
// twice in the output.
func (t *Tree) SkipSet() map[string]bool {
	skip := make(map[string]bool)
	for _, id := range t.order {
		b := t.blocks[id]
		switch {
		case b.IsTable():
			if b.Table == nil {
				continue
			}
			for _, cell := range b.Table.Cells {
				skip[cell] = true
				t.collectDescendants(cell, skip)
			}
		case b.BlockType == BlockTypeCallout:
			for _, child := range b.Children {
				skip[child] = true
				t.collectDescendants(child, skip)
			}
		}
	}
	return skip
}

// collectDescendants adds every transitive child of id to out. The out
// set doubles as the visited guard, so a cyclic child list terminates.
func (t *Tree) collectDescendants(id string, out map[string]bool) {
	b := t.blocks[id]
	if b == nil {
		return
	}
	for _, child := range b.Children {
		if out[child] {
			continue
		}
		out[child] = true
		t.collectDescendants(child, out)
	}
}

// ResolveText returns the block's own text if non-empty, otherwise the
// newline-joined resolved text of its children, depth-first in child
// order. Used for table cells and callout bodies, whose text lives in
// nested child blocks.
func (t *Tree) ResolveText(id string) string {
	return t.resolveText(id, make(map[string]bool))
}

func (t *Tree) resolveText(id string, visited map[string]bool) string {
	if visited[id] {
		return ""
	}
	visited[id] = true
	b := t.blocks[id]
	if b == nil {
		return ""
	}
	if text := strings.TrimSpace(b.PlainText()); text != "" {
		return text
	}
	var parts []string
	for _, child := range b.Children {
		if text := t.resolveText(child, visited); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}
