package domain

import (
	"encoding/json"
	"testing"
)

func TestUnmarshalTypedPayloads(t *testing.T) {
	raw := `{
		"block_id": "b1",
		"block_type": 14,
		"code": {
			"elements": [{"text_run": {"content": "SELECT 1"}}],
			"style": {"language": 55}
		}
	}`
	var b Block
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if b.BlockType != BlockTypeCode {
		t.Fatalf("block type = %d, want %d", b.BlockType, BlockTypeCode)
	}
	if b.Code == nil || b.Code.Style == nil || b.Code.Style.Language != 55 {
		t.Fatalf("code style not decoded: %+v", b.Code)
	}
	if got := b.PlainText(); got != "SELECT 1" {
		t.Errorf("text = %q, want %q", got, "SELECT 1")
	}
}

func TestUnmarshalQuotePrefersContainerPayload(t *testing.T) {
	raw := `{
		"block_id": "q1",
		"block_type": 15,
		"quote_container": {"elements": [{"text_run": {"content": "wise words"}}]}
	}`
	var b Block
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := b.PlainText(); got != "wise words" {
		t.Errorf("text = %q, want %q", got, "wise words")
	}
}

func TestUnmarshalUnknownTypeFindsTextPayload(t *testing.T) {
	raw := `{
		"block_id": "u1",
		"block_type": 99,
		"children": ["c1"],
		"mystery": {"elements": [{"text_run": {"content": "still here"}}]}
	}`
	var b Block
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := b.PlainText(); got != "still here" {
		t.Errorf("fallback text = %q, want %q", got, "still here")
	}
}

func TestUnmarshalUnknownTypeWithoutText(t *testing.T) {
	raw := `{"block_id": "u2", "block_type": 40, "weird": {"flag": true}}`
	var b Block
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := b.Elements(); got != nil {
		t.Errorf("elements = %v, want nil", got)
	}
}

func TestExtractTextIncludesMentions(t *testing.T) {
	els := []TextElement{
		{TextRun: &TextRun{Content: "see "}},
		{MentionDoc: &Mention{Content: "Design Notes"}},
		{TextRun: &TextRun{Content: " by "}},
		{MentionUser: &Mention{Content: "@ana"}},
	}
	if got := ExtractText(els); got != "see Design Notes by @ana" {
		t.Errorf("got %q", got)
	}
}

func TestPlainElementsEmptyBecomesSpace(t *testing.T) {
	els := PlainElements("")
	if len(els) != 1 || els[0].TextRun == nil {
		t.Fatalf("unexpected elements: %+v", els)
	}
	if els[0].TextRun.Content != " " {
		t.Errorf("content = %q, want single space", els[0].TextRun.Content)
	}
}

func TestIsTable(t *testing.T) {
	cases := []struct {
		name string
		b    Block
		want bool
	}{
		{"table kind", Block{BlockType: BlockTypeTable}, true},
		{"grid with table payload", Block{BlockType: BlockTypeGrid, Table: &TablePayload{}}, true},
		{"bare grid", Block{BlockType: BlockTypeGrid}, false},
		{"text", Block{BlockType: BlockTypeText}, false},
	}
	for _, tc := range cases {
		if got := tc.b.IsTable(); got != tc.want {
			t.Errorf("%s: IsTable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestHeadingLevel(t *testing.T) {
	if got := (&Block{BlockType: BlockTypeHeading3}).HeadingLevel(); got != 3 {
		t.Errorf("heading3 level = %d", got)
	}
	if got := (&Block{BlockType: BlockTypeText}).HeadingLevel(); got != 0 {
		t.Errorf("text level = %d", got)
	}
}

func TestNewHeadingBlockClampsDepth(t *testing.T) {
	b := NewHeadingBlock(12, "deep")
	if b.BlockType != BlockTypeHeading9 {
		t.Fatalf("block type = %d, want heading9", b.BlockType)
	}
	els := b.Elements()
	if len(els) != 1 || els[0].TextRun == nil || els[0].TextRun.Style == nil || !els[0].TextRun.Style.Bold {
		t.Errorf("heading run should be a single bold run: %+v", els)
	}
}

func TestNewTodoBlockDoneStyle(t *testing.T) {
	done := NewTodoBlock(PlainElements("ship it"), true)
	if done.Todo == nil || done.Todo.Style == nil || !done.Todo.Style.Done {
		t.Errorf("done todo missing style: %+v", done.Todo)
	}
	open := NewTodoBlock(PlainElements("later"), false)
	if open.Todo.Style != nil {
		t.Errorf("open todo should omit style, got %+v", open.Todo.Style)
	}
}

func TestBlockMarshalOmitsEmptyPayloads(t *testing.T) {
	b := NewTextBlock(PlainElements("hi"))
	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if _, ok := m["code"]; ok {
		t.Errorf("unexpected code payload in %s", data)
	}
	if _, ok := m["text"]; !ok {
		t.Errorf("missing text payload in %s", data)
	}
}

func TestParseDocURL(t *testing.T) {
	ref, err := ParseDocURL("https://acme.feishu.cn/docx/AbCd1234-_xyz?from=share")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ref.Kind != "docx" || ref.Token != "AbCd1234-_xyz" {
		t.Errorf("ref = %+v", ref)
	}

	ref, err = ParseDocURL("acme.feishu.cn/wiki/Tok123")
	if err != nil {
		t.Fatalf("parse without scheme: %v", err)
	}
	if ref.Kind != "wiki" || ref.Token != "Tok123" {
		t.Errorf("ref = %+v", ref)
	}

	if _, err := ParseDocURL("not a url"); err == nil {
		t.Error("expected error for junk input")
	}
	if _, err := ParseDocURL(""); err == nil {
		t.Error("expected error for empty input")
	}
}
