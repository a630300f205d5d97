package markdown

import (
	"testing"

	"larkmd/internal/domain"
)

func runContent(t *testing.T, el domain.TextElement) string {
	t.Helper()
	if el.TextRun == nil {
		t.Fatalf("element has no text run: %+v", el)
	}
	return el.TextRun.Content
}

func TestParseInlinePlain(t *testing.T) {
	els := ParseInline("hello world")
	if len(els) != 1 {
		t.Fatalf("got %d elements, want 1", len(els))
	}
	if got := runContent(t, els[0]); got != "hello world" {
		t.Errorf("content = %q", got)
	}
	if els[0].TextRun.Style != nil {
		t.Errorf("unexpected style: %+v", els[0].TextRun.Style)
	}
}

func TestParseInlineMarkers(t *testing.T) {
	els := ParseInline("a **b** `c` ~~d~~ e")
	want := []string{"a ", "b", " ", "c", " ", "d", " e"}
	if len(els) != len(want) {
		t.Fatalf("got %d elements, want %d", len(els), len(want))
	}
	for i, w := range want {
		if got := runContent(t, els[i]); got != w {
			t.Errorf("run %d = %q, want %q", i, got, w)
		}
	}
	if s := els[1].TextRun.Style; s == nil || !s.Bold {
		t.Error("run 1 should be bold")
	}
	if s := els[3].TextRun.Style; s == nil || !s.InlineCode {
		t.Error("run 3 should be inline code")
	}
	if s := els[5].TextRun.Style; s == nil || !s.Strikethrough {
		t.Error("run 5 should be struck through")
	}
	for _, i := range []int{0, 2, 4, 6} {
		if els[i].TextRun.Style != nil {
			t.Errorf("gap run %d should be unstyled", i)
		}
	}
}

func TestParseInlineAbsoluteLink(t *testing.T) {
	els := ParseInline("[docs](https://example.com/a?b=c)")
	if len(els) != 1 {
		t.Fatalf("got %d elements, want 1", len(els))
	}
	run := els[0].TextRun
	if run.Content != "docs" {
		t.Errorf("content = %q", run.Content)
	}
	if run.Style == nil || run.Style.Link == nil || run.Style.Link.URL != "https://example.com/a?b=c" {
		t.Errorf("link style = %+v", run.Style)
	}
}

func TestParseInlineRelativeLinkStaysLiteral(t *testing.T) {
	els := ParseInline("see [here](/docs/intro) for more")
	want := []string{"see ", "[here](/docs/intro)", " for more"}
	if len(els) != len(want) {
		t.Fatalf("got %d elements, want %d", len(els), len(want))
	}
	for i, w := range want {
		if got := runContent(t, els[i]); got != w {
			t.Errorf("run %d = %q, want %q", i, got, w)
		}
	}
	if els[1].TextRun.Style != nil {
		t.Error("literal link must stay unstyled")
	}
}

func TestParseInlineEmptyBecomesSpace(t *testing.T) {
	els := ParseInline("")
	if len(els) != 1 || runContent(t, els[0]) != " " {
		t.Fatalf("want a single space run, got %d elements", len(els))
	}
}

func TestParseInlineAdjacentMarkersNoGapRuns(t *testing.T) {
	els := ParseInline("**a**`b`")
	if len(els) != 2 {
		t.Fatalf("got %d elements, want 2", len(els))
	}
	if got := runContent(t, els[0]); got != "a" {
		t.Errorf("run 0 = %q", got)
	}
	if got := runContent(t, els[1]); got != "b" {
		t.Errorf("run 1 = %q", got)
	}
}

func TestParseInlineUnclosedMarkersStayPlain(t *testing.T) {
	els := ParseInline("**open and ~~half")
	if len(els) != 1 || runContent(t, els[0]) != "**open and ~~half" {
		t.Fatalf("unclosed markers should pass through untouched, got %d elements", len(els))
	}
}
