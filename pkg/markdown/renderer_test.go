package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_HeadingListParagraph(t *testing.T) {
	got := Render("# Title\n- item one\n- item two\n\nEnd.")

	assert.Equal(t, "<h1>Title</h1><ul><li>item one</li><li>item two</li></ul><p>End.</p>", got)
	assert.NotContains(t, got, "<br>")
}

func TestRender_EscapesMetacharacters(t *testing.T) {
	got := Render("Run <script>alert('x')</script> & enjoy")

	assert.NotContains(t, got, "<script>")
	assert.Contains(t, got, "&lt;script&gt;")
	assert.Contains(t, got, "&amp;")
}

func TestRender_HeadingLevels(t *testing.T) {
	got := Render("# One\n## Two\n### Three\n#### Four")

	assert.Contains(t, got, "<h1>One</h1>")
	assert.Contains(t, got, "<h2>Two</h2>")
	assert.Contains(t, got, "<h3>Three</h3>")
	assert.Contains(t, got, "<h4>Four</h4>")
}

func TestRender_OrderedAndUnorderedGrouping(t *testing.T) {
	got := Render("- a\n- b\n1. first\n2. second")

	assert.Equal(t, "<ul><li>a</li><li>b</li></ul><ol><li>first</li><li>second</li></ol>", got)
}

func TestRender_ListClosedByParagraph(t *testing.T) {
	got := Render("- a\nmiddle\n- b")

	assert.Equal(t, "<ul><li>a</li></ul><p>middle</p><ul><li>b</li></ul>", got)
}

func TestRender_InlineFormatting(t *testing.T) {
	assert.Equal(t, "<p><strong>bold</strong> and <em>italic</em></p>", Render("**bold** and *italic*"))
	assert.Equal(t, "<p><strong>u-bold</strong></p>", Render("__u-bold__"))
	assert.Equal(t, "<p>see <code>x == 1</code></p>", Render("see `x == 1`"))
}

func TestRender_BoldBeforeItalic(t *testing.T) {
	// Double markers must not be half-consumed by the italic rule
	got := Render("**whole bold**")
	assert.Equal(t, "<p><strong>whole bold</strong></p>", got)
	assert.NotContains(t, got, "<em>")
}

func TestRender_FencedCode(t *testing.T) {
	got := Render("```go\nif a < b {\n\treturn\n}\n```")

	assert.Contains(t, got, "<pre><code>")
	assert.Contains(t, got, "if a &lt; b {")
	// Inline rules do not touch code contents
	assert.NotContains(t, got, "<em>")
}

func TestRender_UnterminatedFenceClosesAtEOF(t *testing.T) {
	got := Render("```\ndangling")

	assert.Equal(t, "<pre><code>dangling</code></pre>", got)
}

func TestRender_CodeContentExemptFromInline(t *testing.T) {
	got := Render("```\n**not bold**\n```")

	assert.Contains(t, got, "**not bold**")
	assert.NotContains(t, got, "<strong>")
}

func TestRender_HorizontalRuleAndBlockquote(t *testing.T) {
	got := Render("above\n---\n> quoted words")

	assert.Contains(t, got, "<hr>")
	assert.Contains(t, got, "<blockquote>quoted words</blockquote>")
}

func TestRender_BlankLinesBetweenParagraphs(t *testing.T) {
	got := Render("first\n\nsecond")

	assert.Equal(t, "<p>first</p><br><p>second</p>", got)
}

func TestRender_NoBreakAdjacentToBlocks(t *testing.T) {
	got := Render("# Head\n\ntext\n\n- item\n\ntail")

	assert.NotContains(t, got, "</h1><br>")
	assert.NotContains(t, got, "<br><ul>")
	assert.NotContains(t, got, "</ul><br>")
}

func TestRender_Idempotent(t *testing.T) {
	raw := "## Findings\n\n- **Sarah Chen** was *present*\n- see `log.txt`\n\n> direct quote\n\nDone."

	first := Render(raw)
	second := Render(raw)
	assert.Equal(t, first, second)
}

func TestRender_PartialBufferSelfCorrects(t *testing.T) {
	// Streaming re-renders the accumulated buffer; a half-finished bold
	// marker stays literal until its closing marker arrives.
	partial := Render("answer is **imp")
	assert.NotContains(t, partial, "<strong>")

	full := Render("answer is **important**")
	assert.Contains(t, full, "<strong>important</strong>")
}

func TestRender_MultipleBlankLinesCollapse(t *testing.T) {
	got := Render("one\n\n\n\ntwo")

	assert.Equal(t, 1, strings.Count(got, "<br>"))
}
