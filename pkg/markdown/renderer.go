// Package markdown renders the constrained markdown dialect the answer
// synthesis produces into safely escaped HTML. Render is pure and
// idempotent over accumulated text, so streaming clients can re-render
// the full buffer on every chunk and incomplete trailing elements
// self-correct once the next chunk arrives.
package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

type blockKind int

const (
	kindHeading blockKind = iota
	kindRule
	kindList
	kindQuote
	kindParagraph
	kindBreak
	kindCode
)

// block is one tagged node of the flat document structure. Lists carry
// their items; everything else carries at most a text payload.
type block struct {
	kind    blockKind
	level   int // heading level 1..4
	ordered bool
	text    string
	items   []string
}

var (
	orderedItemRe = regexp.MustCompile(`^\d+\.\s+(.*)$`)
	ruleRe        = regexp.MustCompile(`^-{3,}$`)

	boldStarRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	boldUnderRe  = regexp.MustCompile(`__(.+?)__`)
	italStarRe   = regexp.MustCompile(`\*(.+?)\*`)
	italUnderRe  = regexp.MustCompile(`\b_(.+?)_\b`)
	inlineCodeRe = regexp.MustCompile("`([^`]+)`")
)

// Render converts raw answer text to escaped HTML markup.
func Render(raw string) string {
	blocks := parse(escape(raw))
	blocks = cleanup(blocks)

	var b strings.Builder
	for _, blk := range blocks {
		writeBlock(&b, blk)
	}
	return b.String()
}

// escape neutralizes the HTML metacharacters before any markup is
// introduced. Ampersand first so the entities themselves survive.
func escape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func parse(text string) []block {
	var blocks []block
	lines := strings.Split(text, "\n")

	inCode := false
	var codeLines []string

	flushCode := func() {
		blocks = append(blocks, block{kind: kindCode, text: strings.TrimSpace(strings.Join(codeLines, "\n"))})
		codeLines = nil
		inCode = false
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Fenced code swallows every other rule until the closing fence.
		if inCode {
			if strings.HasPrefix(trimmed, "```") {
				flushCode()
			} else {
				codeLines = append(codeLines, line)
			}
			continue
		}
		if strings.HasPrefix(trimmed, "```") {
			inCode = true
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "#### "):
			blocks = append(blocks, block{kind: kindHeading, level: 4, text: trimmed[5:]})
		case strings.HasPrefix(trimmed, "### "):
			blocks = append(blocks, block{kind: kindHeading, level: 3, text: trimmed[4:]})
		case strings.HasPrefix(trimmed, "## "):
			blocks = append(blocks, block{kind: kindHeading, level: 2, text: trimmed[3:]})
		case strings.HasPrefix(trimmed, "# "):
			blocks = append(blocks, block{kind: kindHeading, level: 1, text: trimmed[2:]})
		case ruleRe.MatchString(trimmed):
			blocks = append(blocks, block{kind: kindRule})
		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			blocks = appendListItem(blocks, false, trimmed[2:])
		case orderedItemRe.MatchString(trimmed):
			m := orderedItemRe.FindStringSubmatch(trimmed)
			blocks = appendListItem(blocks, true, m[1])
		case strings.HasPrefix(trimmed, "&gt; "):
			blocks = append(blocks, block{kind: kindQuote, text: strings.TrimPrefix(trimmed, "&gt; ")})
		case trimmed == "":
			blocks = append(blocks, block{kind: kindBreak})
		default:
			blocks = append(blocks, block{kind: kindParagraph, text: trimmed})
		}
	}

	// Unterminated fence at end of input closes implicitly.
	if inCode {
		flushCode()
	}
	return blocks
}

// appendListItem extends the open list of the same kind or starts a new
// one. Any other block between items, or a kind change, closed the list.
func appendListItem(blocks []block, ordered bool, item string) []block {
	if n := len(blocks); n > 0 && blocks[n-1].kind == kindList && blocks[n-1].ordered == ordered {
		blocks[n-1].items = append(blocks[n-1].items, item)
		return blocks
	}
	return append(blocks, block{kind: kindList, ordered: ordered, items: []string{item}})
}

// cleanup drops line breaks that touch a block element's boundary and
// collapses runs of breaks, so block elements never render with doubled
// spacing around them.
func cleanup(blocks []block) []block {
	isStructural := func(k blockKind) bool {
		return k != kindParagraph && k != kindBreak
	}

	var out []block
	for i, blk := range blocks {
		if blk.kind != kindBreak {
			out = append(out, blk)
			continue
		}
		if len(out) == 0 || isStructural(out[len(out)-1].kind) {
			continue
		}
		next := nextNonBreak(blocks, i+1)
		if next == nil || isStructural(next.kind) {
			continue
		}
		if out[len(out)-1].kind == kindBreak {
			continue
		}
		out = append(out, blk)
	}
	// A trailing break renders nothing useful.
	for len(out) > 0 && out[len(out)-1].kind == kindBreak {
		out = out[:len(out)-1]
	}
	return out
}

func nextNonBreak(blocks []block, from int) *block {
	for i := from; i < len(blocks); i++ {
		if blocks[i].kind != kindBreak {
			return &blocks[i]
		}
	}
	return nil
}

func writeBlock(b *strings.Builder, blk block) {
	switch blk.kind {
	case kindHeading:
		fmt.Fprintf(b, "<h%d>%s</h%d>", blk.level, inline(blk.text), blk.level)
	case kindRule:
		b.WriteString("<hr>")
	case kindList:
		tag := "ul"
		if blk.ordered {
			tag = "ol"
		}
		fmt.Fprintf(b, "<%s>", tag)
		for _, item := range blk.items {
			fmt.Fprintf(b, "<li>%s</li>", inline(item))
		}
		fmt.Fprintf(b, "</%s>", tag)
	case kindQuote:
		fmt.Fprintf(b, "<blockquote>%s</blockquote>", inline(blk.text))
	case kindParagraph:
		fmt.Fprintf(b, "<p>%s</p>", inline(blk.text))
	case kindBreak:
		b.WriteString("<br>")
	case kindCode:
		fmt.Fprintf(b, "<pre><code>%s</code></pre>", blk.text)
	}
}

// inline applies span formatting. Bold runs before italic so double
// markers are never half-eaten by the single-marker rule, and code runs
// last.
func inline(s string) string {
	s = boldStarRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = boldUnderRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = italStarRe.ReplaceAllString(s, "<em>$1</em>")
	s = italUnderRe.ReplaceAllString(s, "<em>$1</em>")
	s = inlineCodeRe.ReplaceAllString(s, "<code>$1</code>")
	return s
}
