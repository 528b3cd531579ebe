// Package markdown converts the lightweight markup subset emitted by
// chat models into a structured document of typed nodes. The transform
// is pure and total: malformed markup degrades to literal text, it never
// fails.
package markdown

import (
	"strings"
)

// Node is one typed piece of a transformed document.
type Node interface{ node() }

// Document is the ordered node sequence derived from one text block.
// Output ordering matches input ordering.
type Document []Node

// Text is a literal run with &, < and > already escaped.
type Text struct {
	Content string
}

// Break is an explicit line break outside code blocks.
type Break struct{}

// Heading is a line-level heading, level 1-3.
type Heading struct {
	Level int
	Text  string
}

// Strong is bold emphasis.
type Strong struct {
	Text string
}

// CodeBlock is a fenced code region with an optional language tag.
type CodeBlock struct {
	Language string
	Code     string
}

// InlineCode is a single-backtick span.
type InlineCode struct {
	Code string
}

// Link is an inline [label](url) reference.
type Link struct {
	Label string
	URL   string
}

// ListItem is one bullet or ordered item. Items are emitted as a flat
// sequence in source order; nested lists are not reconstructed.
type ListItem struct {
	Ordered bool
	Text    []Node
}

// TableRow is a single pipe-delimited line. Consecutive table lines are
// deliberately not merged into one table.
type TableRow struct {
	Cells []string
}

func (Text) node()       {}
func (Break) node()      {}
func (Heading) node()    {}
func (Strong) node()     {}
func (CodeBlock) node()  {}
func (InlineCode) node() {}
func (Link) node()       {}
func (ListItem) node()   {}
func (TableRow) node()   {}

const fence = "```"

// Transform converts raw model output into a Document. Literal &, < and >
// are escaped up front so raw markup characters never collide with
// structural delimiters; fenced code blocks claim their spans before any
// other pass so their contents are never reprocessed.
func Transform(text string) Document {
	if text == "" {
		return Document{}
	}
	escaped := escapeText(text)

	var doc Document
	rest := escaped
	for {
		open := strings.Index(rest, fence)
		if open < 0 {
			doc = appendFlow(doc, rest)
			break
		}
		close_ := strings.Index(rest[open+len(fence):], fence)
		if close_ < 0 {
			// Unterminated fence degrades to literal text.
			doc = appendFlow(doc, rest)
			break
		}
		doc = appendFlow(doc, rest[:open])
		lang, code := splitFence(rest[open+len(fence) : open+len(fence)+close_])
		doc = append(doc, CodeBlock{Language: lang, Code: code})
		rest = rest[open+len(fence)+close_+len(fence):]
	}
	return doc
}

// splitFence separates the optional language tag on the opening fence
// line from the code body. Body whitespace is trimmed.
func splitFence(region string) (lang, code string) {
	if nl := strings.Index(region, "\n"); nl >= 0 {
		tag := strings.TrimSpace(region[:nl])
		if isLangTag(tag) {
			return tag, strings.TrimSpace(region[nl+1:])
		}
	}
	return "", strings.TrimSpace(region)
}

func isLangTag(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '+':
		default:
			return false
		}
	}
	return true
}

// appendFlow transforms text outside code fences: line-level constructs
// first (headings, list items, table rows), then inline constructs, with
// explicit break nodes between lines.
func appendFlow(doc Document, text string) Document {
	if text == "" {
		return doc
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			doc = append(doc, Break{})
		}
		doc = appendLine(doc, line)
	}
	return doc
}

func appendLine(doc Document, line string) Document {
	if line == "" {
		return doc
	}
	if level, rest, ok := headingLine(line); ok {
		return append(doc, Heading{Level: level, Text: rest})
	}
	if ordered, rest, ok := listLine(line); ok {
		return append(doc, ListItem{Ordered: ordered, Text: inline(rest)})
	}
	if cells, ok := tableLine(line); ok {
		return append(doc, TableRow{Cells: cells})
	}
	return append(doc, inline(line)...)
}

// headingLine matches 1-3 leading # followed by a space.
func headingLine(line string) (level int, rest string, ok bool) {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n < 1 || n > 3 || n >= len(line) || line[n] != ' ' {
		return 0, "", false
	}
	return n, line[n+1:], true
}

// listLine matches "- ", "* ", "+ " or "N. " after optional indentation.
// Bullet vs ordered is distinguished by the marker; nesting is flattened.
func listLine(line string) (ordered bool, rest string, ok bool) {
	s := strings.TrimLeft(line, " \t")
	if len(s) >= 2 && (s[0] == '-' || s[0] == '*' || s[0] == '+') && s[1] == ' ' {
		return false, strings.TrimLeft(s[2:], " "), true
	}
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	if n > 0 && n+1 < len(s) && s[n] == '.' && s[n+1] == ' ' {
		return true, strings.TrimLeft(s[n+2:], " "), true
	}
	return false, "", false
}

// tableLine converts a pipe-delimited line to one row. The cells are the
// pipe-separated, trimmed, non-empty segments.
func tableLine(line string) ([]string, bool) {
	s := strings.TrimSpace(line)
	if strings.Count(s, "|") < 2 {
		return nil, false
	}
	var cells []string
	for _, seg := range strings.Split(s, "|") {
		if c := strings.TrimSpace(seg); c != "" {
			cells = append(cells, c)
		}
	}
	if len(cells) == 0 {
		return nil, false
	}
	return cells, true
}

// inline scans one line for bold, inline code and links. The earliest
// construct wins; on a tie the fixed precedence order applies (emphasis,
// then inline code, then links). Each match consumes its span, so
// constructs never reprocess each other's output.
func inline(s string) []Node {
	var nodes []Node
	for s != "" {
		idx, construct, consumed := nextInline(s)
		if idx < 0 {
			nodes = append(nodes, Text{Content: s})
			break
		}
		if idx > 0 {
			nodes = append(nodes, Text{Content: s[:idx]})
		}
		nodes = append(nodes, construct)
		s = s[idx+consumed:]
	}
	return nodes
}

// nextInline finds the earliest inline construct in s. It returns its
// start offset, the node and the number of bytes it consumed, or -1 when
// the remainder is plain text.
func nextInline(s string) (int, Node, int) {
	type match struct {
		idx      int
		node     Node
		consumed int
	}
	best := match{idx: -1}
	better := func(m match) bool {
		return best.idx < 0 || m.idx < best.idx
	}

	// Bold: first non-greedy ** pair.
	if open := strings.Index(s, "**"); open >= 0 {
		if n := strings.Index(s[open+2:], "**"); n >= 0 {
			m := match{idx: open, node: Strong{Text: s[open+2 : open+2+n]}, consumed: n + 4}
			if better(m) {
				best = m
			}
		}
	}

	// Inline code: single-backtick pair.
	if open := strings.Index(s, "`"); open >= 0 {
		if n := strings.Index(s[open+1:], "`"); n >= 0 {
			m := match{idx: open, node: InlineCode{Code: s[open+1 : open+1+n]}, consumed: n + 2}
			if better(m) {
				best = m
			}
		}
	}

	// Link: [label](url) with no stray brackets inside.
	if open := strings.Index(s, "["); open >= 0 {
		if lb := strings.Index(s[open+1:], "]"); lb >= 0 {
			after := open + 1 + lb + 1
			if after < len(s) && s[after] == '(' {
				if rb := strings.Index(s[after+1:], ")"); rb >= 0 {
					label := s[open+1 : open+1+lb]
					url := s[after+1 : after+1+rb]
					m := match{idx: open, node: Link{Label: label, URL: url}, consumed: after + 1 + rb + 1 - open}
					if better(m) {
						best = m
					}
				}
			}
		}
	}

	if best.idx < 0 {
		return -1, nil, 0
	}
	return best.idx, best.node, best.consumed
}

// escapeText escapes literal &, < and > so raw markup characters in
// model output never read as structure. Plain text with none of these
// passes through unchanged.
func escapeText(s string) string {
	if !strings.ContainsAny(s, "&<>") {
		return s
	}
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
