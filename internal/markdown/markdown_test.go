//go:build !integration

package markdown

import (
	"reflect"
	"testing"
)

func TestTransformPlainText(t *testing.T) {
	t.Run("passes plain text through as a single node", func(t *testing.T) {
		doc := Transform("hello world")
		if len(doc) != 1 {
			t.Fatalf("expected 1 node, got %d: %#v", len(doc), doc)
		}
		text, ok := doc[0].(Text)
		if !ok {
			t.Fatalf("expected Text node, got %T", doc[0])
		}
		if text.Content != "hello world" {
			t.Errorf("expected content unchanged, got %q", text.Content)
		}
	})

	t.Run("empty input yields empty document", func(t *testing.T) {
		if doc := Transform(""); len(doc) != 0 {
			t.Errorf("expected empty document, got %#v", doc)
		}
	})
}

func TestTransformEscaping(t *testing.T) {
	doc := Transform("<b>&</b>")
	if len(doc) != 1 {
		t.Fatalf("expected 1 node, got %d", len(doc))
	}
	text, ok := doc[0].(Text)
	if !ok {
		t.Fatalf("expected Text node, got %T", doc[0])
	}
	if text.Content != "&lt;b&gt;&amp;&lt;/b&gt;" {
		t.Errorf("unexpected escaped content: %q", text.Content)
	}
}

func TestTransformHeadings(t *testing.T) {
	cases := []struct {
		in    string
		level int
		text  string
	}{
		{"# Title", 1, "Title"},
		{"## Sub", 2, "Sub"},
		{"### Deep", 3, "Deep"},
	}
	for _, c := range cases {
		doc := Transform(c.in)
		if len(doc) != 1 {
			t.Fatalf("%q: expected 1 node, got %#v", c.in, doc)
		}
		h, ok := doc[0].(Heading)
		if !ok {
			t.Fatalf("%q: expected Heading, got %T", c.in, doc[0])
		}
		if h.Level != c.level || h.Text != c.text {
			t.Errorf("%q: got level=%d text=%q", c.in, h.Level, h.Text)
		}
	}

	t.Run("four hashes is not a heading", func(t *testing.T) {
		doc := Transform("#### nope")
		if _, ok := doc[0].(Heading); ok {
			t.Error("expected no heading for ####")
		}
	})

	t.Run("hash without space is not a heading", func(t *testing.T) {
		doc := Transform("#nope")
		if _, ok := doc[0].(Heading); ok {
			t.Error("expected no heading without trailing space")
		}
	})
}

func TestTransformBold(t *testing.T) {
	doc := Transform("say **hi** there")
	want := Document{
		Text{Content: "say "},
		Strong{Text: "hi"},
		Text{Content: " there"},
	}
	if !reflect.DeepEqual(doc, want) {
		t.Errorf("got %#v, want %#v", doc, want)
	}

	t.Run("first matching pair wins", func(t *testing.T) {
		doc := Transform("**a** and **b**")
		if s, ok := doc[0].(Strong); !ok || s.Text != "a" {
			t.Errorf("expected first Strong(a), got %#v", doc[0])
		}
	})

	t.Run("unmatched markers degrade to text", func(t *testing.T) {
		doc := Transform("lonely ** marker")
		if len(doc) != 1 {
			t.Fatalf("expected 1 node, got %#v", doc)
		}
		if _, ok := doc[0].(Text); !ok {
			t.Errorf("expected Text, got %T", doc[0])
		}
	})
}

func TestTransformCodeBlocks(t *testing.T) {
	t.Run("fence with language tag", func(t *testing.T) {
		doc := Transform("```go\nfmt.Println(1)\n```")
		if len(doc) != 1 {
			t.Fatalf("expected 1 node, got %#v", doc)
		}
		cb, ok := doc[0].(CodeBlock)
		if !ok {
			t.Fatalf("expected CodeBlock, got %T", doc[0])
		}
		if cb.Language != "go" || cb.Code != "fmt.Println(1)" {
			t.Errorf("got lang=%q code=%q", cb.Language, cb.Code)
		}
	})

	t.Run("fence without language tag", func(t *testing.T) {
		doc := Transform("```\nraw\n```")
		cb := doc[0].(CodeBlock)
		if cb.Language != "" || cb.Code != "raw" {
			t.Errorf("got lang=%q code=%q", cb.Language, cb.Code)
		}
	})

	t.Run("fence contents are never reprocessed", func(t *testing.T) {
		doc := Transform("```\n**not bold** # not heading\n```")
		if len(doc) != 1 {
			t.Fatalf("expected 1 node, got %#v", doc)
		}
		cb := doc[0].(CodeBlock)
		if cb.Code != "**not bold** # not heading" {
			t.Errorf("fence body rewritten: %q", cb.Code)
		}
	})

	t.Run("unterminated fence degrades to literal text", func(t *testing.T) {
		doc := Transform("before ```go\nno close")
		for _, n := range doc {
			if _, ok := n.(CodeBlock); ok {
				t.Fatal("unterminated fence must not produce a code block")
			}
		}
	})

	t.Run("text around fences keeps its order", func(t *testing.T) {
		doc := Transform("pre\n```\nc\n```\npost")
		var kinds []string
		for _, n := range doc {
			switch n.(type) {
			case Text:
				kinds = append(kinds, "text")
			case CodeBlock:
				kinds = append(kinds, "code")
			case Break:
				kinds = append(kinds, "br")
			}
		}
		want := []string{"text", "br", "code", "br", "text"}
		if !reflect.DeepEqual(kinds, want) {
			t.Errorf("got %v, want %v", kinds, want)
		}
	})
}

func TestTransformInlineCode(t *testing.T) {
	doc := Transform("use `go vet` often")
	want := Document{
		Text{Content: "use "},
		InlineCode{Code: "go vet"},
		Text{Content: " often"},
	}
	if !reflect.DeepEqual(doc, want) {
		t.Errorf("got %#v, want %#v", doc, want)
	}
}

func TestTransformLinks(t *testing.T) {
	doc := Transform("see [docs](https://example.com) now")
	want := Document{
		Text{Content: "see "},
		Link{Label: "docs", URL: "https://example.com"},
		Text{Content: " now"},
	}
	if !reflect.DeepEqual(doc, want) {
		t.Errorf("got %#v, want %#v", doc, want)
	}

	t.Run("bracket without url stays literal", func(t *testing.T) {
		doc := Transform("just [brackets] here")
		if len(doc) != 1 {
			t.Fatalf("expected 1 node, got %#v", doc)
		}
	})
}

func TestTransformLists(t *testing.T) {
	t.Run("bullet markers", func(t *testing.T) {
		for _, in := range []string{"- item", "* item", "+ item"} {
			doc := Transform(in)
			li, ok := doc[0].(ListItem)
			if !ok {
				t.Fatalf("%q: expected ListItem, got %T", in, doc[0])
			}
			if li.Ordered {
				t.Errorf("%q: expected bullet item", in)
			}
		}
	})

	t.Run("ordered markers", func(t *testing.T) {
		doc := Transform("12. twelfth")
		li := doc[0].(ListItem)
		if !li.Ordered {
			t.Error("expected ordered item")
		}
		if text, ok := li.Text[0].(Text); !ok || text.Content != "twelfth" {
			t.Errorf("unexpected item text: %#v", li.Text)
		}
	})

	t.Run("items stay flat in source order", func(t *testing.T) {
		doc := Transform("- a\n  - nested")
		var items int
		for _, n := range doc {
			if _, ok := n.(ListItem); ok {
				items++
			}
		}
		if items != 2 {
			t.Errorf("expected 2 flat items, got %d", items)
		}
	})

	t.Run("inline constructs apply inside items", func(t *testing.T) {
		doc := Transform("- has **bold**")
		li := doc[0].(ListItem)
		found := false
		for _, n := range li.Text {
			if s, ok := n.(Strong); ok && s.Text == "bold" {
				found = true
			}
		}
		if !found {
			t.Errorf("expected Strong inside item, got %#v", li.Text)
		}
	})
}

func TestTransformTables(t *testing.T) {
	t.Run("pipe line becomes a one-row table", func(t *testing.T) {
		doc := Transform("|a|b|c|")
		if len(doc) != 1 {
			t.Fatalf("expected 1 node, got %#v", doc)
		}
		row, ok := doc[0].(TableRow)
		if !ok {
			t.Fatalf("expected TableRow, got %T", doc[0])
		}
		want := []string{"a", "b", "c"}
		if !reflect.DeepEqual(row.Cells, want) {
			t.Errorf("got cells %v, want %v", row.Cells, want)
		}
	})

	t.Run("cells are trimmed", func(t *testing.T) {
		doc := Transform("| a | b |")
		row := doc[0].(TableRow)
		if !reflect.DeepEqual(row.Cells, []string{"a", "b"}) {
			t.Errorf("got cells %v", row.Cells)
		}
	})

	t.Run("consecutive table lines stay separate rows", func(t *testing.T) {
		doc := Transform("|a|b|\n|c|d|")
		var rows int
		for _, n := range doc {
			if _, ok := n.(TableRow); ok {
				rows++
			}
		}
		if rows != 2 {
			t.Errorf("expected 2 separate rows, got %d", rows)
		}
	})
}

func TestTransformBreaks(t *testing.T) {
	doc := Transform("a\nb")
	want := Document{
		Text{Content: "a"},
		Break{},
		Text{Content: "b"},
	}
	if !reflect.DeepEqual(doc, want) {
		t.Errorf("got %#v, want %#v", doc, want)
	}
}

func TestTransformMixedDocument(t *testing.T) {
	in := "# العنوان\nنص **عريض** و`كود`\n- بند أول\n|خلية|أخرى|"
	doc := Transform(in)

	var (
		headings, strongs, codes, items, rows int
	)
	for _, n := range doc {
		switch n.(type) {
		case Heading:
			headings++
		case Strong:
			strongs++
		case InlineCode:
			codes++
		case ListItem:
			items++
		case TableRow:
			rows++
		}
	}
	if headings != 1 || strongs != 1 || codes != 1 || items != 1 || rows != 1 {
		t.Errorf("unexpected node counts: h=%d s=%d c=%d li=%d tr=%d in %#v",
			headings, strongs, codes, items, rows, doc)
	}
}
