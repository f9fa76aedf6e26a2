package adf

import (
	"encoding/json"
	"testing"
)

func TestFromMarkdownParagraphsOnly(t *testing.T) {
	doc := FromMarkdown("first line\nsecond line\n\nthird line")

	if doc.Type != "doc" || doc.Version != 1 {
		t.Fatalf("expected doc version 1 root, got %s/%d", doc.Type, doc.Version)
	}
	if len(doc.Content) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(doc.Content))
	}
	want := []string{"first line", "second line", "third line"}
	for i, node := range doc.Content {
		if node.Type != "paragraph" {
			t.Fatalf("node %d: expected paragraph, got %s", i, node.Type)
		}
		if node.Content[0].Text != want[i] {
			t.Fatalf("node %d: expected %q, got %q", i, want[i], node.Content[0].Text)
		}
	}
}

func TestFromMarkdownHeadingLevels(t *testing.T) {
	tests := []struct {
		line  string
		level int
		text  string
	}{
		{"# Title", 1, "Title"},
		{"## Section", 2, "Section"},
		{"###### Deep", 6, "Deep"},
		{"####### Deeper", 7, "Deeper"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			doc := FromMarkdown(tt.line)
			if len(doc.Content) != 1 {
				t.Fatalf("expected 1 node, got %d", len(doc.Content))
			}
			node := doc.Content[0]
			if node.Type != "heading" {
				t.Fatalf("expected heading, got %s", node.Type)
			}
			if node.Attrs == nil || node.Attrs.Level != tt.level {
				t.Fatalf("expected level %d, got %+v", tt.level, node.Attrs)
			}
			if node.Content[0].Text != tt.text {
				t.Fatalf("expected text %q, got %q", tt.text, node.Content[0].Text)
			}
		})
	}
}

func TestFromMarkdownBulletLists(t *testing.T) {
	doc := FromMarkdown("- one\n* two\nplain\n- three")

	if len(doc.Content) != 3 {
		t.Fatalf("expected list, paragraph, list; got %d nodes", len(doc.Content))
	}
	first := doc.Content[0]
	if first.Type != "bulletList" || len(first.Content) != 2 {
		t.Fatalf("expected 2-item bulletList, got %s with %d items", first.Type, len(first.Content))
	}
	for i, want := range []string{"one", "two"} {
		item := first.Content[i]
		if item.Type != "listItem" {
			t.Fatalf("item %d: expected listItem, got %s", i, item.Type)
		}
		if got := item.Content[0].Content[0].Text; got != want {
			t.Fatalf("item %d: expected %q, got %q", i, want, got)
		}
	}
	if doc.Content[1].Type != "paragraph" {
		t.Fatalf("expected paragraph after list, got %s", doc.Content[1].Type)
	}
	second := doc.Content[2]
	if second.Type != "bulletList" || len(second.Content) != 1 {
		t.Fatalf("expected new 1-item bulletList, got %s with %d items", second.Type, len(second.Content))
	}
}

func TestFromMarkdownBlankLineClosesList(t *testing.T) {
	doc := FromMarkdown("- a\n\n- b")

	if len(doc.Content) != 2 {
		t.Fatalf("expected two sibling lists, got %d nodes", len(doc.Content))
	}
	for i, node := range doc.Content {
		if node.Type != "bulletList" || len(node.Content) != 1 {
			t.Fatalf("node %d: expected 1-item bulletList, got %s with %d items", i, node.Type, len(node.Content))
		}
	}
}

func TestFromMarkdownParagraphsKeepWhitespaceVerbatim(t *testing.T) {
	doc := FromMarkdown("  indented line  ")

	if len(doc.Content) != 1 {
		t.Fatalf("expected 1 node, got %d", len(doc.Content))
	}
	node := doc.Content[0]
	if node.Type != "paragraph" {
		t.Fatalf("expected paragraph, got %s", node.Type)
	}
	if got := node.Content[0].Text; got != "  indented line  " {
		t.Fatalf("expected verbatim text with whitespace, got %q", got)
	}
}

func TestFromMarkdownIndentedMarkersAreParagraphs(t *testing.T) {
	tests := []struct {
		input string
		text  string
	}{
		{"   # still a paragraph", "   # still a paragraph"},
		{" - not an item", " - not an item"},
		{"\t* not an item", "\t* not an item"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			doc := FromMarkdown(tt.input)
			if len(doc.Content) != 1 {
				t.Fatalf("expected 1 node, got %d", len(doc.Content))
			}
			node := doc.Content[0]
			if node.Type != "paragraph" {
				t.Fatalf("expected paragraph, got %s", node.Type)
			}
			if got := node.Content[0].Text; got != tt.text {
				t.Fatalf("expected %q, got %q", tt.text, got)
			}
		})
	}
}

func TestFromMarkdownBlankAndEmptyInput(t *testing.T) {
	for _, input := range []string{"", "\n\n", "   \n\t\n"} {
		doc := FromMarkdown(input)
		if len(doc.Content) != 0 {
			t.Fatalf("input %q: expected empty content, got %d nodes", input, len(doc.Content))
		}
	}
}

func TestFromMarkdownIdempotent(t *testing.T) {
	input := "# Title\n\nintro paragraph\n- a\n- b\n\n## Next\nmore text"

	first, err := json.Marshal(FromMarkdown(input))
	if err != nil {
		t.Fatalf("marshal first: %v", err)
	}
	second, err := json.Marshal(FromMarkdown(input))
	if err != nil {
		t.Fatalf("marshal second: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("expected identical output, got\n%s\nvs\n%s", first, second)
	}
}

func TestFromMarkdownTextNodesAreLeaves(t *testing.T) {
	doc := FromMarkdown("# h\npara\n- item")

	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			if n.Type == "text" && len(n.Content) != 0 {
				t.Fatalf("text node has children: %+v", n)
			}
			walk(n.Content)
		}
	}
	walk(doc.Content)
}
