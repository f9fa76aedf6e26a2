// Package adf converts a constrained markdown subset into the Atlassian
// Document Format tree that Jira Cloud expects for rich-text fields.
package adf

import "strings"

// Node is a single ADF content node. Text nodes carry Text and nothing
// else; container nodes carry Content.
type Node struct {
	Type    string `json:"type"`
	Attrs   *Attrs `json:"attrs,omitempty"`
	Content []Node `json:"content,omitempty"`
	Text    string `json:"text,omitempty"`
}

// Attrs holds node attributes. Only headings use it today.
type Attrs struct {
	Level int `json:"level"`
}

// Document is the root "doc" node. Version is always 1.
type Document struct {
	Type    string `json:"type"`
	Version int    `json:"version"`
	Content []Node `json:"content"`
}

// FromMarkdown converts markdown line by line into an ADF document.
// Supported constructs: ATX headings, "-"/"*" bullet lists, and plain
// paragraphs. Markers count only at the very start of a line; indented
// markers are paragraph text, and paragraph lines are carried over
// verbatim. Blank lines emit nothing but do close an open list.
// Heading levels are not clamped; seven '#' characters yield level 7.
// Any input produces a valid document, so there is no error return.
func FromMarkdown(markdown string) *Document {
	doc := &Document{Type: "doc", Version: 1, Content: []Node{}}

	var list *Node

	flushList := func() {
		if list != nil {
			doc.Content = append(doc.Content, *list)
			list = nil
		}
	}

	for _, line := range strings.Split(markdown, "\n") {
		if strings.TrimSpace(line) == "" {
			flushList()
			continue
		}

		if level := headingLevel(line); level > 0 {
			flushList()
			text := strings.TrimLeft(line, "#")
			text = strings.TrimSpace(text)
			heading := Node{Type: "heading", Attrs: &Attrs{Level: level}}
			// ADF rejects empty text nodes, so a bare run of '#'
			// becomes a heading with no content.
			if text != "" {
				heading.Content = []Node{textNode(text)}
			}
			doc.Content = append(doc.Content, heading)
			continue
		}

		if item, ok := listItemText(line); ok {
			if list == nil {
				list = &Node{Type: "bulletList"}
			}
			list.Content = append(list.Content, Node{
				Type:    "listItem",
				Content: []Node{paragraphNode(item)},
			})
			continue
		}

		flushList()
		doc.Content = append(doc.Content, paragraphNode(line))
	}
	flushList()

	return doc
}

func headingLevel(line string) int {
	level := 0
	for _, r := range line {
		if r != '#' {
			break
		}
		level++
	}
	return level
}

// listItemText reports whether the line is a bullet item ("-" or "*"
// followed by whitespace) and returns the item text.
func listItemText(line string) (string, bool) {
	if len(line) < 2 {
		return "", false
	}
	if line[0] != '-' && line[0] != '*' {
		return "", false
	}
	if line[1] != ' ' && line[1] != '\t' {
		return "", false
	}
	return strings.TrimSpace(line[2:]), true
}

func textNode(text string) Node {
	return Node{Type: "text", Text: text}
}

func paragraphNode(text string) Node {
	return Node{Type: "paragraph", Content: []Node{textNode(text)}}
}
