// Package adf converts between plain text and the Atlassian Document Format
// used by Jira Cloud for rich-text fields.
package adf

import "strings"

// Node is a single ADF node. Jira documents are trees of these with a "doc"
// node at the root.
type Node struct {
	Type    string         `json:"type"`
	Text    string         `json:"text,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty"`
}

// Doc is a top-level ADF document.
type Doc struct {
	Type    string `json:"type"`
	Version int    `json:"version"`
	Content []Node `json:"content"`
}

// PlainText joins every text node in the document.
func (d Doc) PlainText() string {
	var parts []string
	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			if n.Type == "text" && n.Text != "" {
				parts = append(parts, n.Text)
			}
			walk(n.Content)
		}
	}
	walk(d.Content)
	return strings.Join(parts, " ")
}

// ExtractText walks an arbitrary decoded JSON value and joins every text
// node it finds. Non-document values (plain strings, nil, unexpected shapes)
// degrade gracefully: strings pass through, everything else yields "".
func ExtractText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any:
		var parts []string
		collectText(val, &parts)
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

func collectText(node any, parts *[]string) {
	switch n := node.(type) {
	case map[string]any:
		if n["type"] == "text" {
			if text, ok := n["text"].(string); ok {
				*parts = append(*parts, text)
			}
		}
		if content, ok := n["content"].([]any); ok {
			for _, child := range content {
				collectText(child, parts)
			}
		}
	case []any:
		for _, child := range n {
			collectText(child, parts)
		}
	}
}

// FromText converts plain text into an ADF document. Lines starting with
// "##" become level-2 headings, blank lines become empty paragraphs for
// spacing, everything else becomes a paragraph.
func FromText(text string) Doc {
	var content []Node
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			content = append(content, Node{Type: "paragraph"})
		case strings.HasPrefix(trimmed, "##"):
			heading := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			if heading == "" {
				// Jira rejects text nodes with empty content.
				content = append(content, Node{Type: "paragraph"})
				break
			}
			content = append(content, Node{
				Type:    "heading",
				Attrs:   map[string]any{"level": 2},
				Content: []Node{{Type: "text", Text: heading}},
			})
		default:
			content = append(content, Node{
				Type:    "paragraph",
				Content: []Node{{Type: "text", Text: line}},
			})
		}
	}
	return Doc{Type: "doc", Version: 1, Content: content}
}
