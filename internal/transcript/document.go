// Package transcript renders stored interview transcripts (a ProseMirror-style
// node tree) to HTML with embedded comment anchors.
package transcript

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Node types understood by the renderer. Anything else renders its children.
const (
	NodeDoc            = "doc"
	NodeParagraph      = "paragraph"
	NodeHeading        = "heading"
	NodeBulletList     = "bulletList"
	NodeOrderedList    = "orderedList"
	NodeListItem       = "listItem"
	NodeBlockquote     = "blockquote"
	NodeCodeBlock      = "codeBlock"
	NodeHardBreak      = "hardBreak"
	NodeHorizontalRule = "horizontalRule"
	NodeText           = "text"
)

// Mark types understood by the renderer. Unknown marks are ignored.
const (
	MarkBold      = "bold"
	MarkItalic    = "italic"
	MarkUnderline = "underline"
	MarkStrike    = "strike"
	MarkCode      = "code"
	MarkLink      = "link"
	MarkHighlight = "highlight"
	MarkComment   = "comment"
)

// Node is one element of the transcript tree.
type Node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
}

// Mark is inline formatting applied to a text node.
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Parse decodes a stored transcript. Empty input yields a nil document.
func Parse(raw []byte) (*Node, error) {
	if len(strings.TrimSpace(string(raw))) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var doc Node
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return &doc, nil
}

// IsEmpty reports whether the document has no visible text.
func IsEmpty(doc *Node) bool {
	if doc == nil {
		return true
	}
	return !hasText(*doc)
}

func hasText(node Node) bool {
	switch node.Type {
	case NodeText:
		return strings.TrimSpace(node.Text) != ""
	case NodeHorizontalRule:
		return true
	}
	for _, child := range node.Content {
		if hasText(child) {
			return true
		}
	}
	return false
}

// StringAttr returns attrs[key] when it is a string.
func (n Node) StringAttr(key string) string {
	value, _ := n.Attrs[key].(string)
	return value
}

// IntAttr returns attrs[key] as an int. JSON numbers decode as float64;
// some editors store numeric attrs as strings.
func (n Node) IntAttr(key string, fallback int) int {
	switch v := n.Attrs[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		if parsed, err := v.Int64(); err == nil {
			return int(parsed)
		}
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return fallback
}

// StringAttr returns attrs[key] when it is a string.
func (m Mark) StringAttr(key string) string {
	value, _ := m.Attrs[key].(string)
	return value
}

// CommentIDs lists the comment ids carried by comment marks, in document
// order and without duplicates.
func CommentIDs(doc *Node) []string {
	if doc == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var ids []string
	var walk func(Node)
	walk = func(node Node) {
		for _, mark := range node.Marks {
			if mark.Type != MarkComment {
				continue
			}
			id := mark.StringAttr("commentId")
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		for _, child := range node.Content {
			walk(child)
		}
	}
	walk(*doc)
	return ids
}

// PlainText flattens the document to text, one line per block.
func PlainText(doc *Node) string {
	if doc == nil {
		return ""
	}
	var b strings.Builder
	writePlain(&b, *doc)
	return strings.TrimSpace(b.String())
}

// ContainsText reports whether excerpt occurs in the document text. Runs of
// whitespace compare equal, so a selection spanning blocks still matches.
func ContainsText(doc *Node, excerpt string) bool {
	needle := strings.Join(strings.Fields(excerpt), " ")
	if needle == "" {
		return false
	}
	return strings.Contains(strings.Join(strings.Fields(PlainText(doc)), " "), needle)
}

func writePlain(b *strings.Builder, node Node) {
	switch node.Type {
	case NodeText:
		b.WriteString(node.Text)
		return
	case NodeHardBreak:
		b.WriteString("\n")
		return
	}
	for _, child := range node.Content {
		writePlain(b, child)
	}
	switch node.Type {
	case NodeParagraph, NodeHeading, NodeListItem, NodeCodeBlock, NodeBlockquote:
		b.WriteString("\n")
	}
}
