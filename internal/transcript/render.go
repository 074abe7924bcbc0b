package transcript

import (
	"html"
	"strconv"
	"strings"
)

const (
	paragraphClass  = "mb-3 leading-relaxed"
	blockquoteClass = "border-l-4 border-gray-300 pl-4 italic text-gray-600"
	codeBlockClass  = "bg-gray-100 rounded p-3 font-mono text-sm overflow-x-auto"
	inlineCodeClass = "bg-gray-100 rounded px-1 font-mono text-sm"
	highlightClass  = "bg-yellow-200"
	listItemClass   = "mb-1"
	dividerClass    = "my-4 border-gray-200"

	// CommentClass is carried by every comment span.
	CommentClass = "comment-highlight"
	// ResolvedClass marks a span whose comment already has a persisted note.
	ResolvedClass = "comment-resolved"
	// DraftClass marks a span whose comment has no note yet.
	DraftClass = "comment-draft"
)

var headingClasses = []string{
	1: "text-2xl font-bold mt-6 mb-3",
	2: "text-xl font-semibold mt-5 mb-2",
	3: "text-lg font-semibold mt-4 mb-2",
}

// Render converts doc to HTML. commentNotes maps comment ids to the id of the
// note bound to them; spans without an entry render in the draft style.
// Unknown node and mark types never fail the render.
func Render(doc *Node, commentNotes map[string]string) string {
	if doc == nil {
		return ""
	}
	r := renderer{commentNotes: commentNotes}
	r.node(*doc)
	return r.out.String()
}

type renderer struct {
	out          strings.Builder
	commentNotes map[string]string
}

func (r *renderer) node(node Node) {
	switch node.Type {
	case NodeDoc:
		r.children(node)
	case NodeParagraph:
		r.open("p", paragraphClass)
		if len(node.Content) == 0 {
			r.out.WriteString("<br>")
		} else {
			r.children(node)
		}
		r.out.WriteString("</p>")
	case NodeHeading:
		level := node.IntAttr("level", 1)
		if level < 1 {
			level = 1
		}
		if level > 3 {
			level = 3
		}
		tag := "h" + strconv.Itoa(level)
		r.open(tag, headingClasses[level])
		r.children(node)
		r.out.WriteString("</" + tag + ">")
	case NodeBulletList:
		r.open("ul", "list-disc pl-6 mb-3")
		r.children(node)
		r.out.WriteString("</ul>")
	case NodeOrderedList:
		r.open("ol", "list-decimal pl-6 mb-3")
		r.children(node)
		r.out.WriteString("</ol>")
	case NodeListItem:
		r.open("li", listItemClass)
		r.children(node)
		r.out.WriteString("</li>")
	case NodeBlockquote:
		r.open("blockquote", blockquoteClass)
		r.children(node)
		r.out.WriteString("</blockquote>")
	case NodeCodeBlock:
		r.open("pre", codeBlockClass)
		r.out.WriteString("<code>")
		r.children(node)
		r.out.WriteString("</code></pre>")
	case NodeHardBreak:
		r.out.WriteString("<br>")
	case NodeHorizontalRule:
		r.out.WriteString(`<hr class="` + dividerClass + `">`)
	case NodeText:
		r.out.WriteString(r.text(node))
	default:
		r.children(node)
	}
}

func (r *renderer) children(node Node) {
	for _, child := range node.Content {
		r.node(child)
	}
}

func (r *renderer) open(tag, class string) {
	r.out.WriteString("<" + tag + ` class="` + class + `">`)
}

// text escapes first, then wraps. Each mark wraps the result of the previous
// one, so marks[0] ends up innermost.
func (r *renderer) text(node Node) string {
	out := html.EscapeString(node.Text)
	for _, mark := range node.Marks {
		out = r.mark(mark, out)
	}
	return out
}

func (r *renderer) mark(mark Mark, inner string) string {
	switch mark.Type {
	case MarkBold:
		return "<strong>" + inner + "</strong>"
	case MarkItalic:
		return "<em>" + inner + "</em>"
	case MarkUnderline:
		return "<u>" + inner + "</u>"
	case MarkStrike:
		return "<s>" + inner + "</s>"
	case MarkCode:
		return `<code class="` + inlineCodeClass + `">` + inner + "</code>"
	case MarkLink:
		href := mark.StringAttr("href")
		if href == "" {
			href = "#"
		}
		return `<a href="` + html.EscapeString(href) + `" target="_blank" rel="noopener noreferrer">` + inner + "</a>"
	case MarkHighlight:
		return `<mark class="` + highlightClass + `">` + inner + "</mark>"
	case MarkComment:
		commentID := mark.StringAttr("commentId")
		if commentID == "" {
			return inner
		}
		return CommentSpan(commentID, r.commentNotes[commentID], inner)
	default:
		return inner
	}
}

// CommentSpan wraps already-escaped inner HTML in a comment anchor span.
func CommentSpan(commentID, noteID, inner string) string {
	state := DraftClass
	if noteID != "" {
		state = ResolvedClass
	}
	return `<span data-comment-id="` + html.EscapeString(commentID) +
		`" data-note-id="` + html.EscapeString(noteID) +
		`" class="` + CommentClass + " " + state +
		`" tabindex="0">` + inner + "</span>"
}
