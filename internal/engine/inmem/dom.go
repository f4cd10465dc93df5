package inmem

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/layermap/backend/internal/engine"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const hiddenStyle = "display: none;"

// Document is an engine.DOM over a parsed HTML tree.
type Document struct {
	root *html.Node
}

// NewDocument creates an empty page whose body holds one div per id.
func NewDocument(ids ...string) *Document {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	root := &html.Node{Type: html.DocumentNode}
	htmlEl := &html.Node{Type: html.ElementNode, Data: "html", DataAtom: atom.Html}
	root.AppendChild(htmlEl)
	htmlEl.AppendChild(body)

	d := &Document{root: root}
	for _, id := range ids {
		body.AppendChild(&html.Node{
			Type:     html.ElementNode,
			Data:     "div",
			DataAtom: atom.Div,
			Attr:     []html.Attribute{{Key: "id", Val: id}},
		})
	}
	return d
}

func (d *Document) Append(parentID, fragment string) error {
	parent := d.find(func(n *html.Node) bool { return attr(n, "id") == parentID })
	if parent == nil {
		return fmt.Errorf("element #%s not found", parentID)
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), parent)
	if err != nil {
		return fmt.Errorf("parsing fragment for #%s: %w", parentID, err)
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	return nil
}

func (d *Document) Exists(id string) bool {
	return d.find(func(n *html.Node) bool { return attr(n, "id") == id }) != nil
}

// Element returns the element with id.
func (d *Document) Element(id string) (engine.Element, bool) {
	n := d.find(func(n *html.Node) bool { return attr(n, "id") == id })
	if n == nil {
		return nil, false
	}
	return &Element{n: n}, true
}

func (d *Document) ByClass(class string) []engine.Element {
	var out []engine.Element
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && hasClass(n, class) {
			out = append(out, &Element{n: n})
		}
		return false
	})
	return out
}

func (d *Document) OuterHTML(id string) (string, bool) {
	n := d.find(func(n *html.Node) bool { return attr(n, "id") == id })
	if n == nil {
		return "", false
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", false
	}
	return buf.String(), true
}

func (d *Document) find(match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && match(n) {
			found = n
			return true
		}
		return false
	})
	return found
}

// walk visits n and its descendants depth-first until visit returns true.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if visit(n) {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if walk(c, visit) {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// Element is an engine.Element over an html.Node.
type Element struct {
	n *html.Node
}

func (e *Element) ID() string { return attr(e.n, "id") }

func (e *Element) Attr(key string) string { return attr(e.n, key) }

// Text returns the concatenated text of the element and its descendants.
func (e *Element) Text() string {
	var sb strings.Builder
	walk(e.n, func(n *html.Node) bool {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		return false
	})
	return sb.String()
}

func (e *Element) Show() {
	if e.Visible() {
		return
	}
	style := strings.TrimSpace(strings.ReplaceAll(attr(e.n, "style"), hiddenStyle, ""))
	if style == "" {
		removeAttr(e.n, "style")
		return
	}
	setAttr(e.n, "style", style)
}

func (e *Element) Hide() {
	if !e.Visible() {
		return
	}
	style := strings.TrimSpace(attr(e.n, "style"))
	if style != "" && !strings.HasSuffix(style, ";") {
		style += ";"
	}
	setAttr(e.n, "style", strings.TrimSpace(style+" "+hiddenStyle))
}

func (e *Element) Visible() bool {
	return !strings.Contains(attr(e.n, "style"), hiddenStyle)
}
