package html

import (
	"fmt"
	"strings"

	xhtml "golang.org/x/net/html"
)

// XHTML 1.0 Transitional identifiers used for the normalized DOCTYPE
const (
	XHTMLPublicID = "-//W3C//DTD XHTML 1.0 Transitional//EN"
	XHTMLSystemID = "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd"
)

// XHTMLDoctype is the DOCTYPE every normalized document starts with
const XHTMLDoctype = `<!DOCTYPE html PUBLIC "` + XHTMLPublicID + `" "` + XHTMLSystemID + `">`

// EventHandlerAttributes are dropped by RemoveEventHandlers
var EventHandlerAttributes = []string{"onload", "onerror"}

// RemoveEventHandlers strips script hooks that email clients reject
func (t *Tree) RemoveEventHandlers() {
	for _, id := range t.Elements() {
		t.RemoveAttr(id, EventHandlerAttributes...)
	}
}

// RemoveComments deletes every comment node
func (t *Tree) RemoveComments() {
	t.Transform(func(id NodeID) NodeID {
		if t.nodes[id].Type == CommentNode {
			return Deleted
		}
		return id
	})
}

// NormalizeDoctype rewrites any `<!DOCTYPE html ...>` to XHTML 1.0
// Transitional. Documents with an <html> element but no DOCTYPE get one.
func (t *Tree) NormalizeDoctype() {
	found := false
	for _, id := range t.nodes[t.Root()].Children {
		n := &t.nodes[id]
		if n.Type != DoctypeNode {
			continue
		}
		found = true
		if isHTMLDoctype(n.Data) {
			n.Data = "html"
			n.Attr = []Attribute{{Key: "public", Val: XHTMLPublicID}, {Key: "system", Val: XHTMLSystemID}}
		}
	}
	if !found && t.Find("html") != Deleted {
		id := t.NewNode(DoctypeNode, "html", Attribute{Key: "public", Val: XHTMLPublicID}, Attribute{Key: "system", Val: XHTMLSystemID})
		t.InsertChild(t.Root(), 0, id)
	}
}

func isHTMLDoctype(data string) bool {
	fields := strings.Fields(data)
	return len(fields) > 0 && strings.EqualFold(fields[0], "html")
}

// Render serializes the tree. Void elements are written in XHTML form.
func (t *Tree) Render() (string, error) {
	var sb strings.Builder
	if err := xhtml.Render(&sb, t.convert(t.Root())); err != nil {
		return "", fmt.Errorf("failed to serialize HTML: %w", err)
	}
	return sb.String(), nil
}

// convert maps an arena subtree to the node graph x/net/html renders
func (t *Tree) convert(id NodeID) *xhtml.Node {
	n := &t.nodes[id]
	out := &xhtml.Node{Data: n.Data}

	switch n.Type {
	case DocumentNode:
		out.Type = xhtml.DocumentNode
	case DoctypeNode:
		out.Type = xhtml.DoctypeNode
	case ElementNode:
		out.Type = xhtml.ElementNode
	case TextNode:
		out.Type = xhtml.TextNode
	case CommentNode:
		out.Type = xhtml.CommentNode
	case RawNode:
		out.Type = xhtml.RawNode
	}

	if len(n.Attr) > 0 {
		out.Attr = make([]xhtml.Attribute, len(n.Attr))
		for i, a := range n.Attr {
			out.Attr[i] = xhtml.Attribute{Key: a.Key, Val: a.Val}
		}
	}
	for _, child := range n.Children {
		out.AppendChild(t.convert(child))
	}
	return out
}
