// Package html holds the document tree the inliner rewrites. Nodes live in
// an arena owned by Tree and refer to each other by NodeID, so rewriting
// passes never chase shared pointers.
package html

import "strings"

// NodeID addresses a node inside its Tree
type NodeID int32

// Deleted is returned by a Transformer to drop the visited node
const Deleted NodeID = -1

// NodeType is the closed set of node kinds
type NodeType uint8

const (
	DocumentNode NodeType = iota
	DoctypeNode
	ElementNode
	TextNode
	CommentNode
	RawNode // text written out verbatim
)

func (t NodeType) String() string {
	switch t {
	case DocumentNode:
		return "document"
	case DoctypeNode:
		return "doctype"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	case RawNode:
		return "raw"
	}
	return "unknown"
}

// Attribute is a single name="value" pair. Order is preserved.
type Attribute struct {
	Key string
	Val string
}

// Node is one entry in the arena.
//
// Data holds the lowercase tag name for elements, the text for text, raw
// and comment nodes, and the declaration body for doctypes.
type Node struct {
	Type     NodeType
	Data     string
	Attr     []Attribute
	Parent   NodeID
	Children []NodeID
}

// Tree is an HTML document stored as an arena
type Tree struct {
	nodes []Node
}

// NewTree returns a tree holding only the document node
func NewTree() *Tree {
	return &Tree{nodes: []Node{{Type: DocumentNode, Parent: Deleted}}}
}

// Root returns the document node
func (t *Tree) Root() NodeID {
	return 0
}

// Len returns the number of nodes ever allocated, detached ones included
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node stored under id. The pointer is valid until the
// next call to NewNode.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// NewNode allocates a detached node
func (t *Tree) NewNode(typ NodeType, data string, attrs ...Attribute) NodeID {
	t.nodes = append(t.nodes, Node{Type: typ, Data: data, Attr: attrs, Parent: Deleted})
	return NodeID(len(t.nodes) - 1)
}

// AppendChild attaches child as the last child of parent
func (t *Tree) AppendChild(parent, child NodeID) {
	t.detach(child)
	t.nodes[child].Parent = parent
	t.nodes[parent].Children = append(t.nodes[parent].Children, child)
}

// InsertChild attaches child at position index of parent's children
func (t *Tree) InsertChild(parent NodeID, index int, child NodeID) {
	t.detach(child)
	children := t.nodes[parent].Children
	if index < 0 || index > len(children) {
		index = len(children)
	}
	children = append(children, 0)
	copy(children[index+1:], children[index:])
	children[index] = child
	t.nodes[parent].Children = children
	t.nodes[child].Parent = parent
}

func (t *Tree) detach(id NodeID) {
	parent := t.nodes[id].Parent
	if parent == Deleted {
		return
	}
	children := t.nodes[parent].Children
	for i, c := range children {
		if c == id {
			t.nodes[parent].Children = append(children[:i:i], children[i+1:]...)
			break
		}
	}
	t.nodes[id].Parent = Deleted
}

// Walk visits nodes below the document in document order. Returning false
// from fn skips the children of the visited node.
func (t *Tree) Walk(fn func(id NodeID) bool) {
	t.walk(t.Root(), fn)
}

func (t *Tree) walk(id NodeID, fn func(NodeID) bool) {
	for _, child := range t.nodes[id].Children {
		if fn(child) {
			t.walk(child, fn)
		}
	}
}

// Elements returns every element in document order
func (t *Tree) Elements() []NodeID {
	var out []NodeID
	t.Walk(func(id NodeID) bool {
		if t.nodes[id].Type == ElementNode {
			out = append(out, id)
		}
		return true
	})
	return out
}

// Find returns the first element with the given tag, or Deleted
func (t *Tree) Find(tag string) NodeID {
	found := Deleted
	t.Walk(func(id NodeID) bool {
		if found != Deleted {
			return false
		}
		n := &t.nodes[id]
		if n.Type == ElementNode && n.Data == tag {
			found = id
			return false
		}
		return true
	})
	return found
}

// Transformer inspects a node and returns the node to keep in its place:
// id itself, a replacement, or Deleted.
type Transformer func(id NodeID) NodeID

// Transform applies fn to every node below the document. Children are
// handled before their parent and each child list is rebuilt after its
// members were visited, so deletions never disturb the traversal.
func (t *Tree) Transform(fn Transformer) {
	t.transform(t.Root(), fn)
}

func (t *Tree) transform(id NodeID, fn Transformer) {
	children := t.nodes[id].Children
	kept := children[:0:0]
	for _, child := range children {
		t.transform(child, fn)
		switch repl := fn(child); repl {
		case Deleted:
			t.nodes[child].Parent = Deleted
		default:
			if repl != child {
				t.nodes[child].Parent = Deleted
			}
			t.nodes[repl].Parent = id
			kept = append(kept, repl)
		}
	}
	t.nodes[id].Children = kept
}

// Attr returns the value of attribute key on id
func (t *Tree) Attr(id NodeID, key string) (string, bool) {
	for _, a := range t.nodes[id].Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr replaces the value of key or appends it
func (t *Tree) SetAttr(id NodeID, key, val string) {
	n := &t.nodes[id]
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, Attribute{Key: key, Val: val})
}

// RemoveAttr drops every listed attribute from id
func (t *Tree) RemoveAttr(id NodeID, keys ...string) {
	n := &t.nodes[id]
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		drop := false
		for _, k := range keys {
			if a.Key == k {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}

// Classes splits the class attribute of id on whitespace
func (t *Tree) Classes(id NodeID) []string {
	v, ok := t.Attr(id, "class")
	if !ok {
		return nil
	}
	return strings.Fields(v)
}

// Tag returns the tag name of an element, or "" for other nodes
func (t *Tree) Tag(id NodeID) string {
	n := &t.nodes[id]
	if n.Type != ElementNode {
		return ""
	}
	return n.Data
}
