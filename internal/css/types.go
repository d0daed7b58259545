package css

import (
	"strings"
)

// Kind identifies what a stylesheet Node represents
type Kind uint8

const (
	KindRoot Kind = iota
	KindRule
	KindAtRule
	KindDecl
	KindComment
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindRule:
		return "rule"
	case KindAtRule:
		return "atrule"
	case KindDecl:
		return "decl"
	case KindComment:
		return "comment"
	}
	return "unknown"
}

// Node is a single entry of a parsed stylesheet. Which fields are meaningful
// depends on Kind:
//
//	KindRule     Selector, Nodes
//	KindAtRule   Name, Params, Nodes (HasBlock reports whether a block was present)
//	KindDecl     Prop, Value, Important
//	KindComment  Text
//
// Every node except the root keeps a pointer to its parent so the ancestor
// chain can be inspected by the classifier and the variable resolver.
type Node struct {
	Kind Kind

	Selector string

	Name     string
	Params   string
	HasBlock bool

	Prop      string
	Value     string
	Important bool

	Text string

	Nodes  []*Node
	Parent *Node
}

// NewRoot creates an empty stylesheet
func NewRoot() *Node {
	return &Node{Kind: KindRoot}
}

// NewRule creates a detached rule with the given selector
func NewRule(selector string) *Node {
	return &Node{Kind: KindRule, Selector: selector}
}

// NewAtRule creates a detached at-rule; name is given without the leading '@'
func NewAtRule(name, params string) *Node {
	return &Node{Kind: KindAtRule, Name: name, Params: params, HasBlock: true}
}

// NewDecl creates a detached declaration
func NewDecl(prop, value string, important bool) *Node {
	return &Node{Kind: KindDecl, Prop: prop, Value: value, Important: important}
}

// IsCustomProperty reports whether a declaration defines a --variable
func (n *Node) IsCustomProperty() bool {
	return n.Kind == KindDecl && strings.HasPrefix(n.Prop, "--")
}

// Append adds child as the last child of n
func (n *Node) Append(children ...*Node) {
	for _, child := range children {
		child.Parent = n
		n.Nodes = append(n.Nodes, child)
	}
}

// Prepend inserts child as the first child of n
func (n *Node) Prepend(child *Node) {
	child.Parent = n
	n.Nodes = append([]*Node{child}, n.Nodes...)
}

// index returns the position of child among n's children or -1
func (n *Node) index(child *Node) int {
	for i, c := range n.Nodes {
		if c == child {
			return i
		}
	}
	return -1
}

// InsertAfter places sibling right after n inside n's parent
func (n *Node) InsertAfter(sibling *Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	i := parent.index(n)
	if i < 0 {
		return
	}
	sibling.Parent = parent
	parent.Nodes = append(parent.Nodes, nil)
	copy(parent.Nodes[i+2:], parent.Nodes[i+1:])
	parent.Nodes[i+1] = sibling
}

// Remove detaches n from its parent
func (n *Node) Remove() {
	parent := n.Parent
	if parent == nil {
		return
	}
	if i := parent.index(n); i >= 0 {
		parent.Nodes = append(parent.Nodes[:i], parent.Nodes[i+1:]...)
	}
	n.Parent = nil
}

// Clone returns a deep copy of n. The copy is detached: its Parent is nil.
func (n *Node) Clone() *Node {
	c := *n
	c.Parent = nil
	c.Nodes = nil
	for _, child := range n.Nodes {
		cc := child.Clone()
		cc.Parent = &c
		c.Nodes = append(c.Nodes, cc)
	}
	return &c
}

// Walk visits every descendant of n in document order. Returning false from
// fn stops the walk; Walk reports whether it ran to completion.
//
// Children are read by index on every step, so fn may insert siblings after
// the current node (they are visited next) or replace the current node's value.
func (n *Node) Walk(fn func(*Node) bool) bool {
	for i := 0; i < len(n.Nodes); i++ {
		child := n.Nodes[i]
		if !fn(child) {
			return false
		}
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// WalkRules visits every rule below n
func (n *Node) WalkRules(fn func(*Node)) {
	n.Walk(func(c *Node) bool {
		if c.Kind == KindRule {
			fn(c)
		}
		return true
	})
}

// WalkDecls visits every declaration below n
func (n *Node) WalkDecls(fn func(*Node)) {
	n.Walk(func(c *Node) bool {
		if c.Kind == KindDecl {
			fn(c)
		}
		return true
	})
}

// WalkAtRules visits every at-rule below n with the given name, or every
// at-rule when name is empty
func (n *Node) WalkAtRules(name string, fn func(*Node)) {
	n.Walk(func(c *Node) bool {
		if c.Kind == KindAtRule && (name == "" || c.Name == name) {
			fn(c)
		}
		return true
	})
}

// Decls returns the declarations directly inside n
func (n *Node) Decls() []*Node {
	var decls []*Node
	for _, c := range n.Nodes {
		if c.Kind == KindDecl {
			decls = append(decls, c)
		}
	}
	return decls
}

// ClosestRule returns the nearest enclosing rule, or nil
func (n *Node) ClosestRule() *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Kind == KindRule {
			return p
		}
	}
	return nil
}

// String serializes the node back to CSS text
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	switch n.Kind {
	case KindRoot:
		for i, c := range n.Nodes {
			if i > 0 {
				sb.WriteByte('\n')
			}
			c.write(sb)
		}
	case KindRule:
		sb.WriteString(n.Selector)
		writeBlock(sb, n.Nodes)
	case KindAtRule:
		sb.WriteByte('@')
		sb.WriteString(n.Name)
		if n.Params != "" {
			sb.WriteByte(' ')
			sb.WriteString(n.Params)
		}
		if n.HasBlock {
			writeBlock(sb, n.Nodes)
		} else {
			sb.WriteByte(';')
		}
	case KindDecl:
		sb.WriteString(n.Prop)
		sb.WriteString(": ")
		sb.WriteString(n.Value)
		if n.Important {
			sb.WriteString(" !important")
		}
	case KindComment:
		sb.WriteString("/*")
		sb.WriteString(n.Text)
		sb.WriteString("*/")
	}
}

func writeBlock(sb *strings.Builder, nodes []*Node) {
	sb.WriteString(" {")
	for _, c := range nodes {
		sb.WriteByte(' ')
		c.write(sb)
		if c.Kind == KindDecl {
			sb.WriteByte(';')
		}
	}
	sb.WriteString(" }")
}
