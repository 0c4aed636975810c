package vdom

import (
	"sort"
	"strings"
)

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement  VKind = iota // <div>, <todo-item>, etc.
	KindText                  // Plain text node
	KindDocument              // Root of a visible tree
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindDocument:
		return "Document"
	default:
		return "Unknown"
	}
}

// Props holds element attributes.
type Props map[string]any

// VNode is a node of the visual tree.
type VNode struct {
	Kind     VKind    // Node type
	Tag      string   // Element tag name (e.g., "div")
	Props    Props    // Attributes
	Children []*VNode // Child nodes
	Text     string   // For KindText
	Parent   *VNode   // Enclosing node, nil when detached

	// Owner is the component instance that owns this node as its root.
	// Reconcile treats owned nodes as opaque.
	Owner any
}

// Element creates an element node and adopts the given children.
func Element(tag string, props Props, children ...*VNode) *VNode {
	if props == nil {
		props = make(Props)
	}
	n := &VNode{Kind: KindElement, Tag: strings.ToLower(tag), Props: props}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

// Text creates a text node.
func Text(s string) *VNode {
	return &VNode{Kind: KindText, Text: s}
}

// NewDocument creates an empty document node.
func NewDocument() *VNode {
	return &VNode{Kind: KindDocument, Tag: "#document", Props: make(Props)}
}

// IsElement reports whether n is an element, optionally with the given tag.
func (n *VNode) IsElement(tag ...string) bool {
	if n == nil || n.Kind != KindElement {
		return false
	}
	if len(tag) == 0 {
		return true
	}
	for _, t := range tag {
		if n.Tag == t {
			return true
		}
	}
	return false
}

// Attr returns the attribute value rendered as a string.
func (n *VNode) Attr(key string) (string, bool) {
	if n == nil || n.Props == nil {
		return "", false
	}
	v, ok := n.Props[key]
	if !ok {
		return "", false
	}
	return PropString(v), true
}

// SetAttr sets an attribute.
func (n *VNode) SetAttr(key string, value any) {
	if n.Props == nil {
		n.Props = make(Props)
	}
	n.Props[key] = value
}

// RemoveAttr deletes an attribute.
func (n *VNode) RemoveAttr(key string) {
	delete(n.Props, key)
}

// AttrKeys returns the attribute names in sorted order.
func (n *VNode) AttrKeys() []string {
	keys := make([]string, 0, len(n.Props))
	for k := range n.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AppendChild detaches c from its current parent and appends it to n.
func (n *VNode) AppendChild(c *VNode) {
	if c == nil {
		return
	}
	c.Remove()
	c.Parent = n
	n.Children = append(n.Children, c)
}

// InsertAt detaches c and inserts it at index i of n's children.
func (n *VNode) InsertAt(i int, c *VNode) {
	c.Remove()
	if i < 0 {
		i = 0
	}
	if i > len(n.Children) {
		i = len(n.Children)
	}
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = c
	c.Parent = n
}

// SetChildren replaces n's children, detaching every new child from its
// previous parent first.
func (n *VNode) SetChildren(children []*VNode) {
	for _, old := range n.Children {
		if old.Parent == n {
			old.Parent = nil
		}
	}
	n.Children = nil
	for _, c := range children {
		n.AppendChild(c)
	}
}

// Index returns the position of n within its parent, or -1.
func (n *VNode) Index() int {
	if n == nil || n.Parent == nil {
		return -1
	}
	for i, c := range n.Parent.Children {
		if c == n {
			return i
		}
	}
	return -1
}

// Remove detaches n from its parent. Detached nodes are left alone.
func (n *VNode) Remove() {
	if n == nil || n.Parent == nil {
		return
	}
	p := n.Parent
	if i := n.Index(); i >= 0 {
		p.Children = append(p.Children[:i], p.Children[i+1:]...)
	}
	n.Parent = nil
}

// ReplaceWith puts the given nodes at n's position and detaches n.
func (n *VNode) ReplaceWith(nodes ...*VNode) {
	p := n.Parent
	if p == nil {
		return
	}
	i := n.Index()
	n.Remove()
	for j, c := range nodes {
		p.InsertAt(i+j, c)
	}
}

// Connected reports whether n is reachable from a document node.
func (n *VNode) Connected() bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Kind == KindDocument {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of n without parent or owner.
func (n *VNode) Clone() *VNode {
	if n == nil {
		return nil
	}
	c := &VNode{Kind: n.Kind, Tag: n.Tag, Text: n.Text}
	if n.Props != nil {
		c.Props = make(Props, len(n.Props))
		for k, v := range n.Props {
			c.Props[k] = v
		}
	}
	for _, child := range n.Children {
		c.AppendChild(child.Clone())
	}
	return c
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the visited node.
func Walk(n *VNode, fn func(*VNode) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	// Copy so fn may restructure the tree under the visited node.
	children := append([]*VNode(nil), n.Children...)
	for _, c := range children {
		Walk(c, fn)
	}
}

// FindAll returns the descendants of n (excluding n) that match pred, in
// document order. Subtrees for which stop returns true are not entered.
func FindAll(n *VNode, pred, stop func(*VNode) bool) []*VNode {
	var out []*VNode
	for _, c := range n.Children {
		Walk(c, func(v *VNode) bool {
			if pred(v) {
				out = append(out, v)
			}
			return stop == nil || !stop(v)
		})
	}
	return out
}

// TextContent concatenates the text of n's descendants.
func TextContent(n *VNode) string {
	var b strings.Builder
	Walk(n, func(v *VNode) bool {
		if v.Kind == KindText {
			b.WriteString(v.Text)
		}
		return true
	})
	return b.String()
}

// Embed appends c to n's children without detaching c from the tree it
// currently belongs to. It lets a freshly built tree reference live nodes;
// Adopt or Reconcile settles the parent pointers afterwards.
func (n *VNode) Embed(c *VNode) {
	n.Children = append(n.Children, c)
	if c.Parent == nil {
		c.Parent = n
	}
}

// Splice replaces n at its position in its parent with nodes, using Embed
// semantics for the inserted nodes.
func (n *VNode) Splice(nodes ...*VNode) {
	p := n.Parent
	if p == nil {
		return
	}
	i := n.Index()
	if i < 0 {
		return
	}
	rest := append([]*VNode(nil), p.Children[i+1:]...)
	p.Children = p.Children[:i]
	n.Parent = nil
	for _, c := range nodes {
		p.Embed(c)
	}
	p.Children = append(p.Children, rest...)
}

// Adopt makes every node under root point at its actual parent, detaching
// embedded nodes from the trees they were borrowed from.
func Adopt(root *VNode) {
	for _, c := range append([]*VNode(nil), root.Children...) {
		if c.Parent != root {
			c.Remove()
			c.Parent = root
		}
		if c.Owner == nil {
			Adopt(c)
		}
	}
}
