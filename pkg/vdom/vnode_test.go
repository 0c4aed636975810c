package vdom

import "testing"

func TestElementAdoptsChildren(t *testing.T) {
	child := Text("hi")
	n := Element("DIV", nil, child)

	if n.Tag != "div" {
		t.Errorf("Tag = %q, want div", n.Tag)
	}
	if child.Parent != n {
		t.Error("child.Parent should be the element")
	}
	if n.Props == nil {
		t.Error("Props should be initialised")
	}
}

func TestAppendChildDetaches(t *testing.T) {
	a := Element("div", nil)
	b := Element("div", nil)
	c := Text("x")

	a.AppendChild(c)
	b.AppendChild(c)

	if len(a.Children) != 0 {
		t.Errorf("a has %d children, want 0", len(a.Children))
	}
	if len(b.Children) != 1 || c.Parent != b {
		t.Error("c should now belong to b")
	}
}

func TestInsertAtClamps(t *testing.T) {
	p := Element("ul", nil, Element("li", Props{"id": "1"}), Element("li", Props{"id": "2"}))
	first := Element("li", Props{"id": "0"})
	last := Element("li", Props{"id": "3"})

	p.InsertAt(-5, first)
	p.InsertAt(99, last)

	var ids []string
	for _, c := range p.Children {
		id, _ := c.Attr("id")
		ids = append(ids, id)
	}
	want := "0123"
	if got := ids[0] + ids[1] + ids[2] + ids[3]; got != want {
		t.Errorf("order = %q, want %q", got, want)
	}
}

func TestRemoveAndIndex(t *testing.T) {
	a, b := Text("a"), Text("b")
	p := Element("p", nil, a, b)

	if b.Index() != 1 {
		t.Errorf("Index = %d, want 1", b.Index())
	}
	a.Remove()
	if b.Index() != 0 {
		t.Errorf("Index after remove = %d, want 0", b.Index())
	}
	if a.Parent != nil || a.Index() != -1 {
		t.Error("removed node should be detached")
	}
	a.Remove() // detached: no-op
	if len(p.Children) != 1 {
		t.Errorf("children = %d, want 1", len(p.Children))
	}
}

func TestReplaceWith(t *testing.T) {
	old := Text("old")
	p := Element("p", nil, Text("a"), old, Text("z"))

	old.ReplaceWith(Text("b"), Text("c"))

	if got := TextContent(p); got != "abcz" {
		t.Errorf("TextContent = %q, want abcz", got)
	}
	if old.Parent != nil {
		t.Error("replaced node should be detached")
	}
}

func TestConnected(t *testing.T) {
	doc := NewDocument()
	div := Element("div", nil)
	span := Element("span", nil)
	div.AppendChild(span)

	if span.Connected() {
		t.Error("span should not be connected before attaching")
	}
	doc.AppendChild(div)
	if !span.Connected() {
		t.Error("span should be connected")
	}
	div.Remove()
	if span.Connected() {
		t.Error("span should be disconnected after removal")
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := Element("div", Props{"class": "a"}, Element("span", nil, Text("x")))
	orig.Owner = "owner"
	doc := NewDocument()
	doc.AppendChild(orig)

	c := orig.Clone()
	c.SetAttr("class", "b")
	c.Children[0].Children[0].Text = "y"

	if v, _ := orig.Attr("class"); v != "a" {
		t.Errorf("original class = %q, want a", v)
	}
	if TextContent(orig) != "x" {
		t.Error("original text changed")
	}
	if c.Parent != nil || c.Owner != nil {
		t.Error("clone should have no parent or owner")
	}
	if c.Children[0].Parent != c {
		t.Error("cloned children should point at the clone")
	}
}

func TestFindAllStop(t *testing.T) {
	root := Element("div", nil,
		Element("slot", nil),
		Element("card-view", nil, Element("slot", nil)),
		Element("p", nil, Element("slot", nil)),
	)

	isSlot := func(n *VNode) bool { return n.IsElement("slot") }
	stop := func(n *VNode) bool { return n.IsElement("card-view") }

	if got := len(FindAll(root, isSlot, nil)); got != 3 {
		t.Errorf("FindAll without stop = %d, want 3", got)
	}
	if got := len(FindAll(root, isSlot, stop)); got != 2 {
		t.Errorf("FindAll with stop = %d, want 2", got)
	}
}

func TestSpliceKeepsLiveParent(t *testing.T) {
	live := Element("section", nil)
	owned := Element("todo-item", nil)
	live.AppendChild(owned)

	placeholder := Element("todo-item", nil)
	next := Element("div", nil, Text("a"), placeholder, Text("b"))

	placeholder.Splice(owned)

	if owned.Parent != live {
		t.Error("Splice must not detach the embedded node")
	}
	if next.Children[1] != owned {
		t.Error("owned node should occupy the placeholder position")
	}
	if len(next.Children) != 3 {
		t.Errorf("children = %d, want 3", len(next.Children))
	}

	Adopt(next)
	if owned.Parent != next {
		t.Error("Adopt should move the embedded node")
	}
	if len(live.Children) != 0 {
		t.Error("Adopt should detach the node from its previous parent")
	}
}

func TestAttrKeysSorted(t *testing.T) {
	n := Element("div", Props{"style": "", "class": "", "id": ""})
	keys := n.AttrKeys()
	want := []string{"class", "id", "style"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("AttrKeys = %v, want %v", keys, want)
		}
	}
}

func TestPropString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{true, "true"},
		{42, "42"},
		{int64(7), "7"},
		{1.5, "1.5"},
		{KindText, "Text"},
	}
	for _, tt := range tests {
		if got := PropString(tt.in); got != tt.want {
			t.Errorf("PropString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
