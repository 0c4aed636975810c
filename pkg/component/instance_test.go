package component

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sipa-dev/sipa/pkg/render"
	"github.com/sipa-dev/sipa/pkg/vdom"
)

func listDef() *Spec {
	return Define("TodoList", func(a Attributes) (string, error) {
		return fmt.Sprintf(`<h1>%v</h1><todo-item sipa-alias="first" label="%v"></todo-item><todo-item label="second"></todo-item>`,
			a["title"], a["label"]), nil
	})
}

func TestFirstRender(t *testing.T) {
	eng := newTestEngine()
	eng.Register(itemDef())
	lists := eng.Register(listDef())

	l := mustNew(t, lists, Attributes{"title": "Todo", "label": "x"})

	want := `<todo-list sipa-id="1"><h1>Todo</h1>` +
		`<todo-item sipa-alias="first" sipa-id="2"><span>x</span></todo-item>` +
		`<todo-item sipa-id="3"><span>second</span></todo-item></todo-list>`
	if got := l.Markup(); got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
	if l.State() != StateDetached {
		t.Errorf("State = %v, want detached", l.State())
	}
	if len(l.Children()) != 2 {
		t.Fatalf("children = %d, want 2", len(l.Children()))
	}
	first, ok := l.Child("first")
	if !ok || first.Parent() != l || first.TopAncestor() != l {
		t.Error("first child should be owned by the list")
	}
	if _, ok := l.Child("3"); !ok {
		t.Error("unaliased child should be keyed by its identity")
	}
}

func TestIdentityStability(t *testing.T) {
	eng := newTestEngine()
	eng.Register(itemDef())
	lists := eng.Register(listDef())
	l := mustNew(t, lists, Attributes{"title": "Todo", "label": "x"})
	mount(t, l)

	first, _ := l.Child("first")
	firstNode := first.Node()
	second := l.Children()["3"]
	secondNode := second.Node()
	rootNode := l.Node()

	for n := 0; n < 5; n++ {
		if err := l.Update(Attributes{"title": fmt.Sprintf("T%d", n), "label": fmt.Sprintf("L%d", n)}); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	if got, _ := l.Child("first"); got != first {
		t.Error("aliased child was replaced")
	}
	if first.Node() != firstNode || first.ID() != 2 {
		t.Error("aliased child lost its node or identity")
	}
	if l.Children()["3"] != second || second.Node() != secondNode {
		t.Error("positional child was replaced")
	}
	if l.Node() != rootNode {
		t.Error("root node was replaced")
	}
	if got := first.Get("label"); got != "L4" {
		t.Errorf("pushed label = %v, want L4", got)
	}
	if !strings.Contains(l.Markup(), "<h1>T4</h1><todo-item sipa-alias=\"first\" sipa-id=\"2\"><span>L4</span>") {
		t.Errorf("markup not updated: %s", l.Markup())
	}
}

func TestTypeChangeReplacesChild(t *testing.T) {
	eng := newTestEngine()
	eng.Register(itemDef())
	eng.Register(Define("OtherItem", func(Attributes) (string, error) { return "other", nil }))
	swap := eng.Register(Define("Swapper", func(a Attributes) (string, error) {
		return fmt.Sprintf(`<%s sipa-alias="slot"></%s>`, a["tag"], a["tag"]), nil
	}))

	s := mustNew(t, swap, Attributes{"tag": "todo-item"})
	old, _ := s.Child("slot")
	var destroyed bool
	old.Events().Subscribe(EventDestroy, func(Event) { destroyed = true })

	if err := s.Update(Attributes{"tag": "other-item"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	cur, _ := s.Child("slot")
	if cur == old || cur.Type().Tag() != "other-item" {
		t.Fatal("child should have been replaced by an other-item")
	}
	if !destroyed || old.State() != StateDestroyed {
		t.Error("previous child should be destroyed")
	}
	if _, ok := eng.Lookup(old.ID()); ok {
		t.Error("previous child should leave the registry")
	}
}

func TestRenderCaching(t *testing.T) {
	eng := newTestEngine()
	eng.Register(itemDef())
	var c counter
	def := listDef()
	def.template = c.wrap(def.template)
	l := mustNew(t, eng.Register(def), Attributes{"title": "a", "label": "b"})

	m1 := l.Markup()
	m2 := l.Markup()
	if m1 != m2 {
		t.Error("consecutive Markup calls differ")
	}
	if c.n != 1 {
		t.Errorf("template evaluated %d times, want 1", c.n)
	}

	// A child render refreshes the parent's markup without evaluating the
	// parent template.
	first, _ := l.Child("first")
	if err := first.Update(Attributes{"label": "changed"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !strings.Contains(l.Markup(), "<span>changed</span>") {
		t.Errorf("parent markup is stale: %s", l.Markup())
	}
	if c.n != 1 {
		t.Errorf("parent template evaluated %d times, want 1", c.n)
	}

	if err := l.Update(nil); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if c.n != 2 {
		t.Errorf("template evaluated %d times after update, want 2", c.n)
	}
}

func TestShowHideRoundTrip(t *testing.T) {
	eng := newTestEngine()
	eng.Register(itemDef())
	styled := eng.Register(Define("Panel", func(Attributes) (string, error) {
		return `<panel class="box" style="color:red"><p>hi</p></panel>`, nil
	}))
	p := mustNew(t, styled, nil, WithClasses("wide"))

	before := p.Markup()
	if before != `<panel class="box wide" sipa-id="1" style="color:red"><p>hi</p></panel>` {
		t.Fatalf("unexpected markup %q", before)
	}

	p.Hide()
	if p.Visible() {
		t.Error("Visible should be false")
	}
	if got, _ := p.Node().Attr("style"); got != "color:red;display:none" {
		t.Errorf("hidden style = %q", got)
	}

	p.Show()
	if after := p.Markup(); after != before {
		t.Errorf("round trip changed markup:\n%q\n%q", before, after)
	}
}

func TestHiddenSurvivesRender(t *testing.T) {
	eng := newTestEngine()
	items := eng.Register(itemDef())
	i := mustNew(t, items, Attributes{"label": "a"}, Hidden())

	if err := i.Update(Attributes{"label": "b"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	want := `<todo-item sipa-id="1" style="display:none"><span>b</span></todo-item>`
	if got := i.Markup(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestClasses(t *testing.T) {
	eng := newTestEngine()
	items := eng.Register(itemDef())
	i := mustNew(t, items, nil)

	i.AddClass("a", "b", "a")
	if diff := cmp.Diff([]string{"a", "b"}, i.Classes()); diff != "" {
		t.Errorf("classes mismatch (-want +got):\n%s", diff)
	}
	if got, _ := i.Node().Attr("class"); got != "a b" {
		t.Errorf("class = %q", got)
	}

	i.RemoveClass("a")
	if !i.HasClass("b") || i.HasClass("a") {
		t.Error("RemoveClass did not remove a")
	}

	i.RemoveClass("b")
	if _, ok := i.Node().Attr("class"); ok {
		t.Error("class attribute should be removed when empty")
	}
}

func TestChildClassesFromTemplate(t *testing.T) {
	eng := newTestEngine()
	eng.Register(itemDef())
	wrap := eng.Register(Define("Wrapper", func(Attributes) (string, error) {
		return `<todo-item class="big red" label="x"></todo-item>`, nil
	}))
	w := mustNew(t, wrap, nil)

	child := w.Children()["2"]
	if diff := cmp.Diff([]string{"big", "red"}, child.Classes()); diff != "" {
		t.Errorf("classes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Attributes{"label": "x"}, child.Attributes()); diff != "" {
		t.Errorf("attributes mismatch (-want +got):\n%s", diff)
	}
}

func TestTypedChildAttributes(t *testing.T) {
	eng := newTestEngine()
	eng.Register(itemDef())
	wrap := eng.Register(Define("Wrapper", func(Attributes) (string, error) {
		return `<todo-item label="plain" sipa-attrs='{"label": "typed", "count": 3, "done": true}'></todo-item>`, nil
	}))
	w := mustNew(t, wrap, nil)

	want := Attributes{"label": "typed", "count": 3.0, "done": true}
	if diff := cmp.Diff(want, w.Children()["2"].Attributes()); diff != "" {
		t.Errorf("attributes mismatch (-want +got):\n%s", diff)
	}
}

func TestInvalidTypedAttributes(t *testing.T) {
	eng := newTestEngine()
	eng.Register(itemDef())
	wrap := eng.Register(Define("Wrapper", func(Attributes) (string, error) {
		return `<todo-item sipa-attrs="not json"></todo-item>`, nil
	}))
	if _, err := wrap.New(nil); err == nil || !strings.HasPrefix(err.Error(), "S106") {
		t.Errorf("err = %v, want S106", err)
	}
}

func TestDuplicateAlias(t *testing.T) {
	eng := newTestEngine()
	eng.Register(itemDef())
	dup := eng.Register(Define("Dup", func(Attributes) (string, error) {
		return `<todo-item sipa-alias="a"></todo-item><todo-item sipa-alias="a"></todo-item>`, nil
	}))
	_, err := dup.New(nil)
	if err == nil || !strings.HasPrefix(err.Error(), "S104") {
		t.Fatalf("err = %v, want S104", err)
	}
	for _, i := range eng.Instances() {
		t.Errorf("instance %d (%s) leaked after failed construction", i.ID(), i.Type().Tag())
	}
}

func TestMountPromotesParentFirst(t *testing.T) {
	eng := newTestEngine()
	var order []string
	item := itemDef()
	item.onInit = func(i *Instance) { order = append(order, "item") }
	eng.Register(item)
	list := listDef()
	list.onInit = func(i *Instance) { order = append(order, "list") }
	l := mustNew(t, eng.Register(list), Attributes{"title": "T"})

	var inits int
	l.Events().Subscribe(EventInit, func(Event) { inits++ })

	mount(t, l)
	if l.State() != StateLive {
		t.Errorf("State = %v, want live", l.State())
	}
	if diff := cmp.Diff([]string{"list", "item", "item"}, order); diff != "" {
		t.Errorf("init order mismatch (-want +got):\n%s", diff)
	}

	// Re-rendering a live tree does not fire init again.
	if err := l.Update(Attributes{"title": "U"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if inits != 1 || len(order) != 3 {
		t.Errorf("init fired again: inits=%d order=%v", inits, order)
	}
}

func TestMountDestroyed(t *testing.T) {
	eng := newTestEngine()
	i := mustNew(t, eng.Register(itemDef()), nil)
	i.Destroy()
	if err := i.Mount(vdom.NewDocument()); err == nil {
		t.Error("Mount of a destroyed instance should fail")
	}
}

func TestMountIntoListContainer(t *testing.T) {
	eng := newTestEngine()
	items := eng.Register(itemDef())
	shell := eng.Register(Define("Shell", func(Attributes) (string, error) {
		return `<nav>menu</nav><main sipa-list="page"></main>`, nil
	}))
	s := mustNew(t, shell, nil)
	mount(t, s)

	page := mustNew(t, items, Attributes{"label": "home"})
	main := vdom.FindAll(s.Node(), func(n *vdom.VNode) bool { return n.IsElement("main") }, nil)[0]
	if err := page.Mount(main); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if page.Parent() != s || page.State() != StateLive {
		t.Error("page should be owned by the shell and live")
	}

	// The page survives a re-render of the shell.
	if err := s.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if page.Node().Parent == nil || page.Node().Parent.Tag != "main" {
		t.Error("page node should still be in the container")
	}
}

func TestInitAdoptsDeclaredElements(t *testing.T) {
	eng := newTestEngine()
	var order []string
	item := itemDef()
	item.onInit = func(*Instance) { order = append(order, "item") }
	eng.Register(item)
	cards := eng.Register(Define("CardView", func(a Attributes) (string, error) {
		return fmt.Sprintf(`<h2>%v</h2><slot/>`, a["title"]), nil
	}, OnInit(func(*Instance) { order = append(order, "card") })))

	doc := vdom.NewDocument()
	if err := vdom.ParseInto(doc, `<div id="app"><card-view title="Hi" sipa-alias="c"><todo-item label="q"></todo-item></card-view></div>`); err != nil {
		t.Fatalf("ParseInto: %v", err)
	}

	adopted, err := cards.Init(doc)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if len(adopted) != 1 {
		t.Fatalf("adopted %d, want 1", len(adopted))
	}
	card := adopted[0]
	if card.State() != StateLive || card.Alias() != "c" {
		t.Errorf("card state=%v alias=%q", card.State(), card.Alias())
	}
	if diff := cmp.Diff([]string{"card", "item"}, order); diff != "" {
		t.Errorf("init order mismatch (-want +got):\n%s", diff)
	}

	want := `<div id="app"><card-view sipa-alias="c" sipa-id="1"><h2>Hi</h2>` +
		`<todo-item sipa-id="2"><span>q</span></todo-item></card-view></div>`
	if got := render.String(doc); got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}

	// A second pass finds nothing new.
	again, err := cards.Init(doc)
	if err != nil || len(again) != 0 {
		t.Errorf("second Init adopted %d (err %v)", len(again), err)
	}
}

func TestFromNode(t *testing.T) {
	eng := newTestEngine()
	eng.Register(itemDef())
	l := mustNew(t, eng.Register(listDef()), Attributes{"label": "x"})
	first, _ := l.Child("first")

	span := first.Node().Children[0]
	if got, ok := eng.FromNode(span); !ok || got != first {
		t.Error("FromNode should find the nearest owning instance")
	}
	if got, ok := eng.FromNode(l.Node().Children[0]); !ok || got != l {
		t.Error("FromNode should find the list for its heading")
	}
	if _, ok := eng.FromNode(vdom.Element("div", nil)); ok {
		t.Error("unmanaged node should not resolve")
	}
}
