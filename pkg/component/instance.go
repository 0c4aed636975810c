package component

import (
	"sort"
	"strconv"
	"strings"
	"time"

	serrors "github.com/sipa-dev/sipa/internal/errors"
	"github.com/sipa-dev/sipa/pkg/render"
	"github.com/sipa-dev/sipa/pkg/vdom"
)

// State is the lifecycle state of an instance.
type State uint8

const (
	// StateDetached instances are registered but not reachable from a
	// document.
	StateDetached State = iota
	// StateLive instances have been attached to a document at least once.
	StateLive
	StateDestroying
	StateDestroyed
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateDetached:
		return "detached"
	case StateLive:
		return "live"
	case StateDestroying:
		return "destroying"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Instance is a live component.
type Instance struct {
	engine *Engine
	typ    *Type
	def    Definition

	id    uint64
	alias string
	state State

	attrs  Attributes
	parent *Instance

	// children holds every owned instance: template positions, aliased
	// positions and list members, keyed by alias.
	children   map[string]*Instance
	positional []*Instance
	listed     map[*Instance]string
	lists      map[string]bool
	transfers  map[string]*Instance
	pushed     Attributes

	classes    []string
	visible    bool
	baseClass  string
	baseStyle  string
	declared   []*vdom.VNode
	programmed []*vdom.VNode

	node   *vdom.VNode
	markup string
	stale  bool

	events *EventBus

	period       time.Duration
	periodSet    bool
	lastRender   time.Time
	timer        Timer
	pendingAfter []UpdateOptions
	dirty        bool

	// immediate is set while an Immediate update renders; attributes pushed
	// to children during that render skip their coalescing windows too.
	immediate bool

	rendering      bool
	destroyPending bool
	destroyForce   bool
}

// Option configures an instance at construction.
type Option func(*Instance) error

// WithAlias sets the sibling-unique alias.
func WithAlias(alias string) Option {
	return func(i *Instance) error {
		i.alias = alias
		return nil
	}
}

// WithClasses sets the initial CSS classes.
func WithClasses(classes ...string) Option {
	return func(i *Instance) error {
		for _, c := range classes {
			i.addClass(c)
		}
		return nil
	}
}

// WithContent adds programmatic slot content, routed after any declared
// content.
func WithContent(markup string) Option {
	return func(i *Instance) error {
		nodes, err := vdom.Parse(markup)
		if err != nil {
			return serrors.New("S102").WithComponent(i.typ.tag).Wrap(err)
		}
		i.programmed = append(i.programmed, nodes...)
		return nil
	}
}

// WithRenderPeriod overrides the engine render period for this instance.
func WithRenderPeriod(d time.Duration) Option {
	return func(i *Instance) error {
		if d < 0 {
			d = 0
		}
		i.period = d
		i.periodSet = true
		return nil
	}
}

// Hidden constructs the instance hidden.
func Hidden() Option {
	return func(i *Instance) error {
		i.visible = false
		return nil
	}
}

func withDeclared(nodes []*vdom.VNode) Option {
	return func(i *Instance) error {
		i.declared = append(i.declared, nodes...)
		return nil
	}
}

func withParent(p *Instance) Option {
	return func(i *Instance) error {
		i.parent = p
		return nil
	}
}

// ID returns the instance identity.
func (i *Instance) ID() uint64 { return i.id }

// Alias returns the alias, or the decimal identity when none was given.
func (i *Instance) Alias() string {
	if i.alias != "" {
		return i.alias
	}
	return strconv.FormatUint(i.id, 10)
}

// Type returns the instance type.
func (i *Instance) Type() *Type { return i.typ }

// Definition returns the definition the instance was built with.
func (i *Instance) Definition() Definition { return i.def }

// State returns the lifecycle state.
func (i *Instance) State() State { return i.state }

// Engine returns the owning engine.
func (i *Instance) Engine() *Engine { return i.engine }

// Events returns the instance event bus.
func (i *Instance) Events() *EventBus { return i.events }

// Attributes returns a copy of the current attributes.
func (i *Instance) Attributes() Attributes {
	return copyAttributes(i.attrs)
}

// Get returns one attribute.
func (i *Instance) Get(key string) any {
	return copyValue(i.attrs[key])
}

// Node returns the attached node, or nil once destroyed.
func (i *Instance) Node() *vdom.VNode { return i.node }

// Markup returns the markup of the last render. Calls between renders return
// the same string without evaluating the template.
func (i *Instance) Markup() string {
	if i.stale && i.node != nil {
		i.markup = render.String(i.node)
		i.stale = false
	}
	return i.markup
}

// Parent returns the owning instance, or nil for roots.
func (i *Instance) Parent() *Instance { return i.parent }

// TopAncestor returns the root of the instance tree containing i.
func (i *Instance) TopAncestor() *Instance {
	cur := i
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Children returns a copy of the alias → child mapping.
func (i *Instance) Children() map[string]*Instance {
	out := make(map[string]*Instance, len(i.children))
	for k, v := range i.children {
		out[k] = v
	}
	return out
}

// Child returns the child with the given alias.
func (i *Instance) Child(alias string) (*Instance, bool) {
	c, ok := i.children[alias]
	return c, ok
}

// List returns the members bound to a list attribute.
func (i *Instance) List(key string) []*Instance {
	members, _ := i.attrs[key].([]*Instance)
	return append([]*Instance(nil), members...)
}

// sortedChildren returns the children ordered by identity.
func (i *Instance) sortedChildren() []*Instance {
	out := make([]*Instance, 0, len(i.children))
	for _, c := range i.children {
		out = append(out, c)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].id < out[b].id })
	return out
}

// Visible reports whether the instance is shown.
func (i *Instance) Visible() bool { return i.visible }

// Classes returns the instance classes.
func (i *Instance) Classes() []string {
	return append([]string(nil), i.classes...)
}

// HasClass reports whether name is one of the instance classes.
func (i *Instance) HasClass(name string) bool {
	for _, c := range i.classes {
		if c == name {
			return true
		}
	}
	return false
}

// Show makes the root visible.
func (i *Instance) Show() {
	if i.visible {
		return
	}
	i.visible = true
	i.present()
}

// Hide sets display:none on the root.
func (i *Instance) Hide() {
	if !i.visible {
		return
	}
	i.visible = false
	i.present()
}

// AddClass adds classes to the root.
func (i *Instance) AddClass(names ...string) {
	changed := false
	for _, n := range names {
		changed = i.addClass(n) || changed
	}
	if changed {
		i.present()
	}
}

// RemoveClass removes classes from the root.
func (i *Instance) RemoveClass(names ...string) {
	changed := false
	for _, n := range names {
		for j, c := range i.classes {
			if c == n {
				i.classes = append(i.classes[:j], i.classes[j+1:]...)
				changed = true
				break
			}
		}
	}
	if changed {
		i.present()
	}
}

func (i *Instance) addClass(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || i.HasClass(name) {
		return false
	}
	i.classes = append(i.classes, name)
	return true
}

// present applies class and visibility to the live root without evaluating
// the template.
func (i *Instance) present() {
	if i.node == nil || i.state >= StateDestroying {
		return
	}
	i.decorate(i.node)
	i.markup = render.String(i.node)
	i.stale = false
	i.markAncestorsStale()
}

// decorate writes identity, classes and visibility onto root.
func (i *Instance) decorate(root *vdom.VNode) {
	root.Owner = i
	root.SetAttr(AttrID, strconv.FormatUint(i.id, 10))
	if i.alias != "" {
		root.SetAttr(AttrAlias, i.alias)
	}

	classes := strings.Fields(i.baseClass)
	for _, c := range i.classes {
		if !containsString(classes, c) {
			classes = append(classes, c)
		}
	}
	if len(classes) > 0 {
		root.SetAttr("class", strings.Join(classes, " "))
	} else {
		root.RemoveAttr("class")
	}

	style := strings.TrimSpace(i.baseStyle)
	if !i.visible {
		if style != "" && !strings.HasSuffix(style, ";") {
			style += ";"
		}
		style += "display:none"
	}
	if style != "" {
		root.SetAttr("style", style)
	} else {
		root.RemoveAttr("style")
	}
}

// markAncestorsStale invalidates the cached markup of every ancestor whose
// node contains ours.
func (i *Instance) markAncestorsStale() {
	for cur := i.node.Parent; cur != nil; cur = cur.Parent {
		if owner, ok := cur.Owner.(*Instance); ok {
			owner.stale = true
		}
	}
	for p := i.parent; p != nil; p = p.parent {
		p.stale = true
	}
}

// Mount appends the instance node to container. When container is a list
// container of another instance, the instance joins that list through an
// update of its owner so the membership survives re-renders.
func (i *Instance) Mount(container *vdom.VNode) error {
	if i.state >= StateDestroying {
		return serrors.New("S105").WithComponent(i.typ.tag).Wrap(ErrDestroyed)
	}
	if key, ok := container.Attr(AttrList); ok {
		if owner := ownerOf(container); owner != nil {
			members := append(owner.List(key), i)
			return owner.Update(Attributes{key: members}, Immediate())
		}
	}
	container.AppendChild(i.node)
	if owner := ownerOf(container); owner != nil {
		owner.stale = true
		owner.markAncestorsStale()
	}
	i.promote()
	return nil
}

// ownerOf returns the instance whose node contains n.
func ownerOf(n *vdom.VNode) *Instance {
	for cur := n; cur != nil; cur = cur.Parent {
		if owner, ok := cur.Owner.(*Instance); ok {
			return owner
		}
	}
	return nil
}

// promote moves the instance and its descendants to StateLive once their
// node is connected to a document. Parents are promoted before children.
func (i *Instance) promote() {
	if i.node == nil || i.state >= StateDestroying {
		return
	}
	if i.state == StateDetached {
		if !i.node.Connected() {
			return
		}
		i.state = StateLive
		if initer, ok := i.def.(Initer); ok {
			initer.OnInit(i)
		}
		i.events.emit(EventInit, nil)
		i.engine.notify(LifecycleLive, i)
	}
	for _, c := range i.sortedChildren() {
		c.promote()
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
