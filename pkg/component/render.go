package component

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"time"

	serrors "github.com/sipa-dev/sipa/internal/errors"
	"github.com/sipa-dev/sipa/pkg/render"
	"github.com/sipa-dev/sipa/pkg/vdom"
)

// maxRerenders bounds the renders triggered by updates that arrive while a
// render is running.
const maxRerenders = 8

// Render renders the instance now, bypassing coalescing and update hooks.
func (i *Instance) Render() error {
	if i.state >= StateDestroying {
		return serrors.New("S105").WithComponent(i.typ.tag).Wrap(ErrDestroyed)
	}
	return i.renderNow(false, 0)
}

// renderNow runs the render through the engine middleware.
func (i *Instance) renderNow(trailing bool, coalesced int) error {
	info := &RenderInfo{
		Instance:  i,
		Type:      i.typ.tag,
		ID:        i.id,
		First:     i.node == nil,
		Trailing:  trailing,
		Coalesced: coalesced,
	}
	start := time.Now()

	wasRendering := i.rendering
	i.rendering = true
	err := chain(i.engine.middleware, info, func(ctx context.Context) error {
		for pass := 0; ; pass++ {
			n, err := i.renderOnce()
			info.Patches += n
			if err != nil {
				return err
			}
			if !i.dirty || pass >= maxRerenders {
				i.dirty = false
				return nil
			}
			i.dirty = false
		}
	})(context.Background())
	i.rendering = wasRendering
	info.Duration = time.Since(start)

	if err == nil {
		i.engine.logger.Debug("rendered",
			"type", i.typ.tag,
			"id", i.id,
			"patches", info.Patches,
			"trailing", trailing,
			"duration", info.Duration)
	}

	if i.destroyPending && !i.rendering {
		force := i.destroyForce
		i.destroyPending, i.destroyForce = false, false
		if force {
			i.Destroy(WithForce())
		} else {
			i.Destroy()
		}
	}
	return err
}

// renderOnce evaluates the template and patches the live node. On failure
// the live node is left untouched and children created by the pass are
// destroyed.
func (i *Instance) renderOnce() (int, error) {
	markup, err := i.def.Template(i.Attributes())
	if err != nil {
		return 0, serrors.New("S101").WithComponent(i.typ.tag).Wrap(err)
	}
	nodes, err := vdom.Parse(markup)
	if err != nil {
		return 0, serrors.New("S102").WithComponent(i.typ.tag).Wrap(err)
	}

	root := i.wrap(nodes)
	i.resolveSlots(root)

	p := newRenderPass(i)
	if err := p.positions(root); err != nil {
		p.abort()
		return 0, err
	}
	if err := p.fillLists(root); err != nil {
		p.abort()
		return 0, err
	}

	i.decorate(root)

	patches := 0
	if i.node == nil {
		vdom.Adopt(root)
		i.node = root
	} else {
		patches = len(vdom.Reconcile(i.node, root))
	}
	p.commit()

	i.lastRender = i.engine.clock.Now()
	i.markup = render.String(i.node)
	i.stale = false
	i.markAncestorsStale()
	i.promote()
	return patches, nil
}

// wrap returns the root element for the parsed template. A template made
// of a single element carrying the component tag provides the root itself;
// anything else is wrapped in a new root element.
func (i *Instance) wrap(nodes []*vdom.VNode) *vdom.VNode {
	var elems []*vdom.VNode
	blank := true
	for _, n := range nodes {
		if n.IsElement() {
			elems = append(elems, n)
		} else if strings.TrimSpace(n.Text) != "" {
			blank = false
		}
	}

	var root *vdom.VNode
	if len(elems) == 1 && blank && elems[0].Tag == i.typ.tag {
		root = elems[0]
	} else {
		root = vdom.Element(i.typ.tag, nil, nodes...)
	}
	i.baseClass, _ = root.Attr("class")
	i.baseStyle, _ = root.Attr("style")
	return root
}

// renderPass collects the child structure produced by one render.
type renderPass struct {
	i          *Instance
	children   map[string]*Instance
	positional []*Instance
	listed     map[*Instance]string
	lists      map[string]bool
	created    []*Instance
	transfers  []string
}

func newRenderPass(i *Instance) *renderPass {
	return &renderPass{
		i:        i,
		children: make(map[string]*Instance),
		listed:   make(map[*Instance]string),
		lists:    make(map[string]bool),
	}
}

func (p *renderPass) isBoundary(n *vdom.VNode) bool {
	if p.i.engine.isComponent(n) {
		return true
	}
	_, ok := n.Attr(AttrList)
	return ok && n.IsElement()
}

func (p *renderPass) claim(alias string, c *Instance) error {
	if other, ok := p.children[alias]; ok && other != c {
		return serrors.New("S104").WithComponent(p.i.typ.tag).WithDetailf("alias %q is used twice", alias)
	}
	p.children[alias] = c
	return nil
}

// positions matches the nested component tags of root against the current
// children, reusing a child when its position keeps the same type.
func (p *renderPass) positions(root *vdom.VNode) error {
	i := p.i
	els := vdom.FindAll(root, i.engine.isComponent, p.isBoundary)
	// A child destroying itself mid-pass releases its slot in i.positional.
	positional := append([]*Instance(nil), i.positional...)

	k := 0
	for _, el := range els {
		typ, _ := i.engine.Type(el.Tag)
		alias, _ := el.Attr(AttrAlias)
		attrs, classes, err := elementAttributes(el)
		if err != nil {
			return serrors.FromError(err, "S106").WithComponent(i.typ.tag)
		}

		var cur *Instance
		if alias != "" {
			if _, dup := p.children[alias]; dup {
				return serrors.New("S104").WithComponent(i.typ.tag).WithDetailf("alias %q is used twice", alias)
			}
			if t, ok := i.transfers[alias]; ok && t.state < StateDestroying && t != i {
				t.pushed = attrs
				p.transfers = append(p.transfers, alias)
				p.children[alias] = t
				el.Splice(t.node)
				continue
			}
			cur = i.children[alias]
			if cur != nil && i.isListed(cur) {
				cur = nil
			}
		} else if k < len(positional) {
			cur = positional[k]
		}

		var child *Instance
		if cur != nil && cur.state < StateDestroying && cur.typ == typ && cur.alias == alias {
			child = cur
			if !reflect.DeepEqual(cur.pushed, attrs) {
				cur.pushed = attrs
				if err := cur.Update(copyAttributes(attrs), relayOptions("parent", i.immediate)...); err != nil {
					return err
				}
				// The child may have destroyed itself from one of its own
				// handlers; its position is then filled like an empty one.
				if cur.state >= StateDestroying || cur.node == nil {
					child = nil
				}
			}
		}
		if child == nil {
			initial := copyAttributes(attrs)
			if alias != "" {
				if seed, ok := asAttributes(i.attrs[alias]); ok {
					for sk, sv := range seed {
						initial[sk] = copyValue(sv)
					}
				}
			}
			opts := []Option{withParent(i), withDeclared(detachChildren(el)), WithClasses(classes...)}
			if alias != "" {
				opts = append(opts, WithAlias(alias))
			}
			child, err = typ.construct(initial, opts...)
			if err != nil {
				return err
			}
			child.pushed = attrs
			p.created = append(p.created, child)
		}

		if alias == "" {
			p.positional = append(p.positional, child)
			k++
		}
		if err := p.claim(child.Alias(), child); err != nil {
			return err
		}
		el.Splice(child.node)
	}
	return nil
}

// abort destroys the children created by a failed pass.
func (p *renderPass) abort() {
	for _, c := range p.created {
		c.Destroy(WithForce())
	}
}

// commit installs the new child structure. Template children that lost
// their position are destroyed; list members that left every list are
// released back to the caller.
func (p *renderPass) commit() {
	i := p.i
	keep := make(map[*Instance]bool, len(p.children))
	for _, c := range p.children {
		keep[c] = true
	}

	var dropped []*Instance
	for _, c := range i.sortedChildren() {
		if keep[c] || c.parent != i {
			continue
		}
		if i.isListed(c) {
			c.parent = nil
			continue
		}
		dropped = append(dropped, c)
	}

	for _, alias := range p.transfers {
		t := i.transfers[alias]
		delete(i.transfers, alias)
		if t.parent != nil && t.parent != i {
			t.parent.release(t)
		}
		t.parent = i
	}
	for m := range p.listed {
		if m.parent != nil && m.parent != i {
			m.parent.release(m)
		}
		m.parent = i
	}
	for _, c := range p.created {
		if seed := c.alias; seed != "" {
			if _, ok := asAttributes(i.attrs[seed]); ok {
				delete(i.attrs, seed)
			}
		}
	}

	i.children = p.children
	i.positional = p.positional
	i.listed = p.listed
	i.lists = p.lists

	for _, c := range dropped {
		c.Destroy(WithForce())
	}
}

// release removes c from the child structure of i.
func (i *Instance) release(c *Instance) {
	for alias, cur := range i.children {
		if cur == c {
			delete(i.children, alias)
		}
	}
	for j, pc := range i.positional {
		if pc == c {
			i.positional[j] = nil
		}
	}
	delete(i.listed, c)
	for k, v := range i.attrs {
		members, ok := v.([]*Instance)
		if !ok {
			continue
		}
		for j, m := range members {
			if m == c {
				next := make([]*Instance, 0, len(members)-1)
				next = append(next, members[:j]...)
				i.attrs[k] = append(next, members[j+1:]...)
				break
			}
		}
	}
	if c.parent == i {
		c.parent = nil
	}
	i.stale = true
}

// elementAttributes reads the attributes of a nested component tag. String
// attributes become attributes of the child; sipa-attrs holds a JSON object
// of typed attributes and wins over plain ones.
func elementAttributes(el *vdom.VNode) (Attributes, []string, error) {
	attrs := make(Attributes, len(el.Props))
	var classes []string
	var typed string

	for _, k := range el.AttrKeys() {
		v, _ := el.Attr(k)
		switch k {
		case AttrAlias, AttrID, AttrSlot:
		case "class":
			classes = strings.Fields(v)
		case AttrAttrs:
			typed = v
		default:
			attrs[k] = v
		}
	}

	if strings.TrimSpace(typed) != "" {
		var values map[string]any
		if err := json.Unmarshal([]byte(typed), &values); err != nil {
			return nil, nil, serrors.New("S106").Wrap(err)
		}
		for k, v := range values {
			attrs[k] = v
		}
	}
	return attrs, classes, nil
}

// detachChildren empties el and returns its former children.
func detachChildren(el *vdom.VNode) []*vdom.VNode {
	children := el.Children
	for _, c := range children {
		c.Parent = nil
	}
	el.Children = nil
	return children
}
