package component

import (
	"reflect"
	"sync"

	"github.com/sipa-dev/sipa/pkg/vdom"
)

// Type is a registered component type.
type Type struct {
	engine *Engine
	tag    string

	mu  sync.RWMutex
	def Definition
}

// Tag returns the element tag of the type.
func (t *Type) Tag() string { return t.tag }

// Name returns the name of the current definition.
func (t *Type) Name() string { return t.Definition().Name() }

// Definition returns the definition used for new instances.
func (t *Type) Definition() Definition {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.def
}

func (t *Type) setDefinition(def Definition) {
	t.mu.Lock()
	t.def = def
	t.mu.Unlock()
}

// New constructs and renders an instance. The instance is detached until
// its node is mounted into a document.
func (t *Type) New(attrs Attributes, opts ...Option) (*Instance, error) {
	return t.construct(attrs, opts...)
}

// MustNew is like New but panics on error.
func (t *Type) MustNew(attrs Attributes, opts ...Option) *Instance {
	i, err := t.New(attrs, opts...)
	if err != nil {
		panic(err)
	}
	return i
}

func (t *Type) construct(attrs Attributes, opts ...Option) (*Instance, error) {
	e := t.engine
	def := t.Definition()

	base := make(Attributes)
	if d, ok := def.(Defaulter); ok {
		for k, v := range d.DefaultAttributes() {
			base[k] = v
		}
	}
	i := &Instance{
		engine:   e,
		typ:      t,
		def:      def,
		id:       e.nextID.Add(1),
		attrs:    base,
		children: make(map[string]*Instance),
		listed:   make(map[*Instance]string),
		lists:    make(map[string]bool),
		visible:  true,
	}
	for k, v := range attrs {
		if member, ok := v.(*Instance); ok {
			if i.transfers == nil {
				i.transfers = make(map[string]*Instance)
			}
			i.transfers[k] = member
			continue
		}
		base[k] = copyValue(v)
	}
	i.events = newEventBus(i)

	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}

	e.register(i)
	e.notify(LifecycleCreated, i)

	if err := i.renderNow(false, 0); err != nil {
		e.unregister(i)
		i.state = StateDestroyed
		return nil, err
	}
	return i, nil
}

// Init adopts the elements under root that carry the type tag and no
// identity: each becomes a fresh instance whose declared content is the
// element's children, and takes the element's place in the tree. Nested
// component tags in that content are adopted through the new instance's
// render.
func (t *Type) Init(root *vdom.VNode) ([]*Instance, error) {
	found := vdom.FindAll(root, func(n *vdom.VNode) bool {
		_, managed := n.Attr(AttrID)
		return n.IsElement(t.tag) && !managed
	}, func(n *vdom.VNode) bool {
		_, managed := n.Attr(AttrID)
		return managed || n.IsElement(t.tag)
	})

	var adopted []*Instance
	for _, el := range found {
		attrs, classes, err := elementAttributes(el)
		if err != nil {
			return adopted, err
		}
		opts := []Option{WithClasses(classes...)}
		if alias, ok := el.Attr(AttrAlias); ok && alias != "" {
			opts = append(opts, WithAlias(alias))
		}
		content := detachChildren(el)
		opts = append(opts, withDeclared(content))

		i, err := t.construct(attrs, opts...)
		if err != nil {
			for _, c := range content {
				el.AppendChild(c)
			}
			return adopted, err
		}
		el.ReplaceWith(i.node)
		if owner := ownerOf(i.node.Parent); owner != nil {
			owner.stale = true
			owner.markAncestorsStale()
		}
		i.promote()
		adopted = append(adopted, i)
	}

	if len(adopted) > 0 {
		t.engine.logger.Info("adopted elements", "tag", t.tag, "count", len(adopted))
	}
	return adopted, nil
}

// All returns the registered instances of the type, ordered by identity.
func (t *Type) All() []*Instance {
	t.engine.mu.RLock()
	defer t.engine.mu.RUnlock()
	return t.engine.sortedLocked(func(i *Instance) bool {
		return i.typ == t && i.state < StateDestroying
	})
}

// ByIdentity returns the instance of this type with identity id.
func (t *Type) ByIdentity(id uint64) (*Instance, bool) {
	i, ok := t.engine.Lookup(id)
	if !ok || i.typ != t {
		return nil, false
	}
	return i, true
}

// ByKey returns the first instance, in identity order, whose definition key
// equals v. Instances built from a definition without a Keyer never match.
func (t *Type) ByKey(v any) (*Instance, bool) {
	for _, i := range t.All() {
		k, ok := i.def.(Keyer)
		if !ok {
			continue
		}
		if key := k.Key(i.attrs); key != nil && reflect.DeepEqual(key, v) {
			return i, true
		}
	}
	return nil, false
}

// DestroyAll destroys every instance of the type.
func (t *Type) DestroyAll() {
	for _, i := range t.All() {
		i.Destroy(WithForce())
	}
}
