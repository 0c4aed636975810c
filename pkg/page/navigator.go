package page

import (
	"context"
	"log/slog"

	serrors "github.com/sipa-dev/sipa/internal/errors"
	"github.com/sipa-dev/sipa/pkg/component"
	"github.com/sipa-dev/sipa/pkg/hooks"
	"github.com/sipa-dev/sipa/pkg/state"
	"github.com/sipa-dev/sipa/pkg/urlparam"
	"github.com/sipa-dev/sipa/pkg/vdom"
)

// ContainerKey is the list key of the layout element that receives pages.
const ContainerKey = "page"

// Config configures a Navigator.
type Config struct {
	// Root is the document node layouts (and layout-less pages) mount into.
	// Default: a new empty document.
	Root *vdom.VNode

	// Hooks receives navigation hooks.
	// Default: a new Dispatcher.
	Hooks *hooks.Dispatcher

	// Store has its ephemeral tier cleared on every load.
	// Default: a store over a MemoryBackend.
	Store *state.Store

	// Logger defaults to the engine logger.
	Logger *slog.Logger
}

// Entry is one visited page.
type Entry struct {
	Page   string
	Params map[string]any
}

type pageDef struct {
	typ    *component.Type
	layout string
}

// Navigator shows one page at a time inside its layout.
type Navigator struct {
	engine *component.Engine
	root   *vdom.VNode
	hooks  *hooks.Dispatcher
	store  *state.Store
	logger *slog.Logger

	layouts map[string]*component.Type
	pages   map[string]pageDef

	history []Entry

	layoutName string
	layout     *component.Instance
	page       *component.Instance
}

// New creates a Navigator over engine.
func New(engine *component.Engine, config Config) *Navigator {
	if config.Root == nil {
		config.Root = vdom.NewDocument()
	}
	if config.Logger == nil {
		config.Logger = engine.Logger()
	}
	if config.Hooks == nil {
		config.Hooks = hooks.NewDispatcher(config.Logger)
	}
	if config.Store == nil {
		config.Store = state.New(nil, config.Logger)
	}
	return &Navigator{
		engine:  engine,
		root:    config.Root,
		hooks:   config.Hooks,
		store:   config.Store,
		logger:  config.Logger,
		layouts: make(map[string]*component.Type),
		pages:   make(map[string]pageDef),
	}
}

// Hooks returns the hook dispatcher.
func (n *Navigator) Hooks() *hooks.Dispatcher { return n.hooks }

// Store returns the state store.
func (n *Navigator) Store() *state.Store { return n.store }

// Root returns the document node pages are shown in.
func (n *Navigator) Root() *vdom.VNode { return n.root }

// AddLayout registers a layout component under name.
func (n *Navigator) AddLayout(name string, typ *component.Type) {
	n.layouts[name] = typ
}

// AddPage registers a page component under name. An empty layout mounts the
// page straight into the root.
func (n *Navigator) AddPage(name string, typ *component.Type, layout string) error {
	if layout != "" {
		if _, ok := n.layouts[layout]; !ok {
			return serrors.New("S211").WithDetailf("page %q uses layout %q", name, layout)
		}
	}
	n.pages[name] = pageDef{typ: typ, layout: layout}
	return nil
}

// Load shows page name with params and records it in the history.
func (n *Navigator) Load(ctx context.Context, name string, params map[string]any) error {
	if _, ok := n.pages[name]; !ok {
		return serrors.New("S210").WithDetailf("page %q", name)
	}
	entry := Entry{Page: name, Params: copyParams(params)}
	if err := n.show(ctx, entry); err != nil {
		return err
	}
	n.history = append(n.history, entry)
	return nil
}

// LoadURL loads the page named by the path of rawURL with its query
// parameters.
func (n *Navigator) LoadURL(ctx context.Context, rawURL string) error {
	name, query, err := PageName(rawURL)
	if err != nil {
		return serrors.New("S210").WithDetailf("url %q", rawURL).Wrap(err)
	}
	params, err := urlparam.Parse("?" + query)
	if err != nil {
		return serrors.New("S210").WithDetailf("url %q", rawURL).Wrap(err)
	}
	return n.Load(ctx, name, params.Map())
}

// Back shows the previous page again.
func (n *Navigator) Back(ctx context.Context) error {
	if len(n.history) < 2 {
		return serrors.New("S212")
	}
	prev := n.history[len(n.history)-2]
	if err := n.show(ctx, prev); err != nil {
		return err
	}
	n.history = n.history[:len(n.history)-1]
	return nil
}

// Current returns the page being shown.
func (n *Navigator) Current() (Entry, bool) {
	if len(n.history) == 0 {
		return Entry{}, false
	}
	return n.history[len(n.history)-1], true
}

// History returns the visited pages, oldest first.
func (n *Navigator) History() []Entry {
	return append([]Entry(nil), n.history...)
}

// Page returns the current page instance.
func (n *Navigator) Page() *component.Instance { return n.page }

// Layout returns the current layout instance.
func (n *Navigator) Layout() *component.Instance { return n.layout }

// URL returns the current page as a path with its parameters as query.
func (n *Navigator) URL() string {
	cur, ok := n.Current()
	if !ok {
		return ""
	}
	path := "/" + cur.Page
	if cur.Page == IndexPage {
		path = "/"
	}
	u, err := urlparam.With(path, urlparam.FromMap(cur.Params))
	if err != nil {
		return path
	}
	return u
}

func (n *Navigator) show(ctx context.Context, entry Entry) error {
	def := n.pages[entry.Page]

	if err := n.store.Clear(ctx, state.Ephemeral); err != nil {
		return err
	}

	if n.page != nil {
		prev, _ := n.Current()
		err := n.hooks.Fire(ctx, hooks.Event{
			Type:     hooks.DestroyPage,
			Page:     prev.Page,
			Layout:   n.layoutName,
			Instance: n.page,
			Params:   prev.Params,
		})
		n.page.Destroy()
		n.page = nil
		if err != nil {
			return err
		}
	}

	if def.layout != n.layoutName {
		if n.layout != nil {
			err := n.hooks.Fire(ctx, hooks.Event{
				Type:     hooks.DestroyLayout,
				Layout:   n.layoutName,
				Instance: n.layout,
			})
			n.layout.Destroy()
			n.layout, n.layoutName = nil, ""
			if err != nil {
				return err
			}
		}
		if def.layout != "" {
			layout, err := n.layouts[def.layout].New(nil)
			if err != nil {
				return err
			}
			if err := layout.Mount(n.root); err != nil {
				layout.Destroy()
				return err
			}
			n.layout, n.layoutName = layout, def.layout
			if err := n.hooks.Fire(ctx, hooks.Event{
				Type:     hooks.InitLayout,
				Page:     entry.Page,
				Layout:   def.layout,
				Instance: layout,
				Params:   entry.Params,
			}); err != nil {
				return err
			}
		}
	}

	pg, err := def.typ.New(component.Attributes(copyParams(entry.Params)))
	if err != nil {
		return err
	}
	if err := pg.Mount(n.container()); err != nil {
		pg.Destroy()
		return err
	}
	n.page = pg

	n.logger.Info("page loaded", "page", entry.Page, "layout", def.layout, "id", pg.ID())

	for _, t := range []hooks.Type{hooks.InitPage, hooks.ShowPage} {
		if err := n.hooks.Fire(ctx, hooks.Event{
			Type:     t,
			Page:     entry.Page,
			Layout:   def.layout,
			Instance: pg,
			Params:   entry.Params,
		}); err != nil {
			return err
		}
	}
	return nil
}

// container returns the node the next page mounts into.
func (n *Navigator) container() *vdom.VNode {
	if n.layout == nil {
		return n.root
	}
	found := vdom.FindAll(n.layout.Node(), func(v *vdom.VNode) bool {
		key, ok := v.Attr(component.AttrList)
		return ok && key == ContainerKey
	}, nil)
	if len(found) > 0 {
		return found[0]
	}
	return n.root
}

func copyParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
