package component

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	serrors "github.com/sipa-dev/sipa/internal/errors"
	"github.com/sipa-dev/sipa/pkg/vdom"
)

// DefaultRenderPeriod is the coalescing window used by DefaultConfig.
const DefaultRenderPeriod = 200 * time.Millisecond

// Reserved attribute names.
const (
	AttrID    = "sipa-id"
	AttrAlias = "sipa-alias"
	AttrList  = "sipa-list"
	AttrAttrs = "sipa-attrs"
	AttrSlot  = "slot"
)

// Config configures an Engine.
type Config struct {
	// RenderPeriod is the minimum interval between two renders of the same
	// instance. Zero disables coalescing.
	RenderPeriod time.Duration

	// Logger receives render and lifecycle logs.
	// Default: slog.Default()
	Logger *slog.Logger

	// Clock drives render coalescing.
	// Default: the system clock.
	Clock Clock
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		RenderPeriod: DefaultRenderPeriod,
	}
}

// Engine owns the component registry and the loop that runs trailing
// renders. Instances must only be touched from the goroutine that runs the
// loop (or, without a loop, the goroutine that created them).
type Engine struct {
	config Config
	logger *slog.Logger
	clock  Clock

	mu        sync.RWMutex
	instances map[uint64]*Instance
	types     map[string]*Type

	// nextID is never reset, so identities stay unique across Reset.
	nextID atomic.Uint64

	tasksMu sync.Mutex
	tasks   []func()
	wake    chan struct{}

	middleware []Middleware
	observers  []LifecycleFunc
}

// NewEngine creates an engine.
func NewEngine(config Config) *Engine {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Clock == nil {
		config.Clock = realClock{}
	}
	if config.RenderPeriod < 0 {
		config.RenderPeriod = 0
	}
	return &Engine{
		config:    config,
		logger:    config.Logger,
		clock:     config.Clock,
		instances: make(map[uint64]*Instance),
		types:     make(map[string]*Type),
		wake:      make(chan struct{}, 1),
	}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// Register registers def under its tag. Registering a tag again replaces the
// definition used for future construction and adoption; live instances keep
// the definition they were built with.
func (e *Engine) Register(def Definition) *Type {
	tag := TagName(def.Name())

	e.mu.Lock()
	defer e.mu.Unlock()

	if t, ok := e.types[tag]; ok {
		t.setDefinition(def)
		e.logger.Debug("component type replaced", "tag", tag)
		return t
	}
	t := &Type{engine: e, tag: tag, def: def}
	e.types[tag] = t
	return t
}

// Type returns the registered type for tag.
func (e *Engine) Type(tag string) (*Type, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.types[tag]
	return t, ok
}

// Types returns every registered type, ordered by tag.
func (e *Engine) Types() []*Type {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Type, 0, len(e.types))
	for _, t := range e.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].tag < out[j].tag })
	return out
}

func (e *Engine) isComponent(n *vdom.VNode) bool {
	if !n.IsElement() {
		return false
	}
	_, ok := e.Type(n.Tag)
	return ok
}

// Lookup returns the instance with the given identity.
func (e *Engine) Lookup(id uint64) (*Instance, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	i, ok := e.instances[id]
	return i, ok
}

// FromNode returns the instance owning n: the instance of the nearest
// ancestor-or-self carrying a sipa-id attribute.
func (e *Engine) FromNode(n *vdom.VNode) (*Instance, bool) {
	for cur := n; cur != nil; cur = cur.Parent {
		v, ok := cur.Attr(AttrID)
		if !ok {
			continue
		}
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			continue
		}
		return e.Lookup(id)
	}
	return nil, false
}

// Instances returns every registered instance, ordered by identity.
func (e *Engine) Instances() []*Instance {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sortedLocked(nil)
}

func (e *Engine) sortedLocked(filter func(*Instance) bool) []*Instance {
	out := make([]*Instance, 0, len(e.instances))
	for _, i := range e.instances {
		if filter == nil || filter(i) {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].id < out[b].id })
	return out
}

func (e *Engine) register(i *Instance) {
	e.mu.Lock()
	e.instances[i.id] = i
	e.mu.Unlock()
}

func (e *Engine) unregister(i *Instance) {
	e.mu.Lock()
	delete(e.instances, i.id)
	e.mu.Unlock()
}

// Reset destroys every instance, forgets every type and drops queued tasks.
// Middleware and lifecycle observers stay installed, and identities keep
// counting from where they were.
func (e *Engine) Reset() {
	for _, i := range e.Instances() {
		if i.parent == nil {
			i.Destroy(WithForce())
		}
	}
	for _, i := range e.Instances() {
		i.Destroy(WithForce())
	}

	e.mu.Lock()
	e.types = make(map[string]*Type)
	e.mu.Unlock()

	e.tasksMu.Lock()
	e.tasks = nil
	e.tasksMu.Unlock()
}

// Use appends render middleware. Middleware wraps every render in the order
// given; the first middleware is the outermost.
func (e *Engine) Use(mw ...Middleware) {
	e.middleware = append(e.middleware, mw...)
}

// OnLifecycle registers an observer for instance lifecycle transitions.
func (e *Engine) OnLifecycle(fn LifecycleFunc) {
	e.observers = append(e.observers, fn)
}

func (e *Engine) notify(kind LifecycleKind, i *Instance) {
	for _, fn := range e.observers {
		fn(LifecycleEvent{Kind: kind, Instance: i})
	}
}

// =============================================================================
// Task loop
// =============================================================================

// enqueue adds fn to the task queue. Safe from any goroutine.
func (e *Engine) enqueue(fn func()) {
	e.tasksMu.Lock()
	e.tasks = append(e.tasks, fn)
	e.tasksMu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued tasks.
func (e *Engine) Pending() int {
	e.tasksMu.Lock()
	defer e.tasksMu.Unlock()
	return len(e.tasks)
}

// RunPending executes queued tasks on the calling goroutine until the queue
// is empty, and returns how many ran.
func (e *Engine) RunPending() int {
	n := 0
	for {
		e.tasksMu.Lock()
		tasks := e.tasks
		e.tasks = nil
		e.tasksMu.Unlock()

		if len(tasks) == 0 {
			return n
		}
		for _, fn := range tasks {
			e.execute(fn)
			n++
		}
	}
}

// Run executes tasks as they are queued until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	e.RunPending()
	for {
		select {
		case <-e.wake:
			e.RunPending()
		case <-ctx.Done():
			return nil
		}
	}
}

// Do runs fn on the engine loop and waits for it to finish. It is the way
// for other goroutines to read or mutate instances while Run is active.
func (e *Engine) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	e.enqueue(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return serrors.New("S107").Wrap(ctx.Err())
	}
}

// execute runs a task with panic recovery.
func (e *Engine) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("task panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}
