package hooks

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"

	serrors "github.com/sipa-dev/sipa/internal/errors"
)

// Type identifies a hook.
type Type string

const (
	InitLayout    Type = "init-layout"
	InitPage      Type = "init-page"
	ShowPage      Type = "show-page"
	DestroyPage   Type = "destroy-page"
	DestroyLayout Type = "destroy-layout"
)

var types = []Type{InitLayout, InitPage, ShowPage, DestroyPage, DestroyLayout}

// ErrInvalidHookType is returned for hook types outside Types.
var ErrInvalidHookType = stderrors.New("invalid hook type")

// Types returns the known hook types in navigation order of first use.
func Types() []Type {
	return append([]Type(nil), types...)
}

// Valid reports whether t is a known hook type.
func (t Type) Valid() bool {
	for _, k := range types {
		if k == t {
			return true
		}
	}
	return false
}

// Func is a hook function. A non-nil error stops the remaining hooks of the
// same type.
type Func func(ctx context.Context, e Event) error

// Dispatcher holds hook functions by type.
type Dispatcher struct {
	logger *slog.Logger

	mu    sync.RWMutex
	hooks map[Type][]Func
}

// NewDispatcher creates an empty dispatcher. A nil logger uses slog.Default.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		logger: logger,
		hooks:  make(map[Type][]Func),
	}
}

func invalid(t Type) error {
	return serrors.New("S201").WithDetailf("hook type %q", t).Wrap(ErrInvalidHookType)
}

// On registers fn for hooks of type t.
func (d *Dispatcher) On(t Type, fn Func) error {
	if !t.Valid() {
		return invalid(t)
	}
	d.mu.Lock()
	d.hooks[t] = append(d.hooks[t], fn)
	d.mu.Unlock()
	return nil
}

// MustOn is like On but panics on an invalid type.
func (d *Dispatcher) MustOn(t Type, fn Func) {
	if err := d.On(t, fn); err != nil {
		panic(err)
	}
}

// Off removes every hook of type t.
func (d *Dispatcher) Off(t Type) error {
	if !t.Valid() {
		return invalid(t)
	}
	d.mu.Lock()
	delete(d.hooks, t)
	d.mu.Unlock()
	return nil
}

// Reset removes every hook.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	d.hooks = make(map[Type][]Func)
	d.mu.Unlock()
}

// Count returns the number of hooks registered for t.
func (d *Dispatcher) Count(t Type) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.hooks[t])
}

// Fire runs the hooks of e.Type in registration order. The first error
// stops the run and is returned wrapped as S202.
func (d *Dispatcher) Fire(ctx context.Context, e Event) error {
	if !e.Type.Valid() {
		return invalid(e.Type)
	}
	d.mu.RLock()
	fns := d.hooks[e.Type]
	d.mu.RUnlock()

	for n, fn := range fns {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, e); err != nil {
			d.logger.Warn("hook failed",
				"type", string(e.Type),
				"page", e.Page,
				"index", n,
				"error", err)
			return serrors.New("S202").WithDetailf("%s hook #%d", e.Type, n).Wrap(err)
		}
	}
	return nil
}
