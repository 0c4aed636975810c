package component

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/sipa-dev/sipa/pkg/vdom"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEngine returns an engine that renders on every update.
func newTestEngine() *Engine {
	return NewEngine(Config{Logger: quietLogger()})
}

// newCoalescingEngine returns an engine with a 200ms window on a manual clock.
func newCoalescingEngine() (*Engine, *ManualClock) {
	clock := NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	eng := NewEngine(Config{
		RenderPeriod: 200 * time.Millisecond,
		Logger:       quietLogger(),
		Clock:        clock,
	})
	return eng, clock
}

// counter counts template evaluations.
type counter struct{ n int }

func (c *counter) wrap(fn TemplateFunc) TemplateFunc {
	return func(a Attributes) (string, error) {
		c.n++
		return fn(a)
	}
}

func itemDef() *Spec {
	return Define("TodoItem", func(a Attributes) (string, error) {
		return fmt.Sprintf("<span>%v</span>", a["label"]), nil
	}, WithDefaults(Attributes{"label": ""}))
}

func mustNew(t *testing.T, typ *Type, attrs Attributes, opts ...Option) *Instance {
	t.Helper()
	i, err := typ.New(attrs, opts...)
	if err != nil {
		t.Fatalf("New(%s): %v", typ.Tag(), err)
	}
	return i
}

func mount(t *testing.T, i *Instance) *vdom.VNode {
	t.Helper()
	doc := vdom.NewDocument()
	if err := i.Mount(doc); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	return doc
}

func labels(members []*Instance) string {
	var parts []string
	for _, m := range members {
		parts = append(parts, fmt.Sprint(m.Get("label")))
	}
	return strings.Join(parts, ",")
}
