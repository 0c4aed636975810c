package hooks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	serrors "github.com/sipa-dev/sipa/internal/errors"
)

func newDispatcher() *Dispatcher {
	return NewDispatcher(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFireOrder(t *testing.T) {
	d := newDispatcher()
	var got []string
	for _, name := range []string{"a", "b"} {
		name := name
		d.MustOn(InitPage, func(ctx context.Context, e Event) error {
			got = append(got, name+":"+e.Page)
			return nil
		})
	}
	d.MustOn(ShowPage, func(ctx context.Context, e Event) error {
		got = append(got, "show")
		return nil
	})

	if err := d.Fire(context.Background(), Event{Type: InitPage, Page: "home"}); err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if diff := cmp.Diff([]string{"a:home", "b:home"}, got); diff != "" {
		t.Errorf("hooks mismatch (-want +got):\n%s", diff)
	}
}

func TestInvalidHookType(t *testing.T) {
	d := newDispatcher()
	noop := func(context.Context, Event) error { return nil }

	err := d.On("page-leave", noop)
	if !errors.Is(err, ErrInvalidHookType) {
		t.Errorf("On err = %v, want ErrInvalidHookType", err)
	}
	if !errors.Is(err, serrors.ErrInvalidArgument) {
		t.Errorf("On err = %v, want ErrInvalidArgument kind", err)
	}
	if serrors.Code(err) != "S201" {
		t.Errorf("code = %q", serrors.Code(err))
	}
	if err := d.Fire(context.Background(), Event{Type: "bogus"}); !errors.Is(err, ErrInvalidHookType) {
		t.Errorf("Fire err = %v", err)
	}
	if err := d.Off("bogus"); !errors.Is(err, ErrInvalidHookType) {
		t.Errorf("Off err = %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("MustOn should panic on an invalid type")
		}
	}()
	d.MustOn("bogus", noop)
}

func TestFireStopsOnError(t *testing.T) {
	d := newDispatcher()
	boom := errors.New("boom")
	var ran []int
	d.MustOn(DestroyPage, func(context.Context, Event) error { ran = append(ran, 1); return boom })
	d.MustOn(DestroyPage, func(context.Context, Event) error { ran = append(ran, 2); return nil })

	err := d.Fire(context.Background(), Event{Type: DestroyPage})
	if !errors.Is(err, boom) || serrors.Code(err) != "S202" {
		t.Errorf("Fire err = %v", err)
	}
	if diff := cmp.Diff([]int{1}, ran); diff != "" {
		t.Errorf("ran mismatch (-want +got):\n%s", diff)
	}
}

func TestFireCanceled(t *testing.T) {
	d := newDispatcher()
	d.MustOn(InitLayout, func(context.Context, Event) error {
		t.Error("hook should not run after cancel")
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Fire(ctx, Event{Type: InitLayout}); !errors.Is(err, context.Canceled) {
		t.Errorf("Fire err = %v", err)
	}
}

func TestOffAndReset(t *testing.T) {
	d := newDispatcher()
	noop := func(context.Context, Event) error { return nil }
	d.MustOn(InitPage, noop)
	d.MustOn(InitPage, noop)
	d.MustOn(ShowPage, noop)

	if d.Count(InitPage) != 2 {
		t.Errorf("Count = %d", d.Count(InitPage))
	}
	if err := d.Off(InitPage); err != nil {
		t.Fatal(err)
	}
	if d.Count(InitPage) != 0 || d.Count(ShowPage) != 1 {
		t.Error("Off should only clear its own type")
	}
	d.Reset()
	for _, typ := range Types() {
		if d.Count(typ) != 0 {
			t.Errorf("Count(%s) = %d after Reset", typ, d.Count(typ))
		}
	}
}

func TestEventAccessors(t *testing.T) {
	e := Event{Params: map[string]any{
		"id":    "42",
		"n":     float64(7),
		"on":    "true",
		"tags":  []any{"a", 1},
		"names": []string{"x"},
	}}

	if e.Int("id") != 42 || e.Int("n") != 7 || e.Int("missing") != 0 {
		t.Errorf("Int: %d %d", e.Int("id"), e.Int("n"))
	}
	if !e.Bool("on") || e.Bool("missing") {
		t.Error("Bool")
	}
	if e.String("n") != "7" || e.String("missing") != "" {
		t.Errorf("String = %q", e.String("n"))
	}
	if diff := cmp.Diff([]string{"a", "1"}, e.Strings("tags")); diff != "" {
		t.Errorf("Strings mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"x"}, e.Strings("names")); diff != "" {
		t.Errorf("Strings mismatch (-want +got):\n%s", diff)
	}
	if e.Raw("n") != float64(7) {
		t.Error("Raw")
	}
}
