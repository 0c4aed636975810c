package component

import (
	stderrors "errors"
	"sort"
	"sync"

	serrors "github.com/sipa-dev/sipa/internal/errors"
)

// Built-in event names.
const (
	EventBeforeUpdate = "before_update"
	EventAfterUpdate  = "after_update"
	EventInit         = "init"
	EventDestroy      = "destroy"
	EventRenderError  = "render_error"
)

var builtinEvents = []string{EventBeforeUpdate, EventAfterUpdate, EventInit, EventDestroy, EventRenderError}

var (
	// ErrUnknownEvent is returned for names never declared with CreateEvents.
	ErrUnknownEvent = stderrors.New("event not declared")

	// ErrEventExists is returned when CreateEvents redeclares a name.
	ErrEventExists = stderrors.New("event already declared")

	// ErrDestroyed is returned by Render and Mount on destroyed instances.
	ErrDestroyed = stderrors.New("instance destroyed")
)

// Event is delivered to subscribers.
type Event struct {
	Name     string
	Instance *Instance
	Data     any
}

// Handler receives events.
type Handler func(Event)

// BeforeUpdateEvent is the payload of before_update. Subscribers may change
// Partial; the merge uses whatever it holds once delivery completes.
type BeforeUpdateEvent struct {
	Instance *Instance
	Partial  Attributes
	Options  UpdateOptions
}

// AfterUpdateEvent is the payload of after_update. Attributes is a copy.
type AfterUpdateEvent struct {
	Instance   *Instance
	Attributes Attributes
	Options    UpdateOptions
}

type subscriber struct {
	id uint64
	fn Handler
}

// EventBus is the per-instance publish/subscribe channel table.
type EventBus struct {
	instance *Instance

	mu       sync.Mutex
	channels map[string][]subscriber
	nextID   uint64
}

func newEventBus(i *Instance) *EventBus {
	b := &EventBus{instance: i, channels: make(map[string][]subscriber)}
	for _, name := range builtinEvents {
		b.channels[name] = nil
	}
	return b
}

// CreateEvents declares custom event channels. Nothing is declared if any
// name is empty or already declared.
func (b *EventBus) CreateEvents(names ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" {
			return serrors.New("S150").WithDetail("event names must not be empty").Wrap(ErrUnknownEvent)
		}
		if _, ok := b.channels[name]; ok || seen[name] {
			return serrors.New("S151").WithDetailf("event %q", name).Wrap(ErrEventExists)
		}
		seen[name] = true
	}
	for _, name := range names {
		b.channels[name] = nil
	}
	return nil
}

// Has reports whether name is declared.
func (b *EventBus) Has(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.channels[name]
	return ok
}

// Names returns the declared event names in sorted order.
func (b *EventBus) Names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.channels))
	for name := range b.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Subscribe adds fn to the channel name. The returned function removes the
// subscription; calling it more than once is harmless.
func (b *EventBus) Subscribe(name string, fn Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.channels[name]
	if !ok {
		return nil, serrors.New("S150").WithDetailf("event %q", name).Wrap(ErrUnknownEvent)
	}
	b.nextID++
	id := b.nextID
	b.channels[name] = append(subs, subscriber{id: id, fn: fn})

	return func() { b.unsubscribe(name, id) }, nil
}

func (b *EventBus) unsubscribe(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.channels[name]
	for j, s := range subs {
		if s.id == id {
			// Copy so an in-flight delivery keeps its snapshot intact.
			next := make([]subscriber, 0, len(subs)-1)
			next = append(next, subs[:j]...)
			b.channels[name] = append(next, subs[j+1:]...)
			return
		}
	}
}

// Trigger delivers data to the subscribers of name, synchronously and in
// subscription order.
func (b *EventBus) Trigger(name string, data any) error {
	b.mu.Lock()
	subs, ok := b.channels[name]
	b.mu.Unlock()
	if !ok {
		return serrors.New("S150").WithDetailf("event %q", name).Wrap(ErrUnknownEvent)
	}
	b.deliver(name, subs, data)
	return nil
}

func (b *EventBus) emit(name string, data any) {
	b.mu.Lock()
	subs := b.channels[name]
	b.mu.Unlock()
	b.deliver(name, subs, data)
}

func (b *EventBus) deliver(name string, subs []subscriber, data any) {
	ev := Event{Name: name, Instance: b.instance, Data: data}
	for _, s := range subs {
		s.fn(ev)
	}
}
