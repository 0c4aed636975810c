package component

import (
	"sort"
	"time"
)

// UpdateOptions are passed to update hooks.
type UpdateOptions struct {
	// Immediate bypasses render coalescing.
	Immediate bool

	// Source says where the update came from: "" for callers, "parent" for
	// attributes pushed by a parent template, "list" for values forwarded
	// into list members.
	Source string

	// Values carries caller data through to the hooks.
	Values map[string]any
}

// UpdateOption configures an update.
type UpdateOption func(*UpdateOptions)

// Immediate renders right away even inside a coalescing window.
func Immediate() UpdateOption {
	return func(o *UpdateOptions) {
		o.Immediate = true
	}
}

// WithValue attaches a value visible to update hooks.
func WithValue(key string, value any) UpdateOption {
	return func(o *UpdateOptions) {
		if o.Values == nil {
			o.Values = make(map[string]any)
		}
		o.Values[key] = value
	}
}

func withSource(source string) UpdateOption {
	return func(o *UpdateOptions) {
		o.Source = source
	}
}

// relayOptions are the options of an update an instance sends on to a child
// or list member.
func relayOptions(source string, immediate bool) []UpdateOption {
	opts := []UpdateOption{withSource(source)}
	if immediate {
		opts = append(opts, Immediate())
	}
	return opts
}

// Update merges partial into the attributes and renders.
//
// A key naming a child alias with an Attributes value is forwarded to that
// child's Update. A *Instance value under an alias replaces the child at that
// position on the next render. A list-bound key takes a []*Instance (the new
// member sequence) or a []Attributes (forwarded to the members by index).
// Anything else is stored.
//
// Updates on destroyed or destroying instances are ignored.
func (i *Instance) Update(partial Attributes, opts ...UpdateOption) error {
	if i.state >= StateDestroying {
		return nil
	}
	var o UpdateOptions
	for _, opt := range opts {
		opt(&o)
	}
	if partial == nil {
		partial = Attributes{}
	}

	before := &BeforeUpdateEvent{Instance: i, Partial: partial, Options: o}
	i.events.emit(EventBeforeUpdate, before)
	if i.state >= StateDestroying {
		return nil
	}

	if err := i.merge(before.Partial, o.Immediate || i.immediate); err != nil {
		return err
	}

	// Re-entrant update from a hook or child while rendering: the running
	// render picks it up.
	if i.rendering {
		i.dirty = true
		i.pendingAfter = append(i.pendingAfter, o)
		return nil
	}

	period := i.renderPeriod()
	now := i.engine.clock.Now()
	if o.Immediate || period == 0 || (i.timer == nil && now.Sub(i.lastRender) >= period) {
		if i.timer != nil {
			i.timer.Stop()
			i.timer = nil
		}
		i.pendingAfter = append(i.pendingAfter, o)
		prev := i.immediate
		i.immediate = prev || o.Immediate
		err := i.renderAndNotify(false)
		i.immediate = prev
		return err
	}

	i.pendingAfter = append(i.pendingAfter, o)
	if i.timer == nil {
		wait := i.lastRender.Add(period).Sub(now)
		i.timer = i.engine.clock.AfterFunc(wait, func() {
			i.engine.enqueue(i.flush)
		})
		i.engine.logger.Debug("render coalesced",
			"type", i.typ.tag,
			"id", i.id,
			"wait", wait)
	}
	return nil
}

func (i *Instance) renderPeriod() time.Duration {
	if i.periodSet {
		return i.period
	}
	return i.engine.config.RenderPeriod
}

// flush runs the trailing render of a coalescing window.
func (i *Instance) flush() {
	if i.timer == nil || i.state >= StateDestroying {
		return
	}
	i.timer = nil
	if err := i.renderAndNotify(true); err != nil {
		i.engine.logger.Warn("trailing render failed",
			"type", i.typ.tag,
			"id", i.id,
			"error", err)
		i.events.emit(EventRenderError, err)
	}
}

// renderAndNotify renders and then delivers one after_update per queued
// Update call. A failed render drops the queued deliveries.
func (i *Instance) renderAndNotify(trailing bool) error {
	queued := i.pendingAfter
	i.pendingAfter = nil

	if err := i.renderNow(trailing, len(queued)); err != nil {
		i.pendingAfter = nil
		return err
	}
	queued = append(queued, i.pendingAfter...)
	i.pendingAfter = nil

	for _, o := range queued {
		if i.state >= StateDestroying {
			return nil
		}
		i.events.emit(EventAfterUpdate, &AfterUpdateEvent{
			Instance:   i,
			Attributes: i.Attributes(),
			Options:    o,
		})
	}
	return nil
}

// merge applies partial to the attributes.
func (i *Instance) merge(partial Attributes, immediate bool) error {
	keys := make([]string, 0, len(partial))
	for k := range partial {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := partial[k]

		if member, ok := v.(*Instance); ok {
			if i.transfers == nil {
				i.transfers = make(map[string]*Instance)
			}
			i.transfers[k] = member
			continue
		}

		if child, ok := i.children[k]; ok && !i.isListed(child) {
			if nested, ok := asAttributes(v); ok {
				if err := child.Update(nested, relayOptions("parent", immediate)...); err != nil {
					return err
				}
				continue
			}
		}

		if i.isListKey(k) {
			switch list := v.(type) {
			case []*Instance:
				i.attrs[k] = append([]*Instance(nil), list...)
				continue
			case []Attributes:
				if err := i.forward(k, list, immediate); err != nil {
					return err
				}
				continue
			case []map[string]any:
				values := make([]Attributes, len(list))
				for j, m := range list {
					values[j] = m
				}
				if err := i.forward(k, values, immediate); err != nil {
					return err
				}
				continue
			}
		}

		i.attrs[k] = copyValue(v)
	}
	return nil
}

// forward sends values[j] to member j of the list bound to key.
func (i *Instance) forward(key string, values []Attributes, immediate bool) error {
	members, _ := i.attrs[key].([]*Instance)
	for j, v := range values {
		if j >= len(members) {
			break
		}
		if err := members[j].Update(v, relayOptions("list", immediate)...); err != nil {
			return err
		}
	}
	return nil
}

func (i *Instance) isListKey(k string) bool {
	if i.lists[k] {
		return true
	}
	_, ok := i.attrs[k].([]*Instance)
	return ok
}

func (i *Instance) isListed(c *Instance) bool {
	_, ok := i.listed[c]
	return ok
}

func asAttributes(v any) (Attributes, bool) {
	switch m := v.(type) {
	case Attributes:
		return m, true
	case map[string]any:
		return Attributes(m), true
	default:
		return nil, false
	}
}
