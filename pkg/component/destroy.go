package component

// DestroyOptions configure Destroy.
type DestroyOptions struct {
	// Force drops a pending coalesced render instead of flushing it.
	Force bool
}

// DestroyOption configures Destroy.
type DestroyOption func(*DestroyOptions)

// WithForce drops pending coalesced renders and their after_update
// deliveries.
func WithForce() DestroyOption {
	return func(o *DestroyOptions) {
		o.Force = true
	}
}

// Destroy tears the instance down: OnDestroy and the destroy event fire,
// children are destroyed, the node is detached, and the instance leaves the
// registry and its parent. Destroying twice is a no-op. Called during a
// render of the instance, the teardown runs once the render returns.
func (i *Instance) Destroy(opts ...DestroyOption) {
	if i.state >= StateDestroying {
		return
	}
	var o DestroyOptions
	for _, opt := range opts {
		opt(&o)
	}

	if i.rendering {
		i.destroyPending = true
		i.destroyForce = i.destroyForce || o.Force
		return
	}

	if i.timer != nil {
		i.timer.Stop()
		i.timer = nil
		if o.Force {
			i.pendingAfter = nil
		} else if err := i.renderAndNotify(true); err != nil {
			i.engine.logger.Warn("final render failed",
				"type", i.typ.tag,
				"id", i.id,
				"error", err)
		}
		// A subscriber may have destroyed the instance during the flush.
		if i.state >= StateDestroying {
			return
		}
	}

	i.state = StateDestroying
	if d, ok := i.def.(Destroyer); ok {
		d.OnDestroy(i)
	}
	i.events.emit(EventDestroy, nil)

	for _, c := range i.sortedChildren() {
		if c.parent == i {
			c.Destroy(WithForce())
		}
	}

	if i.node != nil {
		i.markAncestorsStale()
		i.node.Remove()
		i.node.Owner = nil
		i.node = nil
	}
	i.engine.unregister(i)
	if i.parent != nil {
		i.parent.release(i)
	}
	i.transfers = nil
	i.state = StateDestroyed

	i.engine.logger.Debug("destroyed", "type", i.typ.tag, "id", i.id)
	i.engine.notify(LifecycleDestroyed, i)
}
