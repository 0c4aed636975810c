// Package component is the sipa component engine.
//
// A component type is a Definition registered with an Engine. Instances of a
// type render their template into a vdom tree, keep child instances alive
// across re-renders, route slotted content into named and default insertion
// points, and reconcile list-bound children without disturbing the nodes of
// members that stay.
//
// # Defining components
//
//	var Card = component.Define("CardView", func(a component.Attributes) (string, error) {
//	    return fmt.Sprintf(`<h2>%s</h2><slot name="header"/><slot/>`, a["title"]), nil
//	}, component.WithDefaults(component.Attributes{"title": "Untitled"}))
//
//	eng := component.NewEngine(component.DefaultConfig())
//	cards := eng.Register(Card)
//	card, err := cards.New(component.Attributes{"title": "Hello"})
//
// The tag of a type is its dash-cased name ("CardView" becomes "card-view").
// Templates reference nested components by tag:
//
//	<card-view sipa-alias="main" title="Inbox" sipa-attrs='{"count": 3}'>
//	    <p slot="header">Header</p>
//	    Body text
//	</card-view>
//
// # Updates
//
// Update merges a partial attribute map and re-renders. Keys that name a child
// alias are forwarded to the child; keys bound to a list container replace or
// forward into the member sequence. before_update subscribers may rewrite the
// partial before it is merged; after_update subscribers receive a snapshot.
//
// Renders are coalesced: an update that arrives within RenderPeriod of the
// last render is merged at once and a single trailing render is scheduled at
// the end of the window. Trailing renders run on the engine loop (Run or
// RunPending). A period of zero renders on every call.
//
// # Threading
//
// Instances are not safe for concurrent use. Every mutation happens on the
// goroutine that owns the engine; other goroutines hand work to it with Do.
// Registry lookups (Lookup, FromNode, Type.All) may be called from anywhere.
package component
