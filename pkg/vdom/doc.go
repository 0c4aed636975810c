// Package vdom provides the in-memory visual tree that sipa components render
// into.
//
// A VNode is an element, a text node or a document. Documents stand in for
// the visible page: a node is connected when one of its ancestors is a
// document, and components become live only once their root is connected.
//
// # Parsing
//
// Parse turns a markup string into nodes using the HTML5 parsing algorithm of
// golang.org/x/net/html. Self-closing tags of non-void elements, which HTML5
// would otherwise treat as open tags, are expanded first:
//
//	nodes, err := vdom.Parse(`Hello<slot name="title"/><slot/>`)
//
// # Reconciliation
//
// Reconcile patches a live node in place so that it matches a freshly built
// one, returning the operations applied. Nodes owned by a component (Owner !=
// nil) are never patched into; they are kept when the same node occupies the
// same position and swapped in otherwise.
package vdom
