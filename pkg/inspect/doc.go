// Package inspect serves a read-only view of a running engine over HTTP.
//
// Routes:
//
//	GET /version         build and runtime information
//	GET /instances       every registered instance
//	GET /instances/{id}  one instance with its markup
//	GET /metrics         Prometheus metrics
//	GET /live            WebSocket stream of render and lifecycle events
//
// Instance routes read the engine through Engine.Do, so the engine loop
// must be running (Engine.Run).
package inspect
