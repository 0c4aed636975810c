// Package telemetry instruments a component engine with Prometheus metrics
// and OpenTelemetry traces.
//
// # Prometheus Metrics
//
// Metrics records every render and lifecycle transition:
//   - sipa_renders_total: renders by component type and status
//   - sipa_render_errors_total: failed renders by component type and error code
//   - sipa_render_duration_seconds: render duration histogram
//   - sipa_patches_applied_total: node operations applied to live trees
//   - sipa_coalesced_updates_total: updates applied by trailing renders
//   - sipa_live_instances: instances currently attached to a document
//   - sipa_lifecycle_events_total: lifecycle transitions by kind
//
//	m := telemetry.NewMetrics(telemetry.WithNamespace("todo"))
//	m.Install(eng)
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
//
// # OpenTelemetry
//
// Tracing starts one span per render with the component type, identity and
// the number of patches applied:
//
//	eng.Use(telemetry.Tracing(telemetry.WithTracerName("todo")))
//
// The tracer comes from the global OpenTelemetry tracer provider unless
// WithTracerProvider is given.
package telemetry
