// Package otel provides OpenTelemetry metric exporter bindings for the
// manager's counters.
//
// [NewOTelExporter] registers an Int64ObservableCounter per counter and a
// single callback that reads [hallpass.Manager.MetricsSnapshot] on each
// collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider. Callers supply the Meter.
//   - Mutate manager state.
package otel
