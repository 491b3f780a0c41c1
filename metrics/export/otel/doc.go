// Package otel publishes authservice metrics through an OpenTelemetry
// Meter.
//
// [NewOTelExporter] registers one Int64ObservableCounter per engine counter
// and one Int64ObservableGauge per latency bucket. A single callback reads
// [authservice.Engine.MetricsSnapshot] on each collection. The caller owns
// the MeterProvider.
package otel
