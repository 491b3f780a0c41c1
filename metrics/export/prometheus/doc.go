// Package prometheus renders authservice metrics in the Prometheus text
// exposition format.
//
// [NewPrometheusExporter] reads [authservice.Engine.MetricsSnapshot] on
// every scrape. Counters are named authservice_*_total; the one histogram
// is authservice_verify_token_latency_seconds. Nothing is registered in a
// global registry: callers mount [PrometheusExporter.Handler] themselves.
package prometheus
