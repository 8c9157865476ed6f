// Package metrics defines the sinks that record solver and catalog activity.
// Sinks such as the Prometheus and InfluxDB implementations in infra/metrics
// register themselves by name; NewMetricsSink combines the configured ones
// into a MultiSink.
package metrics
