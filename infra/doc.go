// Package infra contains technical adapters such as catalog sources, the
// MQTT client, metrics sinks and the solve log. These packages should depend
// only on the interfaces defined in the core packages.
package infra
