// Package infra holds the adapters behind the core interfaces: the zerolog
// logger, Prometheus and InfluxDB metrics sinks, the Sentry monitor and the
// MQTT assignment publisher. Nothing under core imports these packages.
package infra
