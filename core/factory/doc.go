// Package factory provides a small generic registry used to build pluggable
// modules (cooling schedules, metrics sinks) from configuration. Each entry is
// selected by its type name and receives its raw "conf" map, decoded with
// Decode into a typed struct.
package factory
