// Package metrics defines the records emitted by annealing runs and the sink
// interfaces that consume them. Every sink records finished restarts;
// ImprovementRecorder and SolveRecorder are optional. NewMetricsSink builds
// the sinks listed in configuration and combines them in a MultiSink.
package metrics
