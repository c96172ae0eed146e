// Package events defines the search related events emitted on the event bus.
//
// Available event types:
//   - ImprovementEvent: a restart found a strictly better solution
package events
