// Package stream provides session lifecycle and streaming-generation
// coordination. It is structured into small files by concern:
//
//   - config.go: Config and package defaults.
//   - session.go: Session type and cooperative cancellation.
//   - registry.go: Registry, the single owner of the live-session map,
//     including the per-conversation cap and oldest-first eviction.
//   - errors.go: error types and helpers (IsSessionNotFound, ...).
//   - events.go: EventSink, the push-channel abstraction the pipeline
//     emits through; memory implementation for tests.
//   - prompt.go: prompt construction from conversation history.
//   - pipeline.go: Pipeline, the two-phase start/run entry points.
//
// External packages should treat this package as the orchestration layer and
// use public methods only. All mutation of sessions goes through the Registry;
// no caller holds a reference it can mutate concurrently.
package stream
