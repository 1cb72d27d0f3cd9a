// Package services defines shared utilities consumed by the pipeline stages
// and the external model integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (malformed input, empty input, unresolvable identity, external tool)
//     so the CLI can report them consistently.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
