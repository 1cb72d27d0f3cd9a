// Package main hosts the speakerline CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration, builds the logger and opens
// the run ledger once per invocation, then hands off to the pipeline, export,
// watcher and voiceprint packages. Keep this package lean: new behaviour
// belongs in internal packages first and is surfaced here through a command
// or flag.
package main
