// Package store persists the run ledger and voiceprint gallery in SQLite.
//
// Each pipeline run records its lifecycle, the per-cluster identity votes and
// the resolved identities so later `speakerline votes` invocations can explain
// a labeling decision. Enrolled voiceprints live alongside the ledger and feed
// the identity classifier.
//
// The database uses WAL mode and retries on SQLITE_BUSY so the watch loop and
// ad-hoc CLI commands can share it.
package store
