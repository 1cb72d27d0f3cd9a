// Package preflight provides readiness checks for the external tools,
// credentials and filesystem paths speakerline depends on.
//
// These checks run in two contexts:
//   - The run and watch commands call RunAll before any audio is processed.
//     If a check fails, nothing starts, which avoids a model download only to
//     fail at the first write.
//   - The CLI "speakerline doctor" command renders every result, including
//     CheckSystemDeps, as a table.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
