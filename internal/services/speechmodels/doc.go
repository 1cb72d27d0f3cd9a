// Package speechmodels runs the Python speech models speakerline depends on
// through uvx: pyannote speaker diarization, pyannote speaker embeddings and
// multilingual punctuation restoration.
//
// A single helper script is embedded in the binary and written to the work
// directory on first use. Each subcommand prints one JSON document on stdout
// (or writes an RTTM file for diarize) and reports failures as a JSON
// {"error": ...} object on stderr.
package speechmodels
