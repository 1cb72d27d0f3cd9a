// Package pipeline runs speakerline end to end for one audio file.
//
// A run normalizes the audio, transcribes it with word timestamps, diarizes
// it into speaker turns, optionally resolves cluster ids to enrolled
// identities, fuses words with turns (mapping, punctuation restoration,
// sentence realignment, aggregation) and exports the transcript and SRT.
//
// Each model stage leaves a checkpoint in the per-audio work directory
// (words.json, diarization.rttm, identities.json) that later runs reuse
// unless Fresh is set. Runs are recorded in the sqlite ledger and hold a
// file lock on their work directory for their whole lifetime.
package pipeline
