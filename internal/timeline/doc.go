// Package timeline fuses a word-level transcript with a speaker-turn timeline.
//
// The stages run in order: LoadWords and ParseRTTM normalize aligner and
// diarizer output into millisecond timelines, MapWords assigns each word the
// speaker whose turn covers its anchor, ApplyPunctuation restores sentence
// terminators, Realign moves turn boundaries that split a sentence, and
// Aggregate folds the result into one Sentence per same-speaker run.
//
// Every function here is pure over its inputs and returns new slices.
package timeline
