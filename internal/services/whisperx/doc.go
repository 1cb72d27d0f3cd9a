// Package whisperx wraps the WhisperX command line for word-level
// transcription.
//
// This package handles:
//   - Normalizing input audio to mono 16 kHz PCM WAV via ffmpeg
//   - WhisperX transcription and forced alignment invoked through uvx
//   - Locating the JSON document that carries per-word timestamps
//
// The JSON output is consumed by timeline.LoadWords and kept in the run's
// work directory as the words checkpoint.
package whisperx
