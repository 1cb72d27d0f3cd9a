// Package subtitles renders speaker-attributed sentences as a plain
// transcript and as SRT subtitles, and validates SRT files after export.
//
// Writers stream into an io.Writer; Export wraps them with atomic file
// replacement so a failed run never leaves half-written outputs behind.
package subtitles
