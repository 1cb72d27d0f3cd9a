// Package language normalizes language codes (ISO 639-1, ISO 639-2 and
// English names) and reports which languages the punctuation restoration
// model supports.
package language
