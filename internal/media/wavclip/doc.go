// Package wavclip cuts PCM WAV files into short clips for speaker embedding.
package wavclip
