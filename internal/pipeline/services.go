package pipeline

import (
	"context"

	"speakerline/internal/config"
	"speakerline/internal/identity"
	"speakerline/internal/services/speechmodels"
	"speakerline/internal/services/whisperx"
)

// AudioNormalizer converts arbitrary input audio to mono 16kHz PCM WAV.
type AudioNormalizer interface {
	NormalizeAudio(ctx context.Context, source, dest string) error
}

// Transcriber writes a word-timestamped JSON transcript for an audio file.
type Transcriber interface {
	TranscribeFile(ctx context.Context, source, outputDir, language string) (whisperx.TranscribeResult, error)
}

// Diarizer writes an RTTM speaker timeline for an audio file.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath, rttmPath, uri string) (int, error)
}

// Punctuator predicts one punctuation label per word.
type Punctuator interface {
	Punctuate(ctx context.Context, words []string) ([]string, error)
}

// Services bundles the external model collaborators of one run.
type Services struct {
	Audio       AudioNormalizer
	Transcriber Transcriber
	Diarizer    Diarizer
	Punctuator  Punctuator
	Embedder    identity.Embedder
}

// ServiceFactory builds the collaborators for a run whose artifacts live in workDir.
type ServiceFactory func(cfg *config.Config, workDir string) Services

// DefaultServices wires WhisperX and the speech model helper.
func DefaultServices(cfg *config.Config, workDir string) Services {
	decoding := whisperx.DefaultDecoding()
	if cfg.Transcription.BatchSize > 0 {
		decoding.BatchSize = cfg.Transcription.BatchSize
	}
	if cfg.Transcription.BeamSize > 0 {
		decoding.BeamSize = cfg.Transcription.BeamSize
		decoding.BestOf = cfg.Transcription.BeamSize
	}
	wx := whisperx.NewService(whisperx.Config{
		Model:       cfg.Transcription.WhisperXModel,
		CUDAEnabled: cfg.Transcription.CUDAEnabled,
		VADMethod:   cfg.Transcription.VADMethod,
		HFToken:     cfg.Transcription.HFToken,
		Decoding:    decoding,
	}, whisperx.FFmpegCommand)
	if cfg.Transcription.VADMethod == whisperx.VADMethodPyannote && cfg.Transcription.HFToken == "" {
		wx.SetVADMethod(whisperx.VADMethodSilero)
	}
	models := speechmodels.NewRunner(speechmodels.Config{
		CUDAEnabled: cfg.Transcription.CUDAEnabled,
		HFToken:     cfg.Transcription.HFToken,
		NumSpeakers: cfg.Diarization.NumSpeakers,
	}, workDir)
	return Services{
		Audio:       wx,
		Transcriber: wx,
		Diarizer:    models.Diarizer(),
		Punctuator:  models.Punctuator(),
		Embedder:    models.Embedder(),
	}
}
