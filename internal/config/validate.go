package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateDiarization(); err != nil {
		return err
	}
	if err := c.validateAlignment(); err != nil {
		return err
	}
	if err := c.validateIdentity(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("transcription.vad_method must be silero or pyannote, got %q", c.Transcription.VADMethod)
	}
	if c.Transcription.BatchSize < 0 || c.Transcription.BeamSize < 0 {
		return errors.New("transcription.batch_size and transcription.beam_size must be >= 0")
	}
	return nil
}

func (c *Config) validateDiarization() error {
	if c.Diarization.NumSpeakers < 0 {
		return errors.New("diarization.num_speakers must be >= 0")
	}
	return nil
}

func (c *Config) validateAlignment() error {
	switch c.Alignment.WordAnchor {
	case "start", "end", "mid":
	default:
		return fmt.Errorf("alignment.word_anchor must be start, end, or mid, got %q", c.Alignment.WordAnchor)
	}
	if c.Alignment.MaxWordsInSentence <= 0 {
		return errors.New("alignment.max_words_in_sentence must be positive")
	}
	return nil
}

func (c *Config) validateIdentity() error {
	cfg := c.Identity
	if cfg.NSegments <= 0 {
		return errors.New("identity.n_segments must be positive")
	}
	if cfg.MinSegmentSeconds < 0 {
		return errors.New("identity.min_segment_seconds must be >= 0")
	}
	if cfg.MaxAudioSeconds < 0 {
		return errors.New("identity.max_audio_seconds must be >= 0")
	}
	if cfg.Workers <= 0 {
		return errors.New("identity.workers must be positive")
	}
	if cfg.MinSimilarity < 0 || cfg.MinSimilarity > 1 {
		return errors.New("identity.min_similarity must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
