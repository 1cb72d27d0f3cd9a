package pipeline

import (
	"context"
	"path/filepath"

	"speakerline/internal/language"
	"speakerline/internal/logging"
	"speakerline/internal/services"
	"speakerline/internal/subtitles"
)

func (p *Pipeline) align(ctx context.Context, s *runState) error {
	opts, err := FuseOptionsFromConfig(p.cfg)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, StageAlign, "alignment", "", err)
	}
	if opts.Labels, err = p.punctuationLabels(ctx, s); err != nil {
		return err
	}

	sentences, stats, err := Fuse(s.words, s.turns, opts)
	if err != nil {
		return err
	}
	s.sentences = sentences
	s.logger.Info("words fused",
		logging.Int("words", stats.Words),
		logging.Int("relabeled_words", stats.Relabeled),
		logging.Int("sentences", stats.Sentences),
		logging.Bool("punctuated", opts.Labels != nil),
	)
	return nil
}

// punctuationLabels returns restored punctuation for the run's words, or nil
// when restoration is disabled or unsupported for the language.
func (p *Pipeline) punctuationLabels(ctx context.Context, s *runState) ([]string, error) {
	if !p.cfg.Alignment.PunctuationEnabled {
		return nil, nil
	}
	if !language.PunctuationSupported(s.language) {
		logging.WarnWithContext(s.logger, "punctuation restoration unavailable", "punctuation_skipped",
			logging.String("language", language.DisplayName(s.language)),
			logging.String(logging.FieldImpact, "sentence realignment relies on transcript punctuation only"),
		)
		return nil, nil
	}
	path := s.path(LabelsFile)
	if reusable(path, s.req.Fresh) {
		labels, err := ReadLabels(path)
		if err != nil {
			return nil, services.Wrap(services.ErrMalformedInput, StageAlign, "read checkpoint", path, err)
		}
		if len(labels) == len(s.words) {
			s.logger.Info("reusing punctuation checkpoint", logging.String("path", path), logging.Int("labels", len(labels)))
			return labels, nil
		}
		logging.WarnWithContext(s.logger, "punctuation checkpoint is stale", "punctuation_checkpoint_stale",
			logging.Int("labels", len(labels)),
			logging.Int("words", len(s.words)),
			logging.String(logging.FieldImpact, "punctuation will be restored again"),
		)
	}

	words := make([]string, len(s.words))
	for i, word := range s.words {
		words[i] = word.Text
	}
	labels, err := s.services.Punctuator.Punctuate(ctx, words)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, StageAlign, "punctuate", "", err)
	}
	if err := writeLabels(path, labels); err != nil {
		return nil, services.Wrap(services.ErrValidation, StageAlign, "write checkpoint", path, err)
	}
	return labels, nil
}

func (p *Pipeline) export(_ context.Context, s *runState) error {
	outDir := s.req.OutputDir
	if outDir == "" {
		outDir = p.cfg.Paths.OutputDir
	}
	if outDir == "" {
		outDir = filepath.Dir(s.req.AudioPath)
	}
	out, err := subtitles.Export(s.sentences, exportOptions(p.cfg, outDir, Stem(s.req.AudioPath)))
	if err != nil {
		return err
	}
	s.outputs = out
	s.logger.Info("outputs written",
		logging.String(logging.FieldEventType, "export_complete"),
		logging.String("transcript", out.TranscriptPath),
		logging.String("subtitles", out.SubtitlePath),
		logging.Int("cues", out.CueCount),
	)
	return nil
}

