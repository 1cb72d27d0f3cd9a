package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"speakerline/internal/config"
	"speakerline/internal/logging"
	"speakerline/internal/services"
	"speakerline/internal/subtitles"
	"speakerline/internal/textutil"
	"speakerline/internal/timeline"
)

// ExportRequest names existing artifacts to fuse without running any model.
type ExportRequest struct {
	WordsPath string
	RTTMPath  string
	// LabelsPath optionally points at a JSON array of punctuation labels.
	LabelsPath string
	OutputDir  string
	// Name is the output file stem; defaults to the RTTM file stem.
	Name string
}

// ExportArtifacts runs the fusion and export stages on saved artifacts.
func ExportArtifacts(ctx context.Context, cfg *config.Config, req ExportRequest, logger *slog.Logger) (subtitles.Outputs, error) {
	logger = logging.WithContext(services.WithStage(ctx, "export"), logging.NewComponentLogger(logger, "pipeline"))

	words, err := loadWordsFile(req.WordsPath)
	if err != nil {
		return subtitles.Outputs{}, err
	}
	turns, err := loadRTTMFile(req.RTTMPath)
	if err != nil {
		return subtitles.Outputs{}, err
	}
	opts, err := FuseOptionsFromConfig(cfg)
	if err != nil {
		return subtitles.Outputs{}, services.Wrap(services.ErrConfiguration, "export", "alignment", "", err)
	}
	if req.LabelsPath != "" {
		if opts.Labels, err = ReadLabels(req.LabelsPath); err != nil {
			return subtitles.Outputs{}, services.Wrap(services.ErrMalformedInput, "export", "read labels", req.LabelsPath, err)
		}
	}

	sentences, stats, err := Fuse(words, turns, opts)
	if err != nil {
		return subtitles.Outputs{}, err
	}
	logger.Info("artifacts fused",
		logging.Int("words", stats.Words),
		logging.Int("relabeled_words", stats.Relabeled),
		logging.Int("sentences", stats.Sentences),
	)

	name := textutil.SanitizeFileName(req.Name)
	if name == "" {
		name = Stem(req.RTTMPath)
	}
	outDir := req.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(req.RTTMPath)
	}
	out, err := subtitles.Export(sentences, exportOptions(cfg, outDir, name))
	if err != nil {
		return out, err
	}
	logger.Info("outputs written",
		logging.String(logging.FieldEventType, "export_complete"),
		logging.String("transcript", out.TranscriptPath),
		logging.String("subtitles", out.SubtitlePath),
		logging.Int("cues", out.CueCount),
	)
	return out, nil
}

func exportOptions(cfg *config.Config, outDir, name string) subtitles.Options {
	opts := subtitles.Options{ByteOrderMark: cfg.Export.ByteOrderMark}
	if cfg.Export.Transcript {
		opts.TranscriptPath = filepath.Join(outDir, name+".txt")
	}
	if cfg.Export.Subtitles {
		opts.SubtitlePath = filepath.Join(outDir, name+".srt")
	}
	return opts
}

func loadWordsFile(path string) ([]timeline.Word, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "transcribe", "open words", path, err)
	}
	defer file.Close()
	words, err := timeline.LoadWords(file)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, services.Wrap(services.ErrEmptyInput, "transcribe", "load words", path+" contains no words", nil)
	}
	return words, nil
}

func loadRTTMFile(path string) ([]timeline.SpeakerTurn, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "diarize", "open rttm", path, err)
	}
	defer file.Close()
	turns, err := timeline.ParseRTTM(file)
	if err != nil {
		return nil, err
	}
	if len(turns) == 0 {
		return nil, services.Wrap(services.ErrEmptyInput, "diarize", "load rttm", path+" contains no speaker turns", nil)
	}
	return turns, nil
}
