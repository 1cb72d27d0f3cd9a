package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"speakerline/internal/config"
	"speakerline/internal/identity"
	"speakerline/internal/language"
	"speakerline/internal/logging"
	"speakerline/internal/services"
	"speakerline/internal/store"
	"speakerline/internal/subtitles"
	"speakerline/internal/timeline"
)

// Stage names recorded in the run ledger and attached to log lines.
const (
	StageNormalize  = "normalize"
	StageTranscribe = "transcribe"
	StageDiarize    = "diarize"
	StageIdentify   = "identify"
	StageAlign      = "align"
	StageExport     = "export"
)

// ClassifierLoader supplies the identity classifier for a run.
type ClassifierLoader func(ctx context.Context) (identity.Classifier, error)

// Pipeline executes runs against one configuration and ledger.
type Pipeline struct {
	cfg        *config.Config
	store      *store.Store
	logger     *slog.Logger
	services   ServiceFactory
	classifier ClassifierLoader
	now        func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithServices replaces the model collaborators (for testing).
func WithServices(factory ServiceFactory) Option {
	return func(p *Pipeline) { p.services = factory }
}

// WithClassifier replaces the voiceprint gallery classifier.
func WithClassifier(loader ClassifierLoader) Option {
	return func(p *Pipeline) { p.classifier = loader }
}

// New constructs a Pipeline.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		store:    st,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		services: DefaultServices,
		now:      time.Now,
	}
	p.classifier = p.loadGallery
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Request describes one run.
type Request struct {
	AudioPath string
	// OutputDir overrides paths.output_dir; empty falls back to it and then
	// to the audio file's directory.
	OutputDir string
	// Fresh ignores existing checkpoints.
	Fresh bool
}

// Result summarizes a successful run.
type Result struct {
	RunID          string
	WorkDir        string
	TranscriptPath string
	SubtitlePath   string
	Sentences      []timeline.Sentence
	Identities     map[string]string
	Speakers       int
}

// runState carries artifacts between stages.
type runState struct {
	id       string
	req      Request
	workDir  string
	services Services
	logger   *slog.Logger

	words      []timeline.Word
	language   string
	turns      []timeline.SpeakerTurn
	identities map[string]string
	sentences  []timeline.Sentence
	outputs    subtitles.Outputs
}

func (s *runState) path(name string) string {
	return filepath.Join(s.workDir, name)
}

// Run processes one audio file. Outputs are only written once every earlier
// stage has succeeded.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	audio, err := filepath.Abs(strings.TrimSpace(req.AudioPath))
	if err != nil || strings.TrimSpace(req.AudioPath) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "resolve audio", req.AudioPath, err)
	}
	if info, err := os.Stat(audio); err != nil || info.IsDir() {
		return nil, services.Wrap(services.ErrNotFound, "pipeline", "stat audio", audio, err)
	}
	req.AudioPath = audio

	workDir := WorkDirFor(p.cfg.Paths.WorkDir, audio)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	lock := flock.New(filepath.Join(workDir, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire work dir lock: %w", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "lock", fmt.Sprintf("another run is already processing %s", filepath.Base(audio)), nil)
	}
	defer func() { _ = lock.Unlock() }()

	id := uuid.NewString()
	ctx = services.WithRunID(ctx, id)
	state := &runState{
		id:       id,
		req:      req,
		workDir:  workDir,
		services: p.services(p.cfg, workDir),
		logger:   logging.WithContext(ctx, p.logger),
	}
	if _, err := p.store.CreateRun(ctx, id, audio); err != nil {
		return nil, err
	}
	state.logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("audio", audio),
		logging.String("work_dir", workDir),
		logging.Bool("fresh", req.Fresh),
		logging.Bool("identity_enabled", p.cfg.Identity.Enabled),
	)

	stages := []struct {
		name string
		fn   func(context.Context, *runState) error
	}{
		{StageNormalize, p.normalize},
		{StageTranscribe, p.transcribe},
		{StageDiarize, p.diarize},
		{StageIdentify, p.identify},
		{StageAlign, p.align},
		{StageExport, p.export},
	}
	start := p.now()
	for _, st := range stages {
		if err := p.runStage(ctx, state, st.name, st.fn); err != nil {
			p.failRun(ctx, state, st.name, err)
			return nil, err
		}
	}

	speakers := len(timeline.SpeakerIDs(state.turns))
	if err := p.store.CompleteRun(ctx, id, store.RunResult{
		TranscriptPath: state.outputs.TranscriptPath,
		SubtitlePath:   state.outputs.SubtitlePath,
		SentenceCount:  len(state.sentences),
		SpeakerCount:   speakers,
	}); err != nil {
		return nil, err
	}
	state.logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("sentences", len(state.sentences)),
		logging.Int("speakers", speakers),
		logging.Duration("duration", p.now().Sub(start)),
	)
	return &Result{
		RunID:          id,
		WorkDir:        workDir,
		TranscriptPath: state.outputs.TranscriptPath,
		SubtitlePath:   state.outputs.SubtitlePath,
		Sentences:      state.sentences,
		Identities:     state.identities,
		Speakers:       speakers,
	}, nil
}

func (p *Pipeline) runStage(ctx context.Context, state *runState, name string, fn func(context.Context, *runState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, p.logger)
	if err := p.store.UpdateRunStage(ctx, state.id, name); err != nil {
		return err
	}
	started := p.now()
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	prev := state.logger
	state.logger = logger
	err := fn(stageCtx, state)
	state.logger = prev
	if err != nil {
		return err
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", p.now().Sub(started)),
	)
	return nil
}

func (p *Pipeline) failRun(ctx context.Context, state *runState, stage string, stageErr error) {
	logger := logging.WithContext(services.WithStage(ctx, stage), p.logger)
	if errors.Is(stageErr, context.Canceled) {
		logger.Warn("run interrupted", logging.String(logging.FieldEventType, "run_interrupted"))
	} else {
		logging.ErrorWithContext(logger, "stage failed", "stage_failure",
			logging.Error(stageErr),
			logging.String(logging.FieldErrorHint, failureHint(stageErr)),
			logging.String(logging.FieldImpact, "no outputs were written"),
		)
	}
	// The caller's context may already be cancelled; record the failure anyway.
	if err := p.store.FailRun(context.WithoutCancel(ctx), state.id, stageErr); err != nil {
		logger.Error("failed to persist run failure", logging.Error(err))
	}
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrUnresolvableIdentity):
		return "enroll voiceprints with `speakerline voiceprint enroll` or disable identity resolution"
	case errors.Is(err, services.ErrMalformedInput):
		return "inspect the checkpoint named in the error or rerun with --fresh"
	case errors.Is(err, services.ErrExternalTool):
		return "run `speakerline doctor` to check uvx and ffmpeg"
	case errors.Is(err, services.ErrConfiguration):
		return "run `speakerline config validate`"
	default:
		return "rerun with --log-level debug for details"
	}
}

func (p *Pipeline) normalize(ctx context.Context, s *runState) error {
	dest := s.path(AudioFile)
	if reusable(dest, s.req.Fresh) {
		s.logger.Info("reusing normalized audio", logging.String("path", dest))
		return nil
	}
	if err := s.services.Audio.NormalizeAudio(ctx, s.req.AudioPath, dest); err != nil {
		return services.Wrap(services.ErrExternalTool, StageNormalize, "ffmpeg", s.req.AudioPath, err)
	}
	return nil
}

func (p *Pipeline) transcribe(ctx context.Context, s *runState) error {
	wordsPath := s.path(WordsFile)
	if reusable(wordsPath, s.req.Fresh) {
		s.logger.Info("reusing transcription checkpoint", logging.String("path", wordsPath))
	} else {
		result, err := s.services.Transcriber.TranscribeFile(ctx, s.path(AudioFile), s.path("whisperx"), p.cfg.Transcription.Language)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, StageTranscribe, "whisperx", "", err)
		}
		if err := os.Rename(result.JSONPath, wordsPath); err != nil {
			return fmt.Errorf("store transcription checkpoint: %w", err)
		}
	}

	words, err := loadWordsFile(wordsPath)
	if err != nil {
		return err
	}
	s.words = words
	s.language = p.cfg.Transcription.Language
	if s.language == "" {
		s.language = documentLanguage(wordsPath)
	}
	s.logger.Info("words loaded",
		logging.Int("words", len(words)),
		logging.String("language", language.DisplayName(s.language)),
	)
	return nil
}

func (p *Pipeline) diarize(ctx context.Context, s *runState) error {
	rttmPath := s.path(DiarizationFile)
	if reusable(rttmPath, s.req.Fresh) {
		s.logger.Info("reusing diarization checkpoint", logging.String("path", rttmPath))
	} else {
		if _, err := s.services.Diarizer.Diarize(ctx, s.path(AudioFile), rttmPath, RecordingID(s.req.AudioPath)); err != nil {
			return err
		}
	}
	turns, err := loadRTTMFile(rttmPath)
	if err != nil {
		return err
	}
	s.turns = turns
	s.logger.Info("speaker turns loaded",
		logging.Int("turns", len(turns)),
		logging.Int("clusters", len(timeline.SpeakerIDs(turns))),
	)
	return nil
}
