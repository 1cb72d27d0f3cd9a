package speechmodels

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"speakerline/internal/fileutil"
	"speakerline/internal/services"
)

// Diarizer produces an RTTM speaker-turn timeline for an audio file.
type Diarizer struct {
	runner *Runner
}

// Diarizer returns the diarization model wrapper.
func (r *Runner) Diarizer() *Diarizer { return &Diarizer{runner: r} }

// Diarize writes the speaker timeline for audioPath to rttmPath and returns
// the number of speakers the model found. uri becomes the RTTM file id.
func (d *Diarizer) Diarize(ctx context.Context, audioPath, rttmPath, uri string) (int, error) {
	if err := d.runner.requireToken("diarize"); err != nil {
		return 0, err
	}
	args := []string{
		"--audio", audioPath,
		"--rttm", rttmPath,
		"--uri", uri,
		"--hf-token", d.runner.cfg.HFToken,
	}
	if n := d.runner.cfg.NumSpeakers; n > 0 {
		args = append(args, "--num-speakers", strconv.Itoa(n))
	}
	var out struct {
		Speakers int `json:"speakers"`
	}
	if err := d.runner.invoke(ctx, "diarize", pyannotePackages, &out, args...); err != nil {
		return 0, err
	}
	if !fileutil.NonEmptyFile(rttmPath) {
		return 0, services.Wrap(services.ErrExternalTool, "speechmodels", "diarize",
			fmt.Sprintf("no timeline written to %s", rttmPath), nil)
	}
	return out.Speakers, nil
}

// Embedder computes speaker embeddings for short clips.
type Embedder struct {
	runner *Runner
}

// Embedder returns the embedding model wrapper.
func (r *Runner) Embedder() *Embedder { return &Embedder{runner: r} }

// Embed returns the speaker embedding of clipPath.
func (e *Embedder) Embed(ctx context.Context, clipPath string) ([]float32, error) {
	if err := e.runner.requireToken("embed"); err != nil {
		return nil, err
	}
	var out struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := e.runner.invoke(ctx, "embed", pyannotePackages, &out,
		"--clip", clipPath,
		"--hf-token", e.runner.cfg.HFToken,
	); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "speechmodels", "embed", clipPath, ErrNoEmbedding)
	}
	return out.Embedding, nil
}

// Punctuator predicts punctuation marks for a word sequence.
type Punctuator struct {
	runner *Runner
}

// Punctuator returns the punctuation model wrapper.
func (r *Runner) Punctuator() *Punctuator { return &Punctuator{runner: r} }

// Punctuate returns one label per word: a punctuation mark or "0" for none.
func (p *Punctuator) Punctuate(ctx context.Context, words []string) ([]string, error) {
	if len(words) == 0 {
		return nil, nil
	}
	payload, err := json.Marshal(words)
	if err != nil {
		return nil, fmt.Errorf("encode words: %w", err)
	}
	input := filepath.Join(p.runner.workDir, "punctuate-input.json")
	if err := fileutil.WriteFileAtomic(input, payload, 0o644); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "speechmodels", "punctuate", "stage words", err)
	}
	defer func() { _ = os.Remove(input) }()

	var out struct {
		Labels []string `json:"labels"`
	}
	if err := p.runner.invoke(ctx, "punctuate", punctuationPackages, &out, "--words", input); err != nil {
		return nil, err
	}
	if len(out.Labels) != len(words) {
		return nil, services.Wrap(services.ErrExternalTool, "speechmodels", "punctuate",
			fmt.Sprintf("model returned %d labels for %d words", len(out.Labels), len(words)), nil)
	}
	return out.Labels, nil
}
