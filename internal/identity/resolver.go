package identity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"speakerline/internal/logging"
	"speakerline/internal/services"
	"speakerline/internal/timeline"
)

// Resolver assigns identities to diarization clusters by sampled voting.
type Resolver struct {
	opts       Options
	slicers    SlicerFactory
	embedder   Embedder
	classifier Classifier
	logger     *slog.Logger
}

// NewResolver constructs a Resolver. Zero-valued options fall back to DefaultOptions.
func NewResolver(opts Options, slicers SlicerFactory, embedder Embedder, classifier Classifier, logger *slog.Logger) *Resolver {
	defaults := DefaultOptions()
	if opts.NSegments <= 0 {
		opts.NSegments = defaults.NSegments
	}
	if opts.MinSegment < 0 {
		opts.MinSegment = 0
	}
	if opts.Workers <= 0 {
		opts.Workers = defaults.Workers
	}
	return &Resolver{
		opts:       opts,
		slicers:    slicers,
		embedder:   embedder,
		classifier: classifier,
		logger:     logging.NewComponentLogger(logger, "identity"),
	}
}

// Resolve samples turns from audioPath and votes an identity for every
// cluster in turns. A cluster that ends up with no votes fails the whole
// resolution with ErrUnresolvableIdentity.
func (r *Resolver) Resolve(ctx context.Context, turns []timeline.SpeakerTurn, audioPath string) (Resolution, error) {
	if len(turns) == 0 {
		return Resolution{}, services.Wrap(services.ErrEmptyInput, "identity", "resolve", "no speaker turns", nil)
	}
	logger := logging.WithContext(ctx, r.logger)

	samples := SelectSamples(turns, r.opts)
	logger.Info("identity samples selected",
		logging.Int("samples", len(samples)),
		logging.Int("clusters", len(timeline.SpeakerIDs(turns))),
	)

	var matches []*Match
	if len(samples) > 0 {
		slicer, cleanup, err := r.slicers.Open(audioPath)
		if err != nil {
			return Resolution{}, services.Wrap(services.ErrExternalTool, "identity", "open audio", audioPath, err)
		}
		defer cleanup()
		matches, err = r.classifySamples(ctx, slicer, samples)
		if err != nil {
			return Resolution{}, err
		}
	}

	resolution := Resolution{Mapping: make(map[string]string)}
	byCluster := make(map[string]*ClusterResolution)
	for _, clusterID := range timeline.SpeakerIDs(turns) {
		resolution.Clusters = append(resolution.Clusters, ClusterResolution{ClusterID: clusterID})
	}
	for i := range resolution.Clusters {
		byCluster[resolution.Clusters[i].ClusterID] = &resolution.Clusters[i]
	}
	for i, sample := range samples {
		cluster := byCluster[sample.ClusterID]
		cluster.SampleCount++
		if matches[i] == nil {
			continue
		}
		cluster.Votes = append(cluster.Votes, Vote{
			ClusterID:  sample.ClusterID,
			Seq:        sample.Seq,
			Identity:   matches[i].Identity,
			Similarity: matches[i].Similarity,
			StartMs:    sample.Turn.StartMs,
			EndMs:      sample.Turn.EndMs,
		})
	}

	var unresolved []string
	for i := range resolution.Clusters {
		cluster := &resolution.Clusters[i]
		labels := make([]string, len(cluster.Votes))
		for j, vote := range cluster.Votes {
			labels[j] = vote.Identity
		}
		winner, count, ok := Tally(labels)
		if !ok {
			unresolved = append(unresolved, cluster.ClusterID)
			logging.WarnWithContext(logger, "cluster received no identity votes", "identity_unresolved",
				logging.String("cluster", cluster.ClusterID),
				logging.Int("samples", cluster.SampleCount),
				logging.String(logging.FieldErrorHint, "enroll a voiceprint for this speaker or lower identity.min_segment_seconds"),
				logging.String(logging.FieldImpact, "run aborted before outputs were written"),
			)
			continue
		}
		cluster.Identity = winner
		cluster.VoteCount = count
		resolution.Mapping[cluster.ClusterID] = winner
		logger.Info("cluster identity resolved", logging.Args(append(
			logging.DecisionAttrs("identity_vote", winner, fmt.Sprintf("%d of %d votes", count, len(cluster.Votes))),
			logging.String("cluster", cluster.ClusterID),
		)...)...)
	}
	if len(unresolved) > 0 {
		return resolution, services.Wrap(services.ErrUnresolvableIdentity, "identity", "resolve",
			fmt.Sprintf("no votes for clusters %v", unresolved), nil)
	}
	return resolution, nil
}

// SelectSamples picks, in timeline order, the turns that will be classified:
// turns inside the audio window and at least MinSegment long, at most
// NSegments per cluster.
func SelectSamples(turns []timeline.SpeakerTurn, opts Options) []Sample {
	minMs := opts.MinSegment.Milliseconds()
	maxAudioMs := opts.MaxAudio.Milliseconds()
	counts := make(map[string]int)
	var samples []Sample
	for _, turn := range turns {
		if maxAudioMs > 0 && turn.EndMs > maxAudioMs {
			continue
		}
		if turn.DurationMs() < minMs {
			continue
		}
		if counts[turn.SpeakerID] >= opts.NSegments {
			continue
		}
		counts[turn.SpeakerID]++
		samples = append(samples, Sample{Seq: len(samples), ClusterID: turn.SpeakerID, Turn: turn})
	}
	return samples
}

// classifySamples runs slice, embed and classify for every sample on a bounded
// worker pool. The result slice is indexed like samples; nil marks an
// abstention.
func (r *Resolver) classifySamples(parent context.Context, slicer Slicer, samples []Sample) ([]*Match, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	results := make([]*Match, len(samples))
	jobs := make(chan int)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	workers := min(r.opts.Workers, len(samples))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				match, err := r.classifySample(ctx, slicer, samples[idx])
				if err != nil {
					fail(err)
					continue
				}
				results[idx] = match
			}
		}()
	}

	for idx := range samples {
		select {
		case jobs <- idx:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := parent.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Resolver) classifySample(ctx context.Context, slicer Slicer, sample Sample) (*Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clip, err := slicer.Slice(ctx, sample.Seq, sample.Turn.StartMs, sample.Turn.EndMs)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "identity", "slice audio", fmt.Sprintf("sample %d", sample.Seq), err)
	}
	vector, err := r.embedder.Embed(ctx, clip)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "identity", "embed", fmt.Sprintf("sample %d", sample.Seq), err)
	}
	match, ok := r.classifier.Classify(vector)
	if !ok {
		r.logger.Debug("sample abstained",
			logging.String("cluster", sample.ClusterID),
			logging.Int("seq", sample.Seq),
			logging.Span("segment", sample.Turn.StartMs, sample.Turn.EndMs),
		)
		return nil, nil
	}
	r.logger.Debug("sample classified",
		logging.String("cluster", sample.ClusterID),
		logging.Int("seq", sample.Seq),
		logging.Span("segment", sample.Turn.StartMs, sample.Turn.EndMs),
		logging.String("identity", match.Identity),
		logging.Float64("similarity", match.Similarity),
	)
	return &match, nil
}

// Tally picks the most frequent label; ties go to the label that appeared
// first. ok is false for an empty input.
func Tally(labels []string) (winner string, count int, ok bool) {
	counts := make(map[string]int, len(labels))
	for _, label := range labels {
		counts[label]++
	}
	for _, label := range labels {
		if c := counts[label]; c > count {
			winner, count = label, c
		}
	}
	return winner, count, count > 0
}

// Rewrite returns a copy of turns with speaker ids replaced through mapping.
// Ids missing from mapping are kept as-is.
func Rewrite(turns []timeline.SpeakerTurn, mapping map[string]string) []timeline.SpeakerTurn {
	out := make([]timeline.SpeakerTurn, len(turns))
	for i, turn := range turns {
		if identity, ok := mapping[turn.SpeakerID]; ok {
			turn.SpeakerID = identity
		}
		out[i] = turn
	}
	return out
}
