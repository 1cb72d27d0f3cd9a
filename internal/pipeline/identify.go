package pipeline

import (
	"context"
	"errors"
	"io"
	"time"

	"speakerline/internal/fileutil"
	"speakerline/internal/identity"
	"speakerline/internal/logging"
	"speakerline/internal/services"
	"speakerline/internal/store"
	"speakerline/internal/timeline"
	"speakerline/internal/voiceprint"
)

func (p *Pipeline) loadGallery(ctx context.Context) (identity.Classifier, error) {
	gallery, err := voiceprint.Load(ctx, p.store, p.cfg.Identity.MinSimilarity)
	if err != nil {
		return nil, err
	}
	if len(gallery.Identities()) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, StageIdentify, "load voiceprints",
			"no voiceprints enrolled; run `speakerline voiceprint enroll` first", nil)
	}
	return gallery, nil
}

func (p *Pipeline) identityOptions() identity.Options {
	return identity.Options{
		NSegments:  p.cfg.Identity.NSegments,
		MinSegment: time.Duration(p.cfg.Identity.MinSegmentSeconds * float64(time.Second)),
		MaxAudio:   time.Duration(p.cfg.Identity.MaxAudioSeconds) * time.Second,
		Workers:    p.cfg.Identity.Workers,
	}
}

func (p *Pipeline) identify(ctx context.Context, s *runState) error {
	if !p.cfg.Identity.Enabled {
		s.logger.Debug("identity resolution disabled")
		return nil
	}

	mapping, err := p.cachedIdentities(s)
	if err != nil {
		return err
	}
	if mapping == nil {
		if mapping, err = p.resolveIdentities(ctx, s); err != nil {
			return err
		}
	}

	s.identities = mapping
	s.turns = identity.Rewrite(s.turns, mapping)
	identified := s.path(IdentifiedFile)
	if err := fileutil.WriteAtomic(identified, 0o644, func(w io.Writer) error {
		return timeline.WriteRTTM(w, RecordingID(s.req.AudioPath), s.turns)
	}); err != nil {
		return services.Wrap(services.ErrValidation, StageIdentify, "write rttm", identified, err)
	}
	return nil
}

// cachedIdentities returns the checkpointed mapping when it covers every
// cluster of the current timeline, or nil when resolution must run.
func (p *Pipeline) cachedIdentities(s *runState) (map[string]string, error) {
	path := s.path(IdentitiesFile)
	if !reusable(path, s.req.Fresh) {
		return nil, nil
	}
	mapping, err := readIdentityCheckpoint(path)
	if err != nil {
		return nil, services.Wrap(services.ErrMalformedInput, StageIdentify, "read checkpoint", path, err)
	}
	for _, cluster := range timeline.SpeakerIDs(s.turns) {
		if mapping[cluster] == "" {
			logging.WarnWithContext(s.logger, "identity checkpoint is stale", "identity_checkpoint_stale",
				logging.String("cluster", cluster),
				logging.String(logging.FieldImpact, "identities will be resolved again"),
			)
			return nil, nil
		}
	}
	s.logger.Info("reusing identity checkpoint", logging.String("path", path), logging.Int("clusters", len(mapping)))
	return mapping, nil
}

func (p *Pipeline) resolveIdentities(ctx context.Context, s *runState) (map[string]string, error) {
	classifier, err := p.classifier(ctx)
	if err != nil {
		return nil, err
	}
	resolver := identity.NewResolver(p.identityOptions(), clipSlicers{dir: s.path("clips")}, s.services.Embedder, classifier, s.logger)
	resolution, resolveErr := resolver.Resolve(ctx, s.turns, s.path(AudioFile))
	if resolveErr != nil && !errors.Is(resolveErr, services.ErrUnresolvableIdentity) {
		return nil, resolveErr
	}

	votes, identities := ledgerRows(resolution)
	if err := p.store.SaveResolution(ctx, s.id, votes, identities); err != nil {
		return nil, err
	}
	if resolveErr != nil {
		return nil, resolveErr
	}
	if err := writeIdentityCheckpoint(s.path(IdentitiesFile), s.id, resolution.Mapping); err != nil {
		return nil, services.Wrap(services.ErrValidation, StageIdentify, "write checkpoint", "", err)
	}
	return resolution.Mapping, nil
}

func ledgerRows(resolution identity.Resolution) ([]store.Vote, []store.Identity) {
	var votes []store.Vote
	identities := make([]store.Identity, 0, len(resolution.Clusters))
	for _, cluster := range resolution.Clusters {
		for _, vote := range cluster.Votes {
			votes = append(votes, store.Vote{
				ClusterID:  vote.ClusterID,
				Seq:        vote.Seq,
				Identity:   vote.Identity,
				Similarity: vote.Similarity,
				StartMs:    vote.StartMs,
				EndMs:      vote.EndMs,
			})
		}
		identities = append(identities, store.Identity{
			ClusterID:   cluster.ClusterID,
			Identity:    cluster.Identity,
			VoteCount:   cluster.VoteCount,
			SampleCount: cluster.SampleCount,
		})
	}
	return votes, identities
}
