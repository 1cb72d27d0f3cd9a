package pipeline

import (
	"speakerline/internal/config"
	"speakerline/internal/timeline"
)

// FuseOptions controls how words and turns become sentences.
type FuseOptions struct {
	Anchor   timeline.AnchorPolicy
	MaxWords int
	// Labels holds one punctuation label per word. Nil skips restoration.
	Labels []string
	Label  func(speakerID string) string
}

// FuseStats summarizes one fusion for logging.
type FuseStats struct {
	Words     int
	Relabeled int
	Sentences int
}

// FuseOptionsFromConfig reads alignment settings from cfg.
func FuseOptionsFromConfig(cfg *config.Config) (FuseOptions, error) {
	anchor, err := timeline.ParseAnchorPolicy(cfg.Alignment.WordAnchor)
	if err != nil {
		return FuseOptions{}, err
	}
	return FuseOptions{
		Anchor:   anchor,
		MaxWords: cfg.Alignment.MaxWordsInSentence,
		Label:    cfg.SpeakerLabel,
	}, nil
}

// Fuse maps words onto turns, restores punctuation, realigns speaker changes
// to sentence boundaries and groups the result into sentences.
func Fuse(words []timeline.Word, turns []timeline.SpeakerTurn, opts FuseOptions) ([]timeline.Sentence, FuseStats, error) {
	var stats FuseStats
	records, err := timeline.MapWords(words, turns, opts.Anchor)
	if err != nil {
		return nil, stats, err
	}
	stats.Words = len(records)
	if opts.Labels != nil {
		records, err = timeline.ApplyPunctuation(records, opts.Labels)
		if err != nil {
			return nil, stats, err
		}
	}
	realigned := timeline.Realign(records, opts.MaxWords)
	for i := range realigned {
		if realigned[i].SpeakerID != records[i].SpeakerID {
			stats.Relabeled++
		}
	}
	sentences, err := timeline.Aggregate(realigned, opts.Label)
	if err != nil {
		return nil, stats, err
	}
	stats.Sentences = len(sentences)
	return sentences, stats, nil
}
