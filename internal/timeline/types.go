package timeline

import (
	"fmt"
	"strings"
)

// Word is one recognized token with its time span in milliseconds.
type Word struct {
	Text    string
	StartMs int64
	EndMs   int64
}

// SpeakerTurn is a contiguous span attributed to one diarization cluster or,
// after identity resolution, to one named speaker.
type SpeakerTurn struct {
	StartMs   int64
	EndMs     int64
	SpeakerID string
}

// DurationMs reports the turn length.
func (t SpeakerTurn) DurationMs() int64 {
	return t.EndMs - t.StartMs
}

// WordSpeakerRecord is a Word tagged with the speaker it was attributed to.
type WordSpeakerRecord struct {
	Word      string
	StartMs   int64
	EndMs     int64
	SpeakerID string
}

// Sentence is a maximal run of consecutive records sharing one speaker.
type Sentence struct {
	SpeakerLabel string
	StartMs      int64
	EndMs        int64
	Text         string
}

// AnchorPolicy selects which point of a word locates it in the turn timeline.
type AnchorPolicy string

const (
	AnchorStart AnchorPolicy = "start"
	AnchorEnd   AnchorPolicy = "end"
	AnchorMid   AnchorPolicy = "mid"
)

// ParseAnchorPolicy converts a config value into an AnchorPolicy. Empty selects AnchorStart.
func ParseAnchorPolicy(value string) (AnchorPolicy, error) {
	switch AnchorPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", AnchorStart:
		return AnchorStart, nil
	case AnchorEnd:
		return AnchorEnd, nil
	case AnchorMid:
		return AnchorMid, nil
	default:
		return "", fmt.Errorf("unknown word anchor %q", value)
	}
}

// SpeakerIDs lists the distinct speaker ids of turns in order of first appearance.
func SpeakerIDs(turns []SpeakerTurn) []string {
	seen := make(map[string]struct{}, 4)
	ids := make([]string, 0, 4)
	for _, turn := range turns {
		if _, ok := seen[turn.SpeakerID]; ok {
			continue
		}
		seen[turn.SpeakerID] = struct{}{}
		ids = append(ids, turn.SpeakerID)
	}
	return ids
}

// WordsOf extracts the word texts of records, in order.
func WordsOf(records []WordSpeakerRecord) []string {
	out := make([]string, len(records))
	for i, record := range records {
		out[i] = record.Word
	}
	return out
}

func secondsToMs(seconds float64) int64 {
	if seconds >= 0 {
		return int64(seconds*1000 + 0.5)
	}
	return -int64(-seconds*1000 + 0.5)
}
