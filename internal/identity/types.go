package identity

import (
	"context"
	"time"

	"speakerline/internal/timeline"
)

// Slicer cuts one span of the source audio into a clip file.
type Slicer interface {
	Slice(ctx context.Context, seq int, startMs, endMs int64) (string, error)
}

// SlicerFactory opens a Slicer over an audio file. The returned cleanup
// releases the clips once resolution finishes.
type SlicerFactory interface {
	Open(audioPath string) (Slicer, func(), error)
}

// Embedder turns an audio clip into a speaker embedding.
type Embedder interface {
	Embed(ctx context.Context, clipPath string) ([]float32, error)
}

// Match is a classifier answer for one embedding.
type Match struct {
	Identity   string
	Similarity float64
}

// Classifier maps an embedding to an enrolled identity. ok is false when no
// identity is close enough to count.
type Classifier interface {
	Classify(vector []float32) (match Match, ok bool)
}

// Options bounds sampling.
type Options struct {
	// NSegments caps accepted samples per cluster.
	NSegments int
	// MinSegment discards shorter turns.
	MinSegment time.Duration
	// MaxAudio limits sampling to turns ending inside this window; 0 means no limit.
	MaxAudio time.Duration
	// Workers bounds concurrent slice/embed/classify calls.
	Workers int
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		NSegments:  10,
		MinSegment: time.Second,
		MaxAudio:   5 * time.Minute,
		Workers:    1,
	}
}

// Sample is one turn selected for classification.
type Sample struct {
	Seq       int
	ClusterID string
	Turn      timeline.SpeakerTurn
}

// Vote records one confident classification of a sample.
type Vote struct {
	ClusterID  string
	Seq        int
	Identity   string
	Similarity float64
	StartMs    int64
	EndMs      int64
}

// ClusterResolution explains how one cluster was labeled.
type ClusterResolution struct {
	ClusterID   string
	Identity    string
	VoteCount   int
	SampleCount int
	Votes       []Vote
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Mapping  map[string]string
	Clusters []ClusterResolution
}
