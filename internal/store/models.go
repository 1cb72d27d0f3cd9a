package store

import "time"

// RunStatus represents the lifecycle of a pipeline run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// InterruptedReason is the error message set on runs abandoned by a crash or kill.
const InterruptedReason = "interrupted before completion"

// Run is one pipeline invocation over an audio file.
type Run struct {
	ID             string
	AudioPath      string
	Status         RunStatus
	Stage          string
	ErrorMessage   string
	TranscriptPath string
	SubtitlePath   string
	SentenceCount  int
	SpeakerCount   int
	CreatedAt      time.Time
	UpdatedAt      time.Time
	FinishedAt     time.Time
}

// RunResult carries the outputs recorded when a run completes.
type RunResult struct {
	TranscriptPath string
	SubtitlePath   string
	SentenceCount  int
	SpeakerCount   int
}

// Vote is one classified sample cast for a diarization cluster.
type Vote struct {
	ClusterID  string
	Seq        int
	Identity   string
	Similarity float64
	StartMs    int64
	EndMs      int64
}

// Identity is the resolved name for a diarization cluster.
type Identity struct {
	ClusterID   string
	Identity    string
	VoteCount   int
	SampleCount int
}

// Voiceprint is an enrolled reference embedding for a named speaker.
type Voiceprint struct {
	ID         int64
	Identity   string
	SourcePath string
	Vector     []float32
	CreatedAt  time.Time
}
