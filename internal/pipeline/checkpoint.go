package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"speakerline/internal/fileutil"
	"speakerline/internal/staging"
	"speakerline/internal/textutil"
)

// Checkpoint file names inside a run work directory.
const (
	AudioFile       = "audio.wav"
	WordsFile       = "words.json"
	DiarizationFile = "diarization.rttm"
	IdentifiedFile  = "diarization.identified.rttm"
	IdentitiesFile  = "identities.json"
	LabelsFile      = "labels.json"
	lockFile        = staging.LockFile
)

// WorkDirFor returns the work directory used for audioPath.
func WorkDirFor(root, audioPath string) string {
	return filepath.Join(root, Stem(audioPath))
}

// Stem is the audio file name without directory or extension. It names the
// work directory, the RTTM file id and the exported files.
func Stem(audioPath string) string {
	base := filepath.Base(audioPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." {
		return "audio"
	}
	return stem
}

// RecordingID is the RTTM file id for audioPath. RTTM fields are whitespace
// separated, so the id never contains spaces.
func RecordingID(audioPath string) string {
	return textutil.SanitizeToken(Stem(audioPath))
}

// reusable reports whether a checkpoint can stand in for rerunning its stage.
func reusable(path string, fresh bool) bool {
	return !fresh && fileutil.NonEmptyFile(path)
}

// identityCheckpoint is the persisted cluster-to-identity mapping.
type identityCheckpoint struct {
	RunID   string            `json:"run_id"`
	Mapping map[string]string `json:"mapping"`
}

func writeIdentityCheckpoint(path, runID string, mapping map[string]string) error {
	data, err := json.MarshalIndent(identityCheckpoint{RunID: runID, Mapping: mapping}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode identities: %w", err)
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

func readIdentityCheckpoint(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var payload identityCheckpoint
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return payload.Mapping, nil
}

// documentLanguage returns the language WhisperX recorded in its JSON output.
func documentLanguage(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var payload struct {
		Language string `json:"language"`
	}
	if json.Unmarshal(data, &payload) != nil {
		return ""
	}
	return strings.TrimSpace(payload.Language)
}

// writeLabels saves punctuation labels in the format ReadLabels and
// `export --labels` accept.
func writeLabels(path string, labels []string) error {
	data, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("encode labels: %w", err)
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

// ReadLabels loads punctuation labels saved as a JSON string array.
func ReadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return labels, nil
}
