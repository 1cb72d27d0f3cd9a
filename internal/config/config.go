package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	OutputDir string `toml:"output_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
}

// Transcription contains configuration for WhisperX transcription and alignment.
type Transcription struct {
	WhisperXModel string `toml:"whisperx_model"`
	CUDAEnabled   bool   `toml:"cuda_enabled"`
	VADMethod     string `toml:"vad_method"`
	HFToken       string `toml:"hf_token"`
	// Language forces the transcription language (ISO 639-1). Empty lets
	// WhisperX detect it.
	Language string `toml:"language"`
	// BatchSize and BeamSize override the WhisperX decoding defaults when positive.
	BatchSize int `toml:"batch_size"`
	BeamSize  int `toml:"beam_size"`
}

// Diarization contains configuration for speaker-turn detection.
type Diarization struct {
	// NumSpeakers pins the speaker count; 0 lets the model infer it.
	NumSpeakers int `toml:"num_speakers"`
}

// Alignment contains configuration for fusing words with speaker turns.
type Alignment struct {
	// WordAnchor selects the point of a word used to locate it in the turn
	// timeline: "start", "end" or "mid".
	WordAnchor         string `toml:"word_anchor"`
	MaxWordsInSentence int    `toml:"max_words_in_sentence"`
	SpeakerLabelPrefix string `toml:"speaker_label_prefix"`
	PunctuationEnabled bool   `toml:"punctuation_enabled"`
}

// Identity contains configuration for cluster-to-identity resolution.
type Identity struct {
	Enabled bool `toml:"enabled"`
	// NSegments caps the number of sampled turns per cluster.
	NSegments int `toml:"n_segments"`
	// MinSegmentSeconds discards turns shorter than this as unreliable samples.
	MinSegmentSeconds float64 `toml:"min_segment_seconds"`
	// MaxAudioSeconds restricts sampling to turns inside the first N seconds
	// of audio. 0 samples the whole file.
	MaxAudioSeconds int `toml:"max_audio_seconds"`
	Workers         int `toml:"workers"`
	// MinSimilarity is the cosine similarity a voiceprint match must reach
	// before it counts as a vote.
	MinSimilarity float64 `toml:"min_similarity"`
}

// Export contains configuration for output files.
type Export struct {
	Transcript    bool `toml:"transcript"`
	Subtitles     bool `toml:"subtitles"`
	ByteOrderMark bool `toml:"byte_order_mark"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for speakerline.
//
// Configuration sections by subsystem:
//   - Paths: work, output, state and log directories
//   - Transcription: WhisperX model and device settings
//   - Diarization: speaker-turn detection settings
//   - Alignment: word anchoring, realignment and label formatting
//   - Identity: sampling and voting for cluster identity resolution
//   - Export: transcript and subtitle outputs
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Transcription Transcription `toml:"transcription"`
	Diarization   Diarization   `toml:"diarization"`
	Alignment     Alignment     `toml:"alignment"`
	Identity      Identity      `toml:"identity"`
	Export        Export        `toml:"export"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/speakerline/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("speakerline.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes into.
// OutputDir is optional; when empty, outputs land next to the source audio.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		if err := os.MkdirAll(c.Paths.OutputDir, 0o755); err != nil {
			return fmt.Errorf("create output directory %q: %w", c.Paths.OutputDir, err)
		}
	}
	return nil
}

// StorePath returns the sqlite database location.
func (c *Config) StorePath() string {
	return filepath.Join(c.Paths.StateDir, "speakerline.db")
}

// SpeakerLabel renders a resolved speaker id as it appears in exported text.
func (c *Config) SpeakerLabel(speakerID string) string {
	return c.Alignment.SpeakerLabelPrefix + speakerID
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
