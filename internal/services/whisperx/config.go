package whisperx

import "strconv"

// Config captures runtime settings for WhisperX operations.
type Config struct {
	// Model is the WhisperX model to use (e.g., "medium.en").
	Model       string
	CUDAEnabled bool
	// VADMethod is "silero" or "pyannote".
	VADMethod string
	// HFToken unlocks the gated pyannote VAD weights.
	HFToken string
	// Decoding overrides the beam search and VAD tuning. Zero uses DefaultDecoding.
	Decoding Decoding
}

// Decoding holds the transcription knobs passed straight through to WhisperX.
// Word timestamps drive speaker mapping, so the defaults favour accuracy over speed.
type Decoding struct {
	BatchSize   int
	ChunkSize   int
	BeamSize    int
	BestOf      int
	Temperature float64
	Patience    float64
	VADOnset    float64
	VADOffset   float64
}

// DefaultDecoding returns the tuning used when Config.Decoding is unset.
func DefaultDecoding() Decoding {
	return Decoding{
		BatchSize:   4,
		ChunkSize:   15,
		BeamSize:    10,
		BestOf:      10,
		Temperature: 0,
		Patience:    1,
		VADOnset:    0.08,
		VADOffset:   0.07,
	}
}

func (d Decoding) args() []string {
	ff := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []string{
		"--batch_size", strconv.Itoa(d.BatchSize),
		"--chunk_size", strconv.Itoa(d.ChunkSize),
		"--vad_onset", ff(d.VADOnset),
		"--vad_offset", ff(d.VADOffset),
		"--beam_size", strconv.Itoa(d.BeamSize),
		"--best_of", strconv.Itoa(d.BestOf),
		"--temperature", ff(d.Temperature),
		"--patience", ff(d.Patience),
	}
}

const (
	DefaultModel = "medium.en"

	CUDAIndexURL = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL = "https://pypi.org/simple"

	CPUDevice      = "cpu"
	CUDADevice     = "cuda"
	CPUComputeType = "float32"

	VADMethodPyannote = "pyannote"
	VADMethodSilero   = "silero"
)

// Command names for external tools.
const (
	UVXCommand    = "uvx"
	FFmpegCommand = "ffmpeg"
)
