package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"speakerline/internal/config"
	"speakerline/internal/deps"
	"speakerline/internal/services/whisperx"
	"speakerline/internal/store"
	"speakerline/internal/voiceprint"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckHFToken verifies a Hugging Face token is configured. Diarization and
// speaker embeddings download gated pyannote models and cannot run without it.
func CheckHFToken(cfg *config.Config) Result {
	const name = "Hugging Face token"
	if strings.TrimSpace(cfg.Transcription.HFToken) == "" {
		return Result{Name: name, Detail: "missing (set transcription.hf_token or HF_TOKEN)"}
	}
	return Result{Name: name, Passed: true, Detail: "configured"}
}

// CheckVoiceprints verifies at least one identity is enrolled when identity
// resolution is enabled.
func CheckVoiceprints(ctx context.Context, cfg *config.Config, st *store.Store) Result {
	const name = "Voiceprints"
	if !cfg.Identity.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	gallery, err := voiceprint.Load(ctx, st, cfg.Identity.MinSimilarity)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("load failed (%v)", err)}
	}
	identities := gallery.Identities()
	if len(identities) == 0 {
		return Result{Name: name, Detail: "no identities enrolled"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d identities (%s)", len(identities), strings.Join(identities, ", "))}
}

// CheckSystemDeps evaluates the external binaries the pipeline shells out to.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     whisperx.FFmpegCommand,
			Description: "Required for audio normalization",
			VersionArgs: []string{"-version"},
		},
		{
			Name:        "uvx",
			Command:     whisperx.UVXCommand,
			Description: "Required for WhisperX, diarization and punctuation models",
			VersionArgs: []string{"--version"},
		},
	}
	if cfg != nil && cfg.Transcription.CUDAEnabled {
		requirements = append(requirements, deps.Requirement{
			Name:        "nvidia-smi",
			Command:     "nvidia-smi",
			Description: "Confirms a CUDA driver is installed",
			Optional:    true,
		})
	}
	return deps.CheckBinaries(ctx, requirements)
}
