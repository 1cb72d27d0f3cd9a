package whisperx

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// NormalizedSampleRate is the rate every model and the WAV clipper expect.
const NormalizedSampleRate = 16000

// NormalizeAudio writes the first audio stream of source to dest as mono
// 16-bit PCM at NormalizedSampleRate.
func (s *Service) NormalizeAudio(ctx context.Context, source, dest string) error {
	args := normalizeArgs(source, dest)
	if s.commandRunner != nil {
		return s.commandRunner(ctx, s.ffmpegBinary, args...)
	}
	output, err := exec.CommandContext(ctx, s.ffmpegBinary, args...).CombinedOutput() //nolint:gosec
	if err != nil {
		return fmt.Errorf("ffmpeg normalize %s: %w: %s", source, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func normalizeArgs(source, dest string) []string {
	// -vn -sn -dn drop video, subtitle and data streams from container inputs.
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", source,
		"-map", "0:a:0", "-vn", "-sn", "-dn",
		"-ac", "1",
		"-ar", strconv.Itoa(NormalizedSampleRate),
		"-c:a", "pcm_s16le",
		dest,
	}
}
