package wavclip

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Source is a decoded WAV file held in memory.
type Source struct {
	path     string
	buf      *audio.IntBuffer
	bitDepth int
}

// Open decodes the WAV file at path.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid wav file", path)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read pcm: %w", err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 || buf.Format.NumChannels <= 0 {
		return nil, fmt.Errorf("%s has no usable audio format", path)
	}
	bitDepth := int(decoder.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	return &Source{path: path, buf: buf, bitDepth: bitDepth}, nil
}

// SampleRate reports the source sample rate in Hz.
func (s *Source) SampleRate() int {
	return s.buf.Format.SampleRate
}

// DurationMs reports the source length.
func (s *Source) DurationMs() int64 {
	frames := int64(len(s.buf.Data) / s.buf.Format.NumChannels)
	return frames * 1000 / int64(s.buf.Format.SampleRate)
}

// WriteClip encodes the [startMs, endMs) span into a new WAV file at dst.
// The span is clamped to the source length; an empty span is an error.
func (s *Source) WriteClip(dst string, startMs, endMs int64) error {
	channels := s.buf.Format.NumChannels
	rate := int64(s.buf.Format.SampleRate)
	totalFrames := int64(len(s.buf.Data) / channels)

	startFrame := clamp(startMs*rate/1000, 0, totalFrames)
	endFrame := clamp(endMs*rate/1000, 0, totalFrames)
	if endFrame <= startFrame {
		return fmt.Errorf("clip %d-%dms is outside %s", startMs, endMs, filepath.Base(s.path))
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create clip: %w", err)
	}
	encoder := wav.NewEncoder(out, s.buf.Format.SampleRate, s.bitDepth, channels, 1)
	clip := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: s.buf.Format.SampleRate},
		Data:           s.buf.Data[startFrame*int64(channels) : endFrame*int64(channels)],
		SourceBitDepth: s.bitDepth,
	}
	if err := encoder.Write(clip); err != nil {
		_ = out.Close()
		return fmt.Errorf("encode clip: %w", err)
	}
	if err := encoder.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("finalize clip: %w", err)
	}
	return out.Close()
}

// Slicer writes numbered clips of one source into a directory.
type Slicer struct {
	source *Source
	dir    string
}

// NewSlicer prepares a Slicer writing into dir.
func NewSlicer(source *Source, dir string) (*Slicer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create clip directory: %w", err)
	}
	return &Slicer{source: source, dir: dir}, nil
}

// Slice writes the span as clip-<seq>.wav and returns its path.
func (s *Slicer) Slice(ctx context.Context, seq int, startMs, endMs int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, fmt.Sprintf("clip-%04d.wav", seq))
	if err := s.source.WriteClip(path, startMs, endMs); err != nil {
		return "", err
	}
	return path, nil
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
