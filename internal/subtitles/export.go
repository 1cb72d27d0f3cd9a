package subtitles

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"speakerline/internal/fileutil"
	"speakerline/internal/services"
	"speakerline/internal/timeline"
)

const byteOrderMark = "\ufeff"

// WriteTranscript writes each sentence as a blank-line separated
// "<label>: <text>" paragraph.
func WriteTranscript(w io.Writer, sentences []timeline.Sentence) error {
	bw := bufio.NewWriter(w)
	for _, sentence := range sentences {
		if _, err := fmt.Fprintf(bw, "\n\n%s: %s", sentence.SpeakerLabel, sentence.Text); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteSRT writes one numbered cue per sentence. Cue text is trimmed and any
// "-->" inside it is replaced so it cannot be mistaken for a timing line.
func WriteSRT(w io.Writer, sentences []timeline.Sentence) error {
	bw := bufio.NewWriter(w)
	for i, sentence := range sentences {
		start, err := srtTimestamp(sentence.StartMs)
		if err != nil {
			return services.Wrap(services.ErrValidation, "export", "write srt", fmt.Sprintf("cue %d", i+1), err)
		}
		end, err := srtTimestamp(sentence.EndMs)
		if err != nil {
			return services.Wrap(services.ErrValidation, "export", "write srt", fmt.Sprintf("cue %d", i+1), err)
		}
		text := strings.ReplaceAll(strings.TrimSpace(sentence.Text), "-->", "->")
		if _, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s: %s\n\n", i+1, start, end, sentence.SpeakerLabel, text); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Options selects which outputs Export writes.
type Options struct {
	TranscriptPath string
	SubtitlePath   string
	ByteOrderMark  bool
}

// Outputs lists the files Export wrote.
type Outputs struct {
	TranscriptPath string
	SubtitlePath   string
	CueCount       int
}

// Export writes the transcript and SRT files named in opts. An empty path
// skips that output. Both bodies are rendered and the SRT validated before
// anything touches disk, and the files are then replaced as a set: on any
// error every previously written output is left as it was.
func Export(sentences []timeline.Sentence, opts Options) (Outputs, error) {
	var out Outputs
	if len(sentences) == 0 {
		return out, services.Wrap(services.ErrEmptyInput, "export", "export", "no sentences", nil)
	}
	var pending []fileutil.PendingFile
	if opts.TranscriptPath != "" {
		body, err := render(opts.ByteOrderMark, func(w io.Writer) error { return WriteTranscript(w, sentences) })
		if err != nil {
			return out, services.Wrap(services.ErrValidation, "export", "write transcript", opts.TranscriptPath, err)
		}
		pending = append(pending, fileutil.PendingFile{Path: opts.TranscriptPath, Data: body})
	}
	if opts.SubtitlePath != "" {
		body, err := render(opts.ByteOrderMark, func(w io.Writer) error { return WriteSRT(w, sentences) })
		if err != nil {
			return out, services.Wrap(services.ErrValidation, "export", "write subtitles", opts.SubtitlePath, err)
		}
		report := ValidateSRT(body)
		if len(report.Issues) > 0 {
			return out, services.Wrap(services.ErrValidation, "export", "validate subtitles", strings.Join(report.Issues, "; "), nil)
		}
		if report.CueCount != len(sentences) {
			return out, services.Wrap(services.ErrValidation, "export", "validate subtitles",
				fmt.Sprintf("rendered %d cues, parsed back %d", len(sentences), report.CueCount), nil)
		}
		pending = append(pending, fileutil.PendingFile{Path: opts.SubtitlePath, Data: body})
		out.CueCount = report.CueCount
	}
	if err := fileutil.WriteFilesAtomic(pending, 0o644); err != nil {
		return Outputs{}, services.Wrap(services.ErrValidation, "export", "commit outputs", "", err)
	}
	out.TranscriptPath = opts.TranscriptPath
	out.SubtitlePath = opts.SubtitlePath
	return out, nil
}

func render(bom bool, body func(io.Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	if bom {
		buf.WriteString(byteOrderMark)
	}
	if err := body(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
