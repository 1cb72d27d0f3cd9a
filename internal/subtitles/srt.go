package subtitles

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Cue is one parsed SRT block.
type Cue struct {
	Index   int
	StartMs int64
	EndMs   int64
	Text    string
}

// ParseSRT parses SRT content into cues. A leading byte-order mark and CRLF
// line endings are accepted. Blocks that do not parse are reported as errors
// rather than skipped.
func ParseSRT(data []byte) ([]Cue, error) {
	content := strings.TrimPrefix(string(data), byteOrderMark)
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil
	}

	var cues []Cue
	for n, block := range strings.Split(content, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if len(lines) < 3 {
			return nil, fmt.Errorf("block %d: expected index, timing and text lines", n+1)
		}
		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return nil, fmt.Errorf("block %d: invalid index %q", n+1, lines[0])
		}
		parts := strings.Split(lines[1], "-->")
		if len(parts) != 2 {
			return nil, fmt.Errorf("block %d: invalid timing line %q", n+1, lines[1])
		}
		start, err := parseSRTTimestamp(parts[0])
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", n+1, err)
		}
		end, err := parseSRTTimestamp(parts[1])
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", n+1, err)
		}
		cues = append(cues, Cue{
			Index:   index,
			StartMs: start,
			EndMs:   end,
			Text:    strings.Join(lines[2:], "\n"),
		})
	}
	return cues, nil
}

// SRTReport summarizes an SRT validation pass.
type SRTReport struct {
	CueCount int
	FirstMs  int64
	LastMs   int64
	Issues   []string
}

// ValidateSRT checks cue numbering and timing in rendered SRT content.
// Returned issues are empty when validation passed.
func ValidateSRT(data []byte) SRTReport {
	var report SRTReport
	if len(bytes.TrimSpace(bytes.TrimPrefix(data, []byte(byteOrderMark)))) == 0 {
		report.Issues = append(report.Issues, "empty_subtitle_file")
		return report
	}
	cues, err := ParseSRT(data)
	if err != nil {
		report.Issues = append(report.Issues, fmt.Sprintf("parse_error: %v", err))
		return report
	}
	report.CueCount = len(cues)
	if len(cues) == 0 {
		report.Issues = append(report.Issues, "empty_subtitle_file")
		return report
	}
	report.FirstMs = cues[0].StartMs
	for i, cue := range cues {
		if cue.Index != i+1 {
			report.Issues = append(report.Issues, fmt.Sprintf("cue_index_gap: expected %d got %d", i+1, cue.Index))
		}
		if cue.EndMs < cue.StartMs {
			report.Issues = append(report.Issues, fmt.Sprintf("cue_%d_ends_before_start", cue.Index))
		}
		if i > 0 && cue.StartMs < cues[i-1].StartMs {
			report.Issues = append(report.Issues, fmt.Sprintf("cue_%d_out_of_order", cue.Index))
		}
		if cue.EndMs > report.LastMs {
			report.LastMs = cue.EndMs
		}
		if strings.TrimSpace(cue.Text) == "" {
			report.Issues = append(report.Issues, fmt.Sprintf("cue_%d_empty_text", cue.Index))
		}
	}
	return report
}
