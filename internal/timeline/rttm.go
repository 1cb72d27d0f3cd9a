package timeline

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"speakerline/internal/services"
)

const (
	rttmStartField    = 3
	rttmDurationField = 4
	rttmSpeakerField  = 7
)

// ParseRTTM reads speaker turns from an RTTM document. Blank lines are skipped;
// any other line that does not carry a numeric start and duration and a
// speaker id fails the whole parse with its 1-based line number.
func ParseRTTM(r io.Reader) ([]SpeakerTurn, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var turns []SpeakerTurn
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		turn, err := ParseRTTMLine(line)
		if err != nil {
			return nil, services.Wrap(services.ErrMalformedInput, "timeline", "parse rttm", fmt.Sprintf("line %d", lineNo), err)
		}
		turns = append(turns, turn)
	}
	if err := scanner.Err(); err != nil {
		return nil, services.Wrap(services.ErrMalformedInput, "timeline", "read rttm", "", err)
	}
	return turns, nil
}

// ParseRTTMLine parses a single RTTM record. Fields are separated by runs of
// whitespace, so records padded with repeated spaces parse identically.
func ParseRTTMLine(line string) (SpeakerTurn, error) {
	fields := strings.Fields(line)
	if len(fields) <= rttmSpeakerField {
		return SpeakerTurn{}, fmt.Errorf("expected at least %d fields, got %d", rttmSpeakerField+1, len(fields))
	}
	start, err := strconv.ParseFloat(fields[rttmStartField], 64)
	if err != nil {
		return SpeakerTurn{}, fmt.Errorf("start %q is not numeric", fields[rttmStartField])
	}
	duration, err := strconv.ParseFloat(fields[rttmDurationField], 64)
	if err != nil {
		return SpeakerTurn{}, fmt.Errorf("duration %q is not numeric", fields[rttmDurationField])
	}
	if start < 0 || duration < 0 {
		return SpeakerTurn{}, fmt.Errorf("negative start or duration (%s, %s)", fields[rttmStartField], fields[rttmDurationField])
	}
	startMs := secondsToMs(start)
	return SpeakerTurn{
		StartMs:   startMs,
		EndMs:     startMs + secondsToMs(duration),
		SpeakerID: fields[rttmSpeakerField],
	}, nil
}

// WriteRTTM serializes turns as RTTM SPEAKER records for the given file id.
func WriteRTTM(w io.Writer, fileID string, turns []SpeakerTurn) error {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" || strings.ContainsAny(fileID, " \t") {
		fileID = strings.Join(strings.Fields(fileID), "_")
		if fileID == "" {
			fileID = "audio"
		}
	}
	bw := bufio.NewWriter(w)
	for _, turn := range turns {
		if _, err := fmt.Fprintf(bw, "SPEAKER %s 1 %.3f %.3f <NA> <NA> %s <NA> <NA>\n",
			fileID,
			float64(turn.StartMs)/1000,
			float64(turn.DurationMs())/1000,
			turn.SpeakerID,
		); err != nil {
			return err
		}
	}
	return bw.Flush()
}
