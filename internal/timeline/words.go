package timeline

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"speakerline/internal/services"
)

type wordPayload struct {
	Text  *string  `json:"text"`
	Word  *string  `json:"word"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

type segmentPayload struct {
	Words []wordPayload `json:"words"`
}

type documentPayload struct {
	WordSegments []wordPayload    `json:"word_segments"`
	Segments     []segmentPayload `json:"segments"`
}

// LoadWords decodes aligner output into words. It accepts a bare JSON array of
// {text|word, start, end} objects in seconds, or a WhisperX document carrying
// word_segments or segments[].words. A word without numeric start and end
// fails the load.
func LoadWords(r io.Reader) ([]Word, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, services.Wrap(services.ErrMalformedInput, "timeline", "read words", "", err)
	}
	payloads, err := decodeWordPayloads(data)
	if err != nil {
		return nil, services.Wrap(services.ErrMalformedInput, "timeline", "decode words", "", err)
	}

	words := make([]Word, 0, len(payloads))
	for i, payload := range payloads {
		word, err := payload.toWord()
		if err != nil {
			return nil, services.Wrap(services.ErrMalformedInput, "timeline", "decode words", fmt.Sprintf("word %d", i), err)
		}
		words = append(words, word)
	}
	return words, nil
}

func decodeWordPayloads(data []byte) ([]wordPayload, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(string(data), "\ufeff"))
	if trimmed == "" {
		return nil, fmt.Errorf("empty document")
	}
	if strings.HasPrefix(trimmed, "[") {
		var words []wordPayload
		if err := json.Unmarshal([]byte(trimmed), &words); err != nil {
			return nil, err
		}
		return words, nil
	}
	var doc documentPayload
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, err
	}
	if doc.WordSegments != nil {
		return doc.WordSegments, nil
	}
	if doc.Segments == nil {
		return nil, fmt.Errorf("document has neither word_segments nor segments")
	}
	var words []wordPayload
	for _, segment := range doc.Segments {
		words = append(words, segment.Words...)
	}
	return words, nil
}

func (p wordPayload) toWord() (Word, error) {
	var text string
	switch {
	case p.Text != nil:
		text = *p.Text
	case p.Word != nil:
		text = *p.Word
	}
	if p.Start == nil || p.End == nil {
		return Word{}, fmt.Errorf("word %q is missing start or end", text)
	}
	if *p.Start < 0 || *p.End < 0 {
		return Word{}, fmt.Errorf("word %q has negative timestamps", text)
	}
	return Word{
		Text:    norm.NFC.String(strings.TrimSpace(text)),
		StartMs: secondsToMs(*p.Start),
		EndMs:   secondsToMs(*p.End),
	}, nil
}
