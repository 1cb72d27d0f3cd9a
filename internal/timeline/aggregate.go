package timeline

import (
	"strings"

	"speakerline/internal/services"
)

// Aggregate folds consecutive records sharing a speaker into sentences. The
// label function renders a speaker id for display; nil keeps the raw id.
func Aggregate(records []WordSpeakerRecord, label func(string) string) ([]Sentence, error) {
	if len(records) == 0 {
		return nil, services.Wrap(services.ErrEmptyInput, "timeline", "aggregate", "no word records", nil)
	}
	if label == nil {
		label = func(id string) string { return id }
	}

	var sentences []Sentence
	var words []string
	current := Sentence{}
	currentSpeaker := ""
	flush := func() {
		current.Text = strings.Join(words, " ")
		sentences = append(sentences, current)
	}
	for i, record := range records {
		if i == 0 || record.SpeakerID != currentSpeaker {
			if i > 0 {
				flush()
			}
			currentSpeaker = record.SpeakerID
			current = Sentence{
				SpeakerLabel: label(record.SpeakerID),
				StartMs:      record.StartMs,
				EndMs:        record.EndMs,
			}
			words = words[:0]
		}
		if record.EndMs > current.EndMs {
			current.EndMs = record.EndMs
		}
		words = append(words, record.Word)
	}
	flush()
	return sentences, nil
}
