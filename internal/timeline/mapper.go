package timeline

import "speakerline/internal/services"

// MapWords attributes every word to a speaker turn with a single forward pass
// over both timelines. The turn cursor advances while the word's anchor lies
// past the current turn's end; once on the final turn every remaining word is
// attributed to it. Both inputs must be ascending; out-of-order input skews
// the assignment rather than failing.
func MapWords(words []Word, turns []SpeakerTurn, anchor AnchorPolicy) ([]WordSpeakerRecord, error) {
	if len(turns) == 0 {
		return nil, services.Wrap(services.ErrEmptyInput, "timeline", "map words", "no speaker turns", nil)
	}
	last := len(turns) - 1
	idx := 0
	records := make([]WordSpeakerRecord, 0, len(words))
	for _, word := range words {
		position := anchorPosition(word, anchor)
		for idx < last && position > float64(turns[idx].EndMs) {
			idx++
		}
		records = append(records, WordSpeakerRecord{
			Word:      word.Text,
			StartMs:   word.StartMs,
			EndMs:     word.EndMs,
			SpeakerID: turns[idx].SpeakerID,
		})
	}
	return records, nil
}

func anchorPosition(word Word, anchor AnchorPolicy) float64 {
	switch anchor {
	case AnchorEnd:
		return float64(word.EndMs)
	case AnchorMid:
		return float64(word.StartMs+word.EndMs) / 2
	default:
		return float64(word.StartMs)
	}
}
