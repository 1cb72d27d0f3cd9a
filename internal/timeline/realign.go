package timeline

// DefaultMaxWordsInSentence bounds how far Realign searches for sentence edges.
const DefaultMaxWordsInSentence = 50

// Realign moves speaker boundaries that fall inside a sentence. At every
// boundary not already on a sentence terminator it looks for the enclosing
// sentence within maxWordsInSentence words; when both edges are found and
// the sentence's most frequent speaker covers at least half of it, the whole
// sentence is relabeled to that speaker. Windows whose edges cannot be found
// are left untouched. The input slice is not modified.
func Realign(records []WordSpeakerRecord, maxWordsInSentence int) []WordSpeakerRecord {
	out := make([]WordSpeakerRecord, len(records))
	copy(out, records)
	if maxWordsInSentence <= 0 {
		maxWordsInSentence = DefaultMaxWordsInSentence
	}

	n := len(out)
	for k := 0; k < n; k++ {
		if k == n-1 || out[k].SpeakerID == out[k+1].SpeakerID || isSentenceEnd(out[k].Word) {
			continue
		}
		left := firstWordOfSentence(out, k, maxWordsInSentence)
		if left < 0 {
			continue
		}
		right := lastWordOfSentence(out, k, maxWordsInSentence-(k-left)-1)
		if right < 0 {
			continue
		}
		speaker, count := dominantSpeaker(out[left : right+1])
		if 2*count < right-left+1 {
			continue
		}
		for i := left; i <= right; i++ {
			out[i].SpeakerID = speaker
		}
		k = right
	}
	return out
}

// firstWordOfSentence walks left from k through same-speaker, non-terminal
// words for at most maxWords steps. It returns the sentence start, or -1 when
// the walk stopped before reaching the text start or a terminator.
func firstWordOfSentence(records []WordSpeakerRecord, k, maxWords int) int {
	left := k
	for left > 0 &&
		k-left < maxWords &&
		records[left-1].SpeakerID == records[left].SpeakerID &&
		!isSentenceEnd(records[left-1].Word) {
		left--
	}
	if left == 0 || isSentenceEnd(records[left-1].Word) {
		return left
	}
	return -1
}

// lastWordOfSentence walks right from k until a terminator, the last record,
// or maxWords steps. It returns the sentence end, or -1 when the budget ran out
// first.
func lastWordOfSentence(records []WordSpeakerRecord, k, maxWords int) int {
	last := len(records) - 1
	right := k
	for right < last && right-k < maxWords && !isSentenceEnd(records[right].Word) {
		right++
	}
	if right == last || isSentenceEnd(records[right].Word) {
		return right
	}
	return -1
}

// dominantSpeaker returns the most frequent speaker in window; ties go to the
// speaker encountered first.
func dominantSpeaker(window []WordSpeakerRecord) (string, int) {
	counts := make(map[string]int, 4)
	var best string
	bestCount := 0
	for _, record := range window {
		counts[record.SpeakerID]++
	}
	for _, record := range window {
		if c := counts[record.SpeakerID]; c > bestCount {
			best, bestCount = record.SpeakerID, c
		}
	}
	return best, bestCount
}

func isSentenceEnd(word string) bool {
	if word == "" {
		return false
	}
	switch word[len(word)-1] {
	case '.', '?', '!':
		return true
	}
	return false
}
