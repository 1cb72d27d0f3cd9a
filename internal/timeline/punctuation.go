package timeline

import (
	"fmt"
	"regexp"
	"strings"

	"speakerline/internal/services"
)

const (
	terminatorLabels = ".?!"
	modelPunctuation = ".,;:!?"
)

var acronymPattern = regexp.MustCompile(`^(?:[a-zA-Z]\.){2,}$`)

// ApplyPunctuation appends predicted sentence terminators to records. labels
// holds one predicted punctuation mark per record ("0" or "" for none). A
// terminator is added only when the word does not already end in punctuation,
// except for dotted acronyms such as "U.S."; a doubled trailing period is then
// collapsed. The input slice is not modified.
func ApplyPunctuation(records []WordSpeakerRecord, labels []string) ([]WordSpeakerRecord, error) {
	if len(labels) != len(records) {
		return nil, services.Wrap(services.ErrMalformedInput, "timeline", "apply punctuation",
			fmt.Sprintf("got %d labels for %d words", len(labels), len(records)), nil)
	}
	out := make([]WordSpeakerRecord, len(records))
	copy(out, records)
	for i, label := range labels {
		out[i].Word = punctuateWord(out[i].Word, strings.TrimSpace(label))
	}
	return out, nil
}

func punctuateWord(word, label string) string {
	if word == "" || len(label) != 1 || !strings.Contains(terminatorLabels, label) {
		return word
	}
	if strings.ContainsRune(modelPunctuation, lastRune(word)) && !acronymPattern.MatchString(word) {
		return word
	}
	word += label
	if strings.HasSuffix(word, "..") {
		word = strings.TrimRight(word, ".")
	}
	return word
}

func lastRune(s string) rune {
	var last rune
	for _, r := range s {
		last = r
	}
	return last
}
