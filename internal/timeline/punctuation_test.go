package timeline

import (
	"errors"
	"testing"

	"speakerline/internal/services"
)

func TestApplyPunctuation(t *testing.T) {
	tests := []struct {
		word  string
		label string
		want  string
	}{
		{"hello", ".", "hello."},
		{"really", "?", "really?"},
		{"wow", "!", "wow!"},
		{"hello", ",", "hello"},
		{"hello", "0", "hello"},
		{"hello,", ".", "hello,"},
		{"done.", ".", "done."},
		{"U.S.", ".", "U.S"},
		{"U.S.", "?", "U.S.?"},
		{"U.S", "?", "U.S?"},
		{"", ".", ""},
		{"naïve", "!", "naïve!"},
	}
	records := make([]WordSpeakerRecord, len(tests))
	labels := make([]string, len(tests))
	for i, tc := range tests {
		records[i] = WordSpeakerRecord{Word: tc.word, SpeakerID: "A"}
		labels[i] = tc.label
	}

	got, err := ApplyPunctuation(records, labels)
	if err != nil {
		t.Fatalf("ApplyPunctuation returned error: %v", err)
	}
	for i, tc := range tests {
		if got[i].Word != tc.want {
			t.Errorf("punctuate(%q, %q) = %q want %q", tc.word, tc.label, got[i].Word, tc.want)
		}
		if records[i].Word != tc.word {
			t.Errorf("input record %d modified", i)
		}
	}
}

func TestApplyPunctuationRejectsLengthMismatch(t *testing.T) {
	_, err := ApplyPunctuation([]WordSpeakerRecord{{Word: "a"}}, nil)
	if !errors.Is(err, services.ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
}
