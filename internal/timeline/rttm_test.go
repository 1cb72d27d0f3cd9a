package timeline

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"speakerline/internal/services"
)

func TestParseRTTMReconcilesFieldConventions(t *testing.T) {
	compact := "SPEAKER meeting 1 0.500 1.250 <NA> <NA> SPEAKER_00 <NA> <NA>\n"
	padded := "SPEAKER  meeting  1  0.500  1.250  <NA>  <NA>  SPEAKER_00  <NA>  <NA>\n"

	for name, doc := range map[string]string{"compact": compact, "padded": padded} {
		turns, err := ParseRTTM(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("%s: ParseRTTM returned error: %v", name, err)
		}
		want := []SpeakerTurn{{StartMs: 500, EndMs: 1750, SpeakerID: "SPEAKER_00"}}
		if !reflect.DeepEqual(turns, want) {
			t.Fatalf("%s: got %+v want %+v", name, turns, want)
		}
	}
}

func TestParseRTTMSkipsBlankLines(t *testing.T) {
	doc := "\ufeffSPEAKER a 1 0 1 <NA> <NA> S1 <NA> <NA>\n\n   \nSPEAKER a 1 1 2 <NA> <NA> S2 <NA> <NA>\n"
	turns, err := ParseRTTM(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseRTTM returned error: %v", err)
	}
	if len(turns) != 2 || turns[1].StartMs != 1000 || turns[1].EndMs != 3000 || turns[1].SpeakerID != "S2" {
		t.Fatalf("unexpected turns: %+v", turns)
	}
}

func TestParseRTTMReportsLineNumber(t *testing.T) {
	tests := map[string]string{
		"short":       "SPEAKER a 1 0 1 <NA> <NA> S1 <NA> <NA>\nSPEAKER a 1 0\n",
		"non-numeric": "SPEAKER a 1 0 1 <NA> <NA> S1 <NA> <NA>\nSPEAKER a 1 zero 1 <NA> <NA> S1 <NA> <NA>\n",
		"negative":    "SPEAKER a 1 0 1 <NA> <NA> S1 <NA> <NA>\nSPEAKER a 1 2 -1 <NA> <NA> S1 <NA> <NA>\n",
	}
	for name, doc := range tests {
		_, err := ParseRTTM(strings.NewReader(doc))
		if !errors.Is(err, services.ErrMalformedInput) {
			t.Fatalf("%s: expected ErrMalformedInput, got %v", name, err)
		}
		if !strings.Contains(err.Error(), "line 2") {
			t.Fatalf("%s: expected line number in %q", name, err)
		}
	}
}

func TestWriteRTTMRoundTrip(t *testing.T) {
	turns := []SpeakerTurn{
		{StartMs: 0, EndMs: 1500, SpeakerID: "alice"},
		{StartMs: 1500, EndMs: 4250, SpeakerID: "bob"},
	}
	var buf bytes.Buffer
	if err := WriteRTTM(&buf, "my meeting", turns); err != nil {
		t.Fatalf("WriteRTTM returned error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "SPEAKER my_meeting 1 0.000 1.500 <NA> <NA> alice <NA> <NA>\n") {
		t.Fatalf("unexpected serialization:\n%s", buf.String())
	}
	parsed, err := ParseRTTM(&buf)
	if err != nil {
		t.Fatalf("ParseRTTM returned error: %v", err)
	}
	if !reflect.DeepEqual(parsed, turns) {
		t.Fatalf("round trip mismatch: got %+v want %+v", parsed, turns)
	}
}

func TestSpeakerIDsKeepsFirstAppearanceOrder(t *testing.T) {
	turns := []SpeakerTurn{{SpeakerID: "B"}, {SpeakerID: "A"}, {SpeakerID: "B"}, {SpeakerID: "C"}}
	if got := SpeakerIDs(turns); !reflect.DeepEqual(got, []string{"B", "A", "C"}) {
		t.Fatalf("SpeakerIDs = %v", got)
	}
}
