package timeline

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"speakerline/internal/services"
)

func TestLoadWordsFormats(t *testing.T) {
	want := []Word{
		{Text: "hello", StartMs: 0, EndMs: 500},
		{Text: "world.", StartMs: 500, EndMs: 1000},
	}
	tests := map[string]string{
		"array with text":  `[{"text":"hello","start":0,"end":0.5},{"text":"world.","start":0.5,"end":1.0}]`,
		"array with word":  `[{"word":" hello","start":0,"end":0.5},{"word":"world. ","start":0.5,"end":1}]`,
		"word_segments":    `{"word_segments":[{"word":"hello","start":0,"end":0.5,"score":0.9},{"word":"world.","start":0.5,"end":1.0}]}`,
		"segments[].words": `{"segments":[{"text":"hello world.","words":[{"word":"hello","start":0,"end":0.5}]},{"words":[{"word":"world.","start":0.5,"end":1.0}]}]}`,
	}
	for name, doc := range tests {
		got, err := LoadWords(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("%s: LoadWords returned error: %v", name, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("%s: got %+v want %+v", name, got, want)
		}
	}
}

func TestLoadWordsRoundsToMilliseconds(t *testing.T) {
	got, err := LoadWords(strings.NewReader(`[{"text":"x","start":0.1,"end":2.25}]`))
	if err != nil {
		t.Fatalf("LoadWords returned error: %v", err)
	}
	if got[0].StartMs != 100 || got[0].EndMs != 2250 {
		t.Fatalf("unexpected conversion: %+v", got[0])
	}
}

func TestLoadWordsNormalizesText(t *testing.T) {
	got, err := LoadWords(strings.NewReader(`[{"text":"cafe\u0301","start":0,"end":1}]`))
	if err != nil {
		t.Fatalf("LoadWords returned error: %v", err)
	}
	if got[0].Text != "caf\u00e9" {
		t.Fatalf("expected NFC text, got %q", got[0].Text)
	}
}

func TestLoadWordsRejectsMalformed(t *testing.T) {
	tests := map[string]string{
		"missing start": `[{"text":"a","end":1}]`,
		"string end":    `[{"text":"a","start":0,"end":"1"}]`,
		"not json":      `hello`,
		"empty":         ``,
		"no words key":  `{"language":"en"}`,
	}
	for name, doc := range tests {
		_, err := LoadWords(strings.NewReader(doc))
		if !errors.Is(err, services.ErrMalformedInput) {
			t.Fatalf("%s: expected ErrMalformedInput, got %v", name, err)
		}
	}
}
