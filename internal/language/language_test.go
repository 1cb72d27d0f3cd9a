package language

import "testing"

func TestLookups(t *testing.T) {
	tests := []struct {
		in          string
		iso2        string
		display     string
		punctuation bool
	}{
		{"en", "en", "English", true},
		{" EN ", "en", "English", true},
		{"eng", "en", "English", true},
		{"fre", "fr", "French", true},
		{"fra", "fr", "French", true},
		{"ger", "de", "German", true},
		{"GERMAN", "de", "German", true},
		{"dut", "nl", "Dutch", true},
		{"cze", "cs", "Czech", true},
		{"slovene", "sl", "Slovenian", true},
		{"chi", "zh", "Chinese", false},
		{"jpn", "ja", "Japanese", false},
		{"uk", "uk", "Ukrainian", false},
		{"nor", "no", "Norwegian", false},
		{"xy", "xy", "XY", false},
		{"xyz", "", "XYZ", false},
		{"", "", "Unknown", false},
		{" ", "", "Unknown", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ToISO2(tt.in); got != tt.iso2 {
				t.Errorf("ToISO2(%q) = %q, want %q", tt.in, got, tt.iso2)
			}
			if got := DisplayName(tt.in); got != tt.display {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.in, got, tt.display)
			}
			if got := PunctuationSupported(tt.in); got != tt.punctuation {
				t.Errorf("PunctuationSupported(%q) = %v, want %v", tt.in, got, tt.punctuation)
			}
		})
	}
}

func TestAliasesAreUnique(t *testing.T) {
	seen := map[string]string{}
	for _, k := range known {
		for _, key := range append([]string{k.code}, k.aliases...) {
			if prev, ok := seen[key]; ok {
				t.Fatalf("%q maps to both %s and %s", key, prev, k.code)
			}
			seen[key] = k.code
		}
	}
}
