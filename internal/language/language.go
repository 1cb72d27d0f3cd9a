package language

import "strings"

// known lists each supported language as ISO 639-1 code, display name and
// punctuation-model support, followed by every alias that resolves to it
// (ISO 639-2 terminology and bibliographic codes, English word forms).
var known = []struct {
	code, name  string
	punctuation bool
	aliases     []string
}{
	{"en", "English", true, []string{"eng", "english"}},
	{"fr", "French", true, []string{"fra", "fre", "french"}},
	{"de", "German", true, []string{"deu", "ger", "german"}},
	{"es", "Spanish", true, []string{"spa", "spanish"}},
	{"it", "Italian", true, []string{"ita", "italian"}},
	{"nl", "Dutch", true, []string{"nld", "dut", "dutch"}},
	{"pt", "Portuguese", true, []string{"por", "portuguese"}},
	{"bg", "Bulgarian", true, []string{"bul", "bulgarian"}},
	{"pl", "Polish", true, []string{"pol", "polish"}},
	{"cs", "Czech", true, []string{"ces", "cze", "czech"}},
	{"sk", "Slovak", true, []string{"slk", "slo", "slovak"}},
	{"sl", "Slovenian", true, []string{"slv", "slovenian", "slovene"}},
	{"ja", "Japanese", false, []string{"jpn", "japanese"}},
	{"ko", "Korean", false, []string{"kor", "korean"}},
	{"zh", "Chinese", false, []string{"zho", "chi", "chinese"}},
	{"ru", "Russian", false, []string{"rus", "russian"}},
	{"ar", "Arabic", false, []string{"ara", "arabic"}},
	{"hi", "Hindi", false, []string{"hin", "hindi"}},
	{"sv", "Swedish", false, []string{"swe", "swedish"}},
	{"da", "Danish", false, []string{"dan", "danish"}},
	{"no", "Norwegian", false, []string{"nor", "norwegian"}},
	{"fi", "Finnish", false, []string{"fin", "finnish"}},
	{"uk", "Ukrainian", false, []string{"ukr", "ukrainian"}},
}

// index maps every code and alias to its position in known.
var index = func() map[string]int {
	m := make(map[string]int, len(known)*4)
	for i, k := range known {
		m[k.code] = i
		for _, alias := range k.aliases {
			m[alias] = i
		}
	}
	return m
}()

func normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func find(code string) (int, bool) {
	i, ok := index[normalize(code)]
	return i, ok
}

// ToISO2 resolves a 2-letter code, 3-letter code or English name to ISO 639-1.
// Unknown 2-letter input is passed through lowercased; anything else unknown
// yields "".
func ToISO2(code string) string {
	if i, ok := find(code); ok {
		return known[i].code
	}
	if c := normalize(code); len(c) == 2 {
		return c
	}
	return ""
}

// DisplayName is the English name for code, "Unknown" for blank input, and
// the uppercased input when unrecognized.
func DisplayName(code string) string {
	if i, ok := find(code); ok {
		return known[i].name
	}
	if c := strings.TrimSpace(code); c != "" {
		return strings.ToUpper(c)
	}
	return "Unknown"
}

// PunctuationSupported reports whether the punctuation restoration model
// covers code.
func PunctuationSupported(code string) bool {
	i, ok := find(code)
	return ok && known[i].punctuation
}
