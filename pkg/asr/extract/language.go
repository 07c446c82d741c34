package extract

import (
	"strings"
	"unicode"
)

// languageKeys are field names that may carry a detected-language tag.
var languageKeys = []string{
	"detected_language",
	"detected_language_code",
	"language",
	"language_code",
}

// cjkShare is the fraction of letters that must be CJK before text is
// inferred as Chinese. Tunable.
const cjkShare = 0.3

// Language recovers a detected-language tag: explicit payload fields
// first (top level, then anywhere in the tree), then a script-ratio
// heuristic over the recovered text. Returns "" when nothing is known.
func Language(payload map[string]any, text string) string {
	for _, key := range languageKeys {
		if tag := NormalizeTag(trimmedString(payload[key])); tag != "" {
			return tag
		}
	}
	var found string
	WalkStrings(payload, func(key string) bool {
		k := strings.ToLower(key)
		return strings.Contains(k, "language") && !strings.Contains(k, "model")
	}, func(s string) {
		if found == "" {
			found = NormalizeTag(s)
		}
	})
	if found != "" {
		return found
	}
	return ScriptLanguage(text)
}

// NormalizeTag canonicalizes common tag variants: every zh* form maps to
// "zh", every en* form to "en", other tags keep their primary subtag.
func NormalizeTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" || tag == "auto" || tag == "unknown" {
		return ""
	}
	switch {
	case strings.HasPrefix(tag, "zh"), strings.HasPrefix(tag, "cmn"), strings.HasPrefix(tag, "yue"):
		return "zh"
	case strings.HasPrefix(tag, "en"):
		return "en"
	}
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		return tag[:i]
	}
	return tag
}

// ScriptLanguage infers a tag from the text's script: "zh" when CJK
// characters make up a meaningful share of the letters, "en" when Latin
// letters dominate, "" when the text carries no letters at all.
func ScriptLanguage(text string) string {
	var cjk, latin int
	for _, r := range text {
		switch {
		case isCJK(r):
			cjk++
		case unicode.IsLetter(r):
			latin++
		}
	}
	total := cjk + latin
	if total == 0 {
		return ""
	}
	if float64(cjk) >= cjkShare*float64(total) {
		return "zh"
	}
	return "en"
}
