package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenClass int

const (
	classPunct tokenClass = iota
	classLatin
	classOther
)

// singleCharMajority is the share of single-rune tokens above which a
// word list is treated as CJK-dense and concatenated without spaces.
// Tunable; the policy (majority vote) is what matters.
const singleCharMajority = 0.7

func classify(token string) tokenClass {
	hasLatin := false
	for _, r := range token {
		switch {
		case unicode.IsLetter(r) && r < utf8.RuneSelf, unicode.IsDigit(r):
			hasLatin = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r):
			// still punctuation-only so far
		default:
			return classOther
		}
	}
	if hasLatin {
		return classLatin
	}
	return classPunct
}

// JoinWords reconstructs a transcript from word-level tokens with a
// script-aware joining rule: CJK-dense token lists are concatenated with
// no separators, otherwise a space goes between two adjacent Latin/digit
// tokens and never around punctuation-only tokens.
func JoinWords(tokens []string) string {
	words := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if t := strings.TrimSpace(tok); t != "" {
			words = append(words, t)
		}
	}
	if len(words) == 0 {
		return ""
	}

	nonPunct, singles := 0, 0
	for _, w := range words {
		if classify(w) == classPunct {
			continue
		}
		nonPunct++
		if utf8.RuneCountInString(w) == 1 {
			singles++
		}
	}
	if nonPunct > 0 && float64(singles) >= singleCharMajority*float64(nonPunct) {
		return strings.Join(words, "")
	}

	var b strings.Builder
	prevClass := classPunct
	for i, w := range words {
		cls := classify(w)
		if i > 0 && cls == classLatin && prevClass == classLatin {
			b.WriteByte(' ')
		}
		b.WriteString(w)
		prevClass = cls
	}
	return b.String()
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}

func isClosingPunct(r rune) bool {
	switch r {
	case '，', '。', '！', '？', '、', '；', '：', '”', '』', '】', '）',
		',', '.', '!', '?', ';', ':', ')', ']', '}':
		return true
	}
	return false
}

// NormalizeSpacing removes spurious spaces between adjacent CJK
// characters and before closing punctuation. Providers that emit
// word-split CJK tend to leave both behind.
func NormalizeSpacing(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range runes {
		if r == ' ' {
			var prev, next rune
			if i > 0 {
				prev = runes[i-1]
			}
			for j := i + 1; j < len(runes); j++ {
				if runes[j] != ' ' {
					next = runes[j]
					break
				}
			}
			if next == 0 {
				continue
			}
			if isCJK(prev) && isCJK(next) {
				continue
			}
			if isClosingPunct(next) {
				continue
			}
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
