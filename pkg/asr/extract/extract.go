// Package extract recovers normalized transcript text and a detected
// language tag from inconsistently shaped provider JSON payloads.
package extract

import (
	"encoding/json"
	"strings"
)

// directKeys are top-level fields tried first, in order.
var directKeys = []string{"text", "transcript", "transcription"}

// FromRaw decodes a raw provider payload and runs the extraction cascade.
func FromRaw(raw []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return Text(payload)
}

// Text runs the priority cascade over a decoded payload, stopping at the
// first step that yields non-whitespace text: direct fields, a segments
// array, responses-style output items, the utterance/channel/word
// hierarchy, and finally a generic deep walk.
func Text(payload map[string]any) string {
	if len(payload) == 0 {
		return ""
	}
	for _, key := range directKeys {
		if s := trimmedString(payload[key]); s != "" {
			return s
		}
	}
	if s := fromSegments(payload["segments"]); s != "" {
		return s
	}
	if s := fromOutputItems(payload["output"]); s != "" {
		return s
	}
	if s := fromResults(payload["results"]); s != "" {
		return s
	}
	return deepCollect(payload)
}

func trimmedString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func fromSegments(v any) string {
	items, ok := v.([]any)
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		seg, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if s := trimmedString(seg["text"]); s != "" {
			parts = append(parts, s)
		} else if s := trimmedString(seg["transcript"]); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// fromOutputItems handles the responses-API shape: output items with
// nested content parts carrying text.
func fromOutputItems(v any) string {
	items, ok := v.([]any)
	if !ok {
		return ""
	}
	var parts []string
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		content, ok := entry["content"].([]any)
		if !ok {
			continue
		}
		for _, c := range content {
			part, ok := c.(map[string]any)
			if !ok {
				continue
			}
			if s := trimmedString(part["text"]); s != "" {
				parts = append(parts, s)
			} else if s := trimmedString(part["transcript"]); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// fromResults walks the utterances/channels/alternatives hierarchy:
// whole-utterance transcripts first, then channel alternatives, then
// paragraph/sentence transcripts, with word-level reconstruction as the
// last resort.
func fromResults(v any) string {
	results, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	if utterances, ok := results["utterances"].([]any); ok {
		var parts []string
		for _, u := range utterances {
			if m, ok := u.(map[string]any); ok {
				if s := trimmedString(m["transcript"]); s != "" {
					parts = append(parts, s)
				} else if s := trimmedString(m["text"]); s != "" {
					parts = append(parts, s)
				}
			}
		}
		if joined := strings.TrimSpace(strings.Join(parts, " ")); joined != "" {
			return joined
		}
	}
	channels, ok := results["channels"].([]any)
	if !ok {
		return ""
	}
	var wordTokens []string
	for _, ch := range channels {
		channel, ok := ch.(map[string]any)
		if !ok {
			continue
		}
		alternatives, ok := channel["alternatives"].([]any)
		if !ok {
			continue
		}
		for _, alt := range alternatives {
			m, ok := alt.(map[string]any)
			if !ok {
				continue
			}
			if s := trimmedString(m["transcript"]); s != "" {
				return s
			}
			if s := fromParagraphs(m["paragraphs"]); s != "" {
				return s
			}
			if words, ok := m["words"].([]any); ok {
				for _, w := range words {
					word, ok := w.(map[string]any)
					if !ok {
						continue
					}
					if s := trimmedString(word["punctuated_word"]); s != "" {
						wordTokens = append(wordTokens, s)
					} else if s := trimmedString(word["word"]); s != "" {
						wordTokens = append(wordTokens, s)
					}
				}
			}
		}
	}
	return NormalizeSpacing(JoinWords(wordTokens))
}

func fromParagraphs(v any) string {
	block, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	if s := trimmedString(block["transcript"]); s != "" {
		return s
	}
	paragraphs, ok := block["paragraphs"].([]any)
	if !ok {
		return ""
	}
	var parts []string
	for _, p := range paragraphs {
		par, ok := p.(map[string]any)
		if !ok {
			continue
		}
		sentences, ok := par["sentences"].([]any)
		if !ok {
			continue
		}
		for _, s := range sentences {
			if m, ok := s.(map[string]any); ok {
				if text := trimmedString(m["text"]); text != "" {
					parts = append(parts, text)
				}
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// transcriptKey accepts key names that plausibly carry transcript text.
// Plain "contains text" would also match unrelated keys like "context".
func transcriptKey(key string) bool {
	k := strings.ToLower(key)
	if strings.Contains(k, "transcript") {
		return true
	}
	return k == "text" || strings.HasPrefix(k, "text_") || strings.HasSuffix(k, "_text")
}

// deepCollect is the cascade's last step: a generic walk that gathers
// transcript-like strings anywhere in the payload, de-duplicating
// repeated chunks.
func deepCollect(payload map[string]any) string {
	seen := make(map[string]struct{})
	var parts []string
	WalkStrings(payload, transcriptKey, func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		parts = append(parts, s)
	})
	return strings.TrimSpace(strings.Join(parts, " "))
}
