package extract

import "sort"

// WalkStrings performs a depth-first traversal of a decoded JSON value
// and emits every string reachable under a key accepted by keyMatch.
// Map keys are visited in sorted order so collection is deterministic.
func WalkStrings(value any, keyMatch func(string) bool, emit func(string)) {
	walk("", value, keyMatch, emit)
}

func walk(key string, value any, keyMatch func(string) bool, emit func(string)) {
	switch v := value.(type) {
	case string:
		if keyMatch(key) && v != "" {
			emit(v)
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walk(k, v[k], keyMatch, emit)
		}
	case []any:
		for _, item := range v {
			walk(key, item, keyMatch, emit)
		}
	}
}
