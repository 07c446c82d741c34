package gateway

import (
	"os"
	"strings"

	"github.com/voxgate/voxgate/pkg/asr/extract"
)

// maxCoercionCandidates bounds the language-forcing retries.
const maxCoercionCandidates = 3

// coercionCandidates derives the forced-language candidates used when
// the primary provider returns an empty transcript: configured output
// language first, then the UI locale, then the system locale,
// de-duplicated, skipping the language the request already carried.
func coercionCandidates(snap Snapshot, requested string) []string {
	raw := []string{
		snap.Output.Language,
		snap.Output.UILocale,
		systemLocale(),
	}
	seen := map[string]struct{}{}
	requested = extract.NormalizeTag(requested)
	var out []string
	for _, candidate := range raw {
		tag := extract.NormalizeTag(candidate)
		if tag == "" || tag == requested {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
		if len(out) == maxCoercionCandidates {
			break
		}
	}
	return out
}

// systemLocale reads the POSIX locale environment, e.g. "en_US.UTF-8".
func systemLocale() string {
	for _, name := range []string{"LC_ALL", "LANG"} {
		value := os.Getenv(name)
		if value == "" {
			continue
		}
		if i := strings.IndexAny(value, "._"); i > 0 {
			return value[:i]
		}
		return value
	}
	return ""
}
