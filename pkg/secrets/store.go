// Package secrets is the boundary to the credential store. The gateway
// never persists secrets; it resolves them per call through a Store.
package secrets

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Store resolves a secret from a reference key. MarkMissing records that
// a lookup failed so the surrounding application can surface diagnostics.
type Store interface {
	Get(key string) (string, bool)
	MarkMissing(key string)
}

// EnvStore resolves secrets from environment variables. Reference keys
// are upper-cased and dashes/dots become underscores.
type EnvStore struct {
	mu      sync.Mutex
	missing map[string]struct{}
}

func NewEnvStore() *EnvStore {
	return &EnvStore{missing: make(map[string]struct{})}
}

func (s *EnvStore) Get(key string) (string, bool) {
	value := strings.TrimSpace(os.Getenv(envName(key)))
	return value, value != ""
}

func (s *EnvStore) MarkMissing(key string) {
	s.mu.Lock()
	if _, seen := s.missing[key]; !seen {
		s.missing[key] = struct{}{}
		slog.Warn("credential_missing", slog.String("key", key))
	}
	s.mu.Unlock()
}

// Missing returns the reference keys reported missing so far.
func (s *EnvStore) Missing() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.missing))
	for k := range s.missing {
		out = append(out, k)
	}
	return out
}

func envName(key string) string {
	name := strings.ToUpper(key)
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, ".", "_")
	return name
}

// StaticStore is a fixed map of secrets, used in tests.
type StaticStore struct {
	Secrets map[string]string

	mu      sync.Mutex
	MissedK []string
}

func (s *StaticStore) Get(key string) (string, bool) {
	v, ok := s.Secrets[key]
	return v, ok && v != ""
}

func (s *StaticStore) MarkMissing(key string) {
	s.mu.Lock()
	s.MissedK = append(s.MissedK, key)
	s.mu.Unlock()
}
