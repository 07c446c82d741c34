package secrets

import "testing"

func TestEnvStoreGet(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "  sk-abc  ")
	s := NewEnvStore()
	got, ok := s.Get("openai.api_key")
	if !ok || got != "sk-abc" {
		t.Fatalf("Get = %q, %v", got, ok)
	}
}

func TestEnvStoreEmptyValueIsMissing(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "   ")
	s := NewEnvStore()
	if _, ok := s.Get("deepgram.api_key"); ok {
		t.Fatal("whitespace-only value must count as missing")
	}
}

func TestEnvName(t *testing.T) {
	cases := map[string]string{
		"openai.api_key":  "OPENAI_API_KEY",
		"my-provider.key": "MY_PROVIDER_KEY",
	}
	for in, want := range cases {
		if got := envName(in); got != want {
			t.Fatalf("envName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMarkMissingRecordsOnce(t *testing.T) {
	s := NewEnvStore()
	s.MarkMissing("gemini.api_key")
	s.MarkMissing("gemini.api_key")
	if got := s.Missing(); len(got) != 1 || got[0] != "gemini.api_key" {
		t.Fatalf("Missing = %v", got)
	}
}
