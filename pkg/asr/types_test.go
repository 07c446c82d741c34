package asr

import "testing"

func TestAutoLanguage(t *testing.T) {
	cases := []struct {
		lang string
		want bool
	}{
		{"", true},
		{LanguageAuto, true},
		{"en", false},
		{"zh", false},
	}
	for _, tc := range cases {
		if got := (Request{Language: tc.lang}).AutoLanguage(); got != tc.want {
			t.Fatalf("AutoLanguage(%q) = %v, want %v", tc.lang, got, tc.want)
		}
	}
}

func TestWithLanguageClones(t *testing.T) {
	base := Request{ID: "r1", AudioPath: "a.wav", Language: LanguageAuto}
	forced := base.WithLanguage("zh")
	if forced.Language != "zh" || forced.ID != "r1" {
		t.Fatalf("unexpected clone: %+v", forced)
	}
	if base.Language != LanguageAuto {
		t.Fatalf("original mutated: %+v", base)
	}
}

func TestResponseEmpty(t *testing.T) {
	if !(Response{}).Empty() {
		t.Fatal("zero response must be empty")
	}
	if !(Response{Text: " \n\t"}).Empty() {
		t.Fatal("whitespace-only text must be empty")
	}
	if (Response{Text: "hi"}).Empty() {
		t.Fatal("non-empty text must not be empty")
	}
}
