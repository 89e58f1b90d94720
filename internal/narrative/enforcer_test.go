package narrative

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestEnforcePassThrough(t *testing.T) {
	text := "売上高は1200億円でした。来期も増収を見込みます。"
	if got := Enforce(text); got != text {
		t.Errorf("compliant text must pass unchanged, got %q", got)
	}
}

func TestEnforceSentenceCap(t *testing.T) {
	text := "一文目。二文目。三文目。四文目。五文目。"
	got := Enforce(text)
	if got != "一文目。二文目。三文目。" {
		t.Errorf("Enforce = %q, want first three sentences", got)
	}
}

func TestEnforceLengthCapAtTerminator(t *testing.T) {
	// One long sentence followed by a short one; the 397-rune cut point
	// lands after the first terminator.
	long := strings.Repeat("あ", 390) + "。" + strings.Repeat("い", 100) + "。"
	got := Enforce(long)
	want := strings.Repeat("あ", 390) + "。"
	if got != want {
		t.Errorf("expected cut at last complete terminator, got %d runes", utf8.RuneCountInString(got))
	}
}

func TestEnforceLengthCapEllipsis(t *testing.T) {
	// No terminator inside the first 397 runes: cut and append ellipsis.
	got := Enforce(strings.Repeat("あ", 500))
	if utf8.RuneCountInString(got) != 398 {
		t.Errorf("got %d runes, want 397 + ellipsis", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "…") {
		t.Error("expected ellipsis suffix")
	}
}

func TestEnforceIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"短い文。",
		"一。二。三。四。五。",
		strings.Repeat("あ", 500),
		strings.Repeat("あ", 390) + "。" + strings.Repeat("い", 100) + "。",
		"終端なしの長いテキスト" + strings.Repeat("x", 450),
		"！？。",
	}
	for _, in := range inputs {
		once := Enforce(in)
		twice := Enforce(once)
		if once != twice {
			t.Errorf("Enforce not idempotent for input of %d runes: %q != %q",
				utf8.RuneCountInString(in), once, twice)
		}
	}
}

func TestEnforceOutputContract(t *testing.T) {
	inputs := []string{
		strings.Repeat("文です。", 200),
		strings.Repeat("あ", 1000),
		"a。b。c。d。",
	}
	for _, in := range inputs {
		got := Enforce(in)
		if n := utf8.RuneCountInString(got); n > MaxSummaryRunes {
			t.Errorf("output %d runes exceeds cap", n)
		}
		if n := CountSentences(got); n > MaxSentences {
			t.Errorf("output has %d sentences, cap is %d", n, MaxSentences)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"一文目。二文目！三文目？", []string{"一文目。", "二文目！", "三文目？"}},
		{"終端なし", []string{"終端なし"}},
		{"前半。 後半の断片", []string{"前半。", "後半の断片"}},
		{"。。。", nil},
	}
	for _, tc := range tests {
		got := SplitSentences(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("SplitSentences(%q) = %v, want %v", tc.in, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("SplitSentences(%q)[%d] = %q, want %q", tc.in, i, got[i], tc.want[i])
			}
		}
	}
}

func TestCountSentences(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"一文。", 1},
		{"一文。二文。三文。", 3},
		{"終端なし断片", 1},
		{"一文。断片", 2},
	}
	for _, tc := range tests {
		if got := CountSentences(tc.in); got != tc.want {
			t.Errorf("CountSentences(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
