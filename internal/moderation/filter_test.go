package moderation

import "testing"

func TestNewFilter(t *testing.T) {
	f := NewFilter()
	if f == nil {
		t.Fatal("NewFilter returned nil")
	}
	if len(f.terms) == 0 {
		t.Fatal("NewFilter created an empty filter")
	}
}

func TestRedact(t *testing.T) {
	f := NewFilter()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"keyword in sentence", "I say fuck you", "I say *** you"},
		{"case insensitive", "FUCK this", "*** this"},
		{"mixed case", "sHiT happens", "*** happens"},
		{"multiple terms", "fuck this shit", "*** this ***"},
		{"repeated term", "damn damn", "*** ***"},
		{"clean message", "hello world", "hello world"},
		{"empty message", "", ""},
		{"substring inside word", "dampdamnish", "damp***ish"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Redact(tt.input); got != tt.want {
				t.Errorf("Redact(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRedact_Deterministic(t *testing.T) {
	f := NewFilter()
	input := "fuck shit damn"
	first := f.Redact(input)
	for i := 0; i < 5; i++ {
		if got := f.Redact(input); got != first {
			t.Fatalf("Redact is not deterministic: %q vs %q", got, first)
		}
	}
}

func TestContains(t *testing.T) {
	f := NewFilterWithTerms([]string{"badword", "offensive"})

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"exact match", "badword", true},
		{"in sentence", "this is badword here", true},
		{"case insensitive", "BADWORD", true},
		{"substring match", "mybadwording", true},
		{"clean message", "hello world", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Contains(tt.input); got != tt.want {
				t.Errorf("Contains(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	f := NewFilterWithTerms([]string{"badword", "offensive"})

	result := f.Check("this is badword here")
	if !result.Blocked {
		t.Fatal("Check should block a listed term")
	}
	if result.Reason != "blocked_keyword" {
		t.Errorf("Reason = %q, want %q", result.Reason, "blocked_keyword")
	}
	if result.Term != "badword" {
		t.Errorf("Term = %q, want %q", result.Term, "badword")
	}

	if clean := f.Check("hello world"); clean.Blocked {
		t.Error("Check should not block a clean message")
	}
}

func TestNewFilterWithTerms_NormalizesInput(t *testing.T) {
	f := NewFilterWithTerms([]string{" BadWord ", "", "ok"})

	if !f.Contains("badword") {
		t.Error("terms should be trimmed and lowercased")
	}
	if len(f.terms) != 2 {
		t.Errorf("empty terms should be skipped, got %d terms", len(f.terms))
	}
}
