package util

import "testing"

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 5, "hello..."},
		{"“Oh dear!”", 4, "“Oh ..."},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := TruncateRunes(tt.in, tt.max); got != tt.want {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestPreview(t *testing.T) {
	type qa struct{ Question, Answer string }
	got := Preview(qa{Question: "What is\nthe  issue?", Answer: "none"}, 0)
	if want := "{Question:What is the issue? Answer:none}"; got != want {
		t.Errorf("Preview = %q, want %q", got, want)
	}
	if got := Preview("a long payload string", 6); got != "a long..." {
		t.Errorf("Preview truncated = %q", got)
	}
}
