package textutil

import (
	"testing"
	"time"
)

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{-time.Second, "0s"},
		{59*time.Second + 900*time.Millisecond, "59s"},
		{61 * time.Second, "1m 1s"},
		{3600 * time.Second, "1h 0m 0s"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "2h 3m 4s"},
	}
	for _, tt := range tests {
		if got := HumanDuration(tt.in); got != tt.want {
			t.Errorf("HumanDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTailLines(t *testing.T) {
	text := "one\n\ntwo\nthree\n  \nfour\n"
	if got := TailLines(text, 2); got != "three\nfour" {
		t.Fatalf("TailLines = %q", got)
	}
	if got := TailLines(text, 10); got != "one\ntwo\nthree\nfour" {
		t.Fatalf("TailLines all = %q", got)
	}
	if got := TailLines(text, 0); got != "" {
		t.Fatalf("TailLines zero = %q", got)
	}
}
