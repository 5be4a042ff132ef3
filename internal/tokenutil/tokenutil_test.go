package tokenutil

import "testing"

func TestCountTokensNonEmpty(t *testing.T) {
	if got := CountTokens("hello world, this is a short sentence"); got <= 0 {
		t.Fatalf("expected positive token count, got %d", got)
	}
}

func TestCountTokensEmpty(t *testing.T) {
	if got := CountTokens(""); got != 0 {
		t.Fatalf("expected 0 tokens for empty text, got %d", got)
	}
}

func TestEstimateFast(t *testing.T) {
	if got := EstimateFast(""); got != 0 {
		t.Fatalf("expected 0 for empty string, got %d", got)
	}
	if got := EstimateFast("   "); got != 0 {
		t.Fatalf("expected 0 for whitespace, got %d", got)
	}
	if got := EstimateFast("x"); got != 1 {
		t.Fatalf("expected minimum estimate of 1, got %d", got)
	}
	// Word count dominates for short words.
	if got := EstimateFast("a b c d e"); got < 5 {
		t.Fatalf("expected at least word count, got %d", got)
	}
}
