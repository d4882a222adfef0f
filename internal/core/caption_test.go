package core

import (
	"strings"
	"testing"
)

func TestTruncateRunesCountsCodePoints(t *testing.T) {
	if got := TruncateRunes("héllo", 2); got != "hé" {
		t.Fatalf("expected hé, got %q", got)
	}
	if got := TruncateRunes("😀😁😂", 2); got != "😀😁" {
		t.Fatalf("expected two emoji, got %q", got)
	}
	if got := TruncateRunes("abc", 10); got != "abc" {
		t.Fatalf("expected unchanged, got %q", got)
	}
}

func TestNormalizeCaption(t *testing.T) {
	long := "  " + strings.Repeat("é", MaxCaptionLength+10) + "  "
	got := NormalizeCaption(long)
	if RuneLen(got) != MaxCaptionLength {
		t.Fatalf("expected %d code points, got %d", MaxCaptionLength, RuneLen(got))
	}
}
