package services

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateKeepsRunesIntact(t *testing.T) {
	arabic := strings.Repeat("مرحبا بكم في المطعم ", 10)

	got := truncate(arabic, 30)
	if !utf8.ValidString(got) {
		t.Errorf("truncation produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 31 { // 30 runes + ellipsis
		t.Errorf("expected 31 runes, got %d", n)
	}

	if got := truncate("short", 30); got != "short" {
		t.Errorf("short string must pass through, got %q", got)
	}
}
