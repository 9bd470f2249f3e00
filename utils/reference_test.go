package utils

import (
	"regexp"
	"strings"
	"testing"
)

func TestGenerateReferenceNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^XS-[0-9A-Z]+-[0-9A-Z]{4}$`)

	ref := GenerateReferenceNumber()
	if !pattern.MatchString(ref) {
		t.Errorf("Expected XS-<ts36>-<rand36> format, got %q", ref)
	}
	if len(ref) < 5 {
		t.Errorf("Reference %q shorter than the minimum lookup length", ref)
	}
	if !strings.HasPrefix(ref, "XS-") {
		t.Errorf("Expected XS- prefix, got %q", ref)
	}
}

func TestGenerateReferenceNumberDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[GenerateReferenceNumber()] = true
	}

	// Uniqueness is probabilistic; a rare collision within one run is
	// tolerated, wholesale repetition is not.
	if len(seen) < 95 {
		t.Errorf("Expected mostly distinct references, got %d unique out of 100", len(seen))
	}
}

func TestHashToken(t *testing.T) {
	h1 := HashToken("some-token")
	h2 := HashToken("some-token")
	h3 := HashToken("other-token")

	if h1 != h2 {
		t.Error("Expected identical hashes for identical tokens")
	}
	if h1 == h3 {
		t.Error("Expected different hashes for different tokens")
	}
	if len(h1) != 64 {
		t.Errorf("Expected 64 hex chars, got %d", len(h1))
	}
}
