package expansion

import "testing"

// TestParseVariations verifies extraction from a valid JSON-mode response.
func TestParseVariations(t *testing.T) {
	content := `{"variations": ["midterm exam topics", "what is covered on the midterm", "midterm review scope"]}`

	got := parseVariations(content, "midterm topics")
	if len(got) != 3 {
		t.Fatalf("expected 3 variations, got %d", len(got))
	}
	if got[0] != "midterm exam topics" {
		t.Errorf("expected first variation to be preserved, got %q", got[0])
	}
}

// TestParseVariations_InvalidJSON verifies the raw-query fallback.
func TestParseVariations_InvalidJSON(t *testing.T) {
	got := parseVariations("not json at all", "midterm topics")
	if len(got) != 1 || got[0] != "midterm topics" {
		t.Errorf("expected fallback to raw query, got %v", got)
	}
}

// TestParseVariations_EmptyAndBlankEntries verifies blank phrasings are
// dropped and an all-blank response falls back to the raw query.
func TestParseVariations_EmptyAndBlankEntries(t *testing.T) {
	got := parseVariations(`{"variations": ["  ", "exam scope", ""]}`, "midterm topics")
	if len(got) != 1 || got[0] != "exam scope" {
		t.Errorf("expected single non-blank variation, got %v", got)
	}

	got = parseVariations(`{"variations": ["", "  "]}`, "midterm topics")
	if len(got) != 1 || got[0] != "midterm topics" {
		t.Errorf("expected fallback to raw query, got %v", got)
	}
}

// TestParseVariations_CapsAtVariantCount verifies over-long responses are
// truncated.
func TestParseVariations_CapsAtVariantCount(t *testing.T) {
	content := `{"variations": ["a", "b", "c", "d", "e"]}`

	got := parseVariations(content, "q")
	if len(got) != VariantCount {
		t.Errorf("expected %d variations, got %d", VariantCount, len(got))
	}
}
