package runid

import "testing"

func TestNewProducesDistinctIDs(t *testing.T) {
	a := New()
	b := New()
	if a.UUID == b.UUID {
		t.Fatalf("expected distinct UUIDs across calls")
	}
	if a.Label == "" {
		t.Fatalf("expected a non-empty label")
	}
}

func TestStringContainsBothParts(t *testing.T) {
	id := New()
	s := id.String()
	if len(s) <= len(id.Label) {
		t.Fatalf("String() = %q, expected it to include the UUID alongside the label", s)
	}
}
