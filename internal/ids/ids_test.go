package ids

import "testing"

func TestDistinctKindsNeverEqual(t *testing.T) {
	sym := NewSymbol("AAPL")
	venue := NewVenue("AAPL")
	if sym.id == venue.id {
		t.Fatalf("Symbol and Venue built from the same string must not compare equal")
	}

	m := map[any]bool{}
	m[sym] = true
	m[venue] = true
	if len(m) != 2 {
		t.Fatalf("expected 2 distinct map entries, got %d", len(m))
	}
}

func TestInstrumentIdRoundTrip(t *testing.T) {
	want := NewInstrumentId(NewSymbol("AAPL"), NewVenue("SIM"))
	parsed, err := ParseInstrumentId(want.String())
	if err != nil {
		t.Fatalf("ParseInstrumentId: %v", err)
	}
	if parsed != want {
		t.Fatalf("round trip mismatch: got %+v want %+v", parsed, want)
	}
	if parsed.Symbol() != want.Symbol() || parsed.Venue() != want.Venue() {
		t.Fatalf("round trip symbol/venue mismatch")
	}
}

func TestParseInstrumentIdSplitsOnFinalDot(t *testing.T) {
	id, err := ParseInstrumentId("BTC.USD.SIM")
	if err != nil {
		t.Fatalf("ParseInstrumentId: %v", err)
	}
	if id.Symbol().String() != "BTC.USD" || id.Venue().String() != "SIM" {
		t.Fatalf("expected split on final dot, got symbol=%q venue=%q", id.Symbol(), id.Venue())
	}
}

func TestParseInstrumentIdRejectsMissingDot(t *testing.T) {
	if _, err := ParseInstrumentId("AAPL"); err == nil {
		t.Fatalf("expected error for missing venue separator")
	}
}
