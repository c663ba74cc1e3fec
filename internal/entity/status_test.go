package entity

import "testing"

func TestParseStatusRoundTrip(t *testing.T) {
	for s := StatusQuote; s <= StatusAbandoned; s++ {
		parsed, ok := ParseStatus(s.String())
		if !ok || parsed != s {
			t.Errorf("ParseStatus(%q) = (%v, %v), want (%v, true)", s.String(), parsed, ok, s)
		}
	}
	if _, ok := ParseStatus("delivered"); ok {
		t.Error("unknown name should not parse")
	}
	if Status(0).Valid() || Status(7).Valid() {
		t.Error("out of range ordinals should be invalid")
	}
	if Status(0).String() != "unknown" {
		t.Errorf("zero status String() = %q, want unknown", Status(0).String())
	}
}

func TestSideExits(t *testing.T) {
	for s := StatusQuote; s <= StatusShipped; s++ {
		if s.SideExit() {
			t.Errorf("%s should not be a side exit", s)
		}
	}
	if !StatusArchived.SideExit() || !StatusAbandoned.SideExit() {
		t.Error("archived and abandoned are side exits")
	}
}
