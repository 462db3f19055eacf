package world

import "testing"

// TestActionWireCodes pins the integer codes; they are part of the wire
// contract.
func TestActionWireCodes(t *testing.T) {
	codes := []struct {
		action Action
		code   uint8
	}{
		{ActionNone, 0},
		{ActionWest, 1},
		{ActionNorth, 2},
		{ActionEast, 3},
		{ActionSouth, 4},
	}
	for _, c := range codes {
		if uint8(c.action) != c.code {
			t.Errorf("%s: expected code %d, got %d", c.action, c.code, uint8(c.action))
		}
	}
}

// TestActionNames verifies String and ParseAction are inverses.
func TestActionNames(t *testing.T) {
	for _, a := range []Action{ActionNone, ActionWest, ActionNorth, ActionEast, ActionSouth} {
		parsed, err := ParseAction(a.String())
		if err != nil {
			t.Errorf("ParseAction(%q): %v", a.String(), err)
			continue
		}
		if parsed != a {
			t.Errorf("round trip of %s gave %s", a, parsed)
		}
	}

	if _, err := ParseAction("sideways"); err == nil {
		t.Error("expected an error for an unknown action name")
	}
}

// TestActionFromCode verifies code resolution and range checks.
func TestActionFromCode(t *testing.T) {
	if a, ok := ActionFromCode(3); !ok || a != ActionEast {
		t.Errorf("expected east for code 3, got %s ok=%v", a, ok)
	}
	if _, ok := ActionFromCode(99); ok {
		t.Error("expected out-of-range code to be rejected")
	}
	if _, ok := ActionFromCode(-1); ok {
		t.Error("expected negative code to be rejected")
	}
}

// TestActionDeltas verifies each direction steps exactly one unit on the
// XZ plane.
func TestActionDeltas(t *testing.T) {
	sum := Vec3{}
	for _, a := range []Action{ActionWest, ActionNorth, ActionEast, ActionSouth} {
		d := a.Delta()
		if d == (Vec3{}) {
			t.Errorf("%s: expected a non-zero delta", a)
		}
		if d[1] != 0 {
			t.Errorf("%s: movement must stay on the XZ plane, got %v", a, d)
		}
		sum[0] += d[0]
		sum[2] += d[2]
	}
	// Opposite pairs cancel.
	if sum != (Vec3{}) {
		t.Errorf("expected deltas to cancel, got %v", sum)
	}

	if ActionNone.Delta() != (Vec3{}) {
		t.Error("none must not move")
	}
	if _, ok := ActionNone.Facing(); ok {
		t.Error("none must not change facing")
	}
}
