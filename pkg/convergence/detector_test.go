package convergence

import "testing"

func TestDetectorConvergesAfterThreshold(t *testing.T) {
	d := New(5)

	for i := 0; i < 4; i++ {
		if state := d.Observe(false, 0); state == StateDone {
			t.Fatalf("converged too early at stall %d", i+1)
		}
	}
	if state := d.Observe(false, 0); state != StateDone {
		t.Errorf("expected StateDone after 5 stalls, got %s", state)
	}
	if !d.Done() {
		t.Error("Done should report true after convergence")
	}
}

func TestDetectorResetsOnGrowth(t *testing.T) {
	tests := []struct {
		name          string
		heightChanged bool
		newItems      int
	}{
		{"height grew", true, 0},
		{"new items", false, 3},
		{"both", true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(5)
			for i := 0; i < 4; i++ {
				d.Observe(false, 0)
			}

			if state := d.Observe(tt.heightChanged, tt.newItems); state != StateScanning {
				t.Errorf("expected reset to StateScanning, got %s", state)
			}
			if d.Stalls() != 0 {
				t.Errorf("expected stall count reset, got %d", d.Stalls())
			}

			// Needs the full threshold again.
			for i := 0; i < 4; i++ {
				if d.Observe(false, 0) == StateDone {
					t.Fatal("converged before a fresh threshold elapsed")
				}
			}
			if d.Observe(false, 0) != StateDone {
				t.Error("expected convergence after fresh threshold")
			}
		})
	}
}

func TestDetectorPartialGrowthStillStalls(t *testing.T) {
	// Height changing alone resets; only height-static AND zero-new counts.
	d := New(3)
	d.Observe(false, 0)
	d.Observe(true, 0)
	d.Observe(false, 0)
	d.Observe(false, 0)
	if d.Done() {
		t.Fatal("should not be done: reset interrupted the stall run")
	}
	if state := d.Observe(false, 0); state != StateDone {
		t.Errorf("expected StateDone, got %s", state)
	}
}

func TestDetectorDoneIsTerminal(t *testing.T) {
	d := New(1)
	d.Observe(false, 0)
	if !d.Done() {
		t.Fatal("expected convergence")
	}
	if state := d.Observe(true, 10); state != StateDone {
		t.Errorf("DONE must be terminal, got %s", state)
	}
}

func TestDetectorDefaultThreshold(t *testing.T) {
	d := New(0)
	for i := 0; i < DefaultStallThreshold-1; i++ {
		d.Observe(false, 0)
	}
	if d.Done() {
		t.Fatal("converged before default threshold")
	}
	d.Observe(false, 0)
	if !d.Done() {
		t.Error("expected convergence at default threshold")
	}
}

func TestDetectorStalledState(t *testing.T) {
	d := New(5)
	if state := d.Observe(false, 0); state != StateStalled {
		t.Errorf("expected StateStalled after first stall, got %s", state)
	}
	if d.Stalls() != 1 {
		t.Errorf("expected 1 stall, got %d", d.Stalls())
	}
}
