// Package convergence decides when an infinite-scroll listing has stopped
// producing new content.
package convergence

// State is the detector's position in its SCANNING -> STALLED -> DONE machine.
type State int

const (
	// StateScanning means the listing is still yielding content.
	StateScanning State = iota
	// StateStalled means one or more consecutive iterations produced nothing.
	StateStalled
	// StateDone is terminal: the stall threshold was reached and the loop
	// should exit.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateStalled:
		return "stalled"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// DefaultStallThreshold is the number of consecutive empty iterations after
// which the listing is considered exhausted.
const DefaultStallThreshold = 5

// Detector counts consecutive iterations in which the page height did not
// change and no new items appeared. Any iteration with fresh content resets
// the counter. Once DONE, the detector stays DONE.
type Detector struct {
	threshold int
	stalls    int
	state     State
}

// New creates a detector with the given stall threshold. A non-positive
// threshold falls back to DefaultStallThreshold.
func New(threshold int) *Detector {
	if threshold <= 0 {
		threshold = DefaultStallThreshold
	}
	return &Detector{threshold: threshold, state: StateScanning}
}

// Observe feeds one iteration's facts into the detector and returns the
// resulting state.
func (d *Detector) Observe(heightChanged bool, newItems int) State {
	if d.state == StateDone {
		return StateDone
	}
	if !heightChanged && newItems == 0 {
		d.stalls++
		if d.stalls >= d.threshold {
			d.state = StateDone
		} else {
			d.state = StateStalled
		}
		return d.state
	}
	d.stalls = 0
	d.state = StateScanning
	return d.state
}

// State returns the current state without observing a new iteration.
func (d *Detector) State() State {
	return d.state
}

// Stalls returns the current consecutive-stall count.
func (d *Detector) Stalls() int {
	return d.stalls
}

// Done reports whether the detector has reached its terminal state.
func (d *Detector) Done() bool {
	return d.state == StateDone
}
