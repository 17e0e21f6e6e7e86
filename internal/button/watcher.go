package button

// Events is the set of logical edges observed by one Watcher poll.
type Events uint8

const (
	LeftPressed Events = 1 << iota
	RightPressed
	// RightQuick marks a right press that landed within the quick-press
	// window of the previous one. The game engine chains on these.
	RightQuick
	// GameGesture fires when enough quick right presses arrive while the
	// left button is held.
	GameGesture
)

// Has reports whether any event in mask is set.
func (e Events) Has(mask Events) bool { return e&mask != 0 }

// Watcher polls both debouncers and derives press-timing gestures from
// the awake clock. Timestamps are awake milliseconds, so they reset
// with the clock on every wake.
type Watcher struct {
	Left  *Debouncer
	Right *Debouncer

	clock  func() uint64
	window uint64
	need   int

	quick     int
	lastRight uint64
	haveLast  bool
}

// NewWatcher wires gesture detection over the two debouncers. window is
// the quick-press window in milliseconds, need the number of chained
// presses that triggers the game gesture.
func NewWatcher(left, right *Debouncer, clock func() uint64, windowMS uint64, need int) *Watcher {
	return &Watcher{Left: left, Right: right, clock: clock, window: windowMS, need: need}
}

// Poll samples both buttons once and returns the edges seen.
func (w *Watcher) Poll() Events {
	w.Left.Poll()
	w.Right.Poll()

	var ev Events
	if w.Left.PressedEdge() {
		ev |= LeftPressed
	}
	if w.Right.PressedEdge() {
		ev |= RightPressed
		now := w.clock()
		quick := w.haveLast && now >= w.lastRight && now-w.lastRight <= w.window
		if quick {
			ev |= RightQuick
		}
		// Timestamp records unconditionally; the gesture counter only
		// advances while the left button is held.
		w.lastRight, w.haveLast = now, true
		if w.Left.IsPressed() {
			if quick {
				w.quick++
			} else {
				w.quick = 1
			}
			if w.quick >= w.need {
				ev |= GameGesture
				w.quick = 0
			}
		} else {
			w.quick = 0
		}
	}
	return ev
}

// AnyPending reports whether either button is mid-guard-interval.
func (w *Watcher) AnyPending() bool { return w.Left.Pending() || w.Right.Pending() }

// Rearm resets both debouncers and the gesture history after a wake.
func (w *Watcher) Rearm() {
	w.Left.Rearm()
	w.Right.Rearm()
	w.quick = 0
	w.haveLast = false
	w.lastRight = 0
}
