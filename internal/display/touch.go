// internal/display/touch.go
package display

// Touch timing in UI ticks (30 Hz).
const (
	PressSamples  = 3
	SwipeSamples  = 6
	HoldSamples   = 30
	RepeatSamples = 6

	jitterLimit = 10
	swipeStep   = 5
	bufferLen   = 10
)

// Pointer is the touch panel.
type Pointer interface {
	Poll() (x, y int, down bool)
}

// NoPointer never reports a touch.
type NoPointer struct{}

func (NoPointer) Poll() (int, int, bool) { return 0, 0, false }

// Gesture is what the tracker recognised on a sample.
type Gesture uint8

const (
	NoGesture Gesture = iota
	Press             // stable touch-down
	SwipeDown
	SwipeUp
	Hold
	Repeat
	Release
)

func (g Gesture) String() string {
	switch g {
	case Press:
		return "press"
	case SwipeDown:
		return "swipe-down"
	case SwipeUp:
		return "swipe-up"
	case Hold:
		return "hold"
	case Repeat:
		return "repeat"
	case Release:
		return "release"
	}
	return "none"
}

// Touch is one recognised gesture.
type Touch struct {
	Gesture Gesture
	X, Y    int
	Samples int // samples held so far, or at release

	// Stable is set on Release when the touch-down was accepted.
	Stable bool
}

// TouchTracker debounces pointer samples into gestures.
type TouchTracker struct {
	samples int
	x, y    int
	bx, by  [bufferLen]int
}

// Sample feeds one poll of the pointer.
func (t *TouchTracker) Sample(x, y int, down bool) Touch {
	if !down {
		if t.samples == 0 {
			return Touch{}
		}
		ev := Touch{
			Gesture: Release,
			X:       t.x,
			Y:       t.y,
			Samples: t.samples,
			Stable:  t.samples >= PressSamples && t.stable(),
		}
		t.samples = 0
		return ev
	}

	t.samples++
	t.x, t.y = x, y
	if t.samples <= bufferLen {
		t.bx[t.samples-1] = x
		t.by[t.samples-1] = y
	}

	ev := Touch{X: x, Y: y, Samples: t.samples}
	switch {
	case t.samples == HoldSamples:
		ev.Gesture = Hold
	case t.samples == PressSamples:
		if t.stable() {
			ev.Gesture = Press
		}
	case t.samples == SwipeSamples:
		ev.Gesture = t.swipe()
	case t.samples > HoldSamples && t.samples%RepeatSamples == 0:
		ev.Gesture = Repeat
	}
	return ev
}

// stable reports whether the first three samples stayed within jitter.
func (t *TouchTracker) stable() bool {
	for i := 1; i < PressSamples; i++ {
		if abs(t.bx[i]-t.bx[i-1]) > jitterLimit || abs(t.by[i]-t.by[i-1]) > jitterLimit {
			return false
		}
	}
	return true
}

// swipe looks for a sustained vertical trend over samples 2-6.
func (t *TouchTracker) swipe() Gesture {
	down, up := true, true
	for i := 2; i < SwipeSamples; i++ {
		d := t.by[i] - t.by[i-1]
		if d < swipeStep {
			down = false
		}
		if d > -swipeStep {
			up = false
		}
	}
	switch {
	case down:
		return SwipeDown
	case up:
		return SwipeUp
	}
	return NoGesture
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
