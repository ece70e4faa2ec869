package builder

import "math"

// DefaultActivationDistance is the pointer travel, in pixels, needed before
// a press becomes a drag.
const DefaultActivationDistance = 8

// ContainerHighlight describes how the field area should be drawn while a
// gesture is in progress.
type ContainerHighlight int

const (
	HighlightNone  ContainerHighlight = iota
	HighlightArmed                    // a palette item is being dragged
	HighlightOver                     // a palette item hovers the field area
)

// Tracker is the short-lived context of one drag gesture. It references the
// dragged source by id only and forgets everything when the gesture ends.
type Tracker struct {
	ActivationDistance float64

	source    string
	originX   float64
	originY   float64
	pressed   bool
	activated bool
	over      string
}

// NewTracker returns a tracker with the given activation distance. A
// non-positive distance activates on the first move.
func NewTracker(distance float64) *Tracker {
	return &Tracker{ActivationDistance: distance}
}

// Begin records a pointer press on source at (x, y).
func (t *Tracker) Begin(source string, x, y float64) {
	t.reset()
	t.source = source
	t.originX, t.originY = x, y
	t.pressed = true
}

// Move reports the pointer at (x, y) and returns whether the gesture is an
// active drag.
func (t *Tracker) Move(x, y float64) bool {
	if !t.pressed {
		return false
	}
	if !t.activated && math.Hypot(x-t.originX, y-t.originY) >= t.ActivationDistance {
		t.activated = true
	}
	return t.activated
}

// Hover sets the drop target currently under the pointer; empty means none.
func (t *Tracker) Hover(target string) {
	if t.activated {
		t.over = target
	}
}

// Active returns the id being dragged while a drag is active.
func (t *Tracker) Active() (string, bool) {
	if !t.activated {
		return "", false
	}
	return t.source, true
}

// Highlight returns the container highlight for the current gesture.
func (t *Tracker) Highlight() ContainerHighlight {
	if !t.activated {
		return HighlightNone
	}
	src, ok := ParseSource(t.source)
	if !ok || !src.IsNew() {
		return HighlightNone
	}
	if t.over == ContainerID {
		return HighlightOver
	}
	return HighlightArmed
}

// End releases the pointer over the last hovered target. It returns false
// when the press never travelled far enough to count as a drag.
func (t *Tracker) End() (DragEnd, bool) {
	defer t.reset()
	if !t.activated {
		return DragEnd{}, false
	}
	return DragEnd{Active: t.source, Over: t.over}, true
}

// Cancel abandons the gesture.
func (t *Tracker) Cancel() {
	t.reset()
}

func (t *Tracker) reset() {
	distance := t.ActivationDistance
	*t = Tracker{ActivationDistance: distance}
}
