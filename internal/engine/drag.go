package engine

// DragState is the state of the seek-control drag state machine.
type DragState int

const (
	DragIdle DragState = iota
	DragDragging
)

func (s DragState) String() string {
	if s == DragDragging {
		return "dragging"
	}
	return "idle"
}

// dragSession exists only while the user holds the seek control.
type dragSession struct {
	held float64
}

// DragController decides which position the presentation shows. While a drag
// session is live, backend positions are not forwarded and the user's value
// is shown instead.
type DragController struct {
	session *dragSession
	shown   float64
	show    func(seconds float64)
	seek    func(seconds float64)
}

// NewDragController creates an idle controller. show receives every value to
// display; seek receives the final value of each released drag.
func NewDragController(show, seek func(seconds float64)) *DragController {
	return &DragController{show: show, seek: seek}
}

// State returns the current state.
func (d *DragController) State() DragState {
	if d.session != nil {
		return DragDragging
	}
	return DragIdle
}

// Dragging reports whether a drag session is live.
func (d *DragController) Dragging() bool {
	return d.session != nil
}

// Shown returns the last value sent to the presentation.
func (d *DragController) Shown() float64 {
	return d.shown
}

// Start opens a drag session. It returns false if one is already live.
func (d *DragController) Start() bool {
	if d.session != nil {
		return false
	}
	d.session = &dragSession{held: d.shown}
	return true
}

// Move records the user's value and displays it. No seek is requested.
func (d *DragController) Move(seconds float64) bool {
	if d.session == nil {
		return false
	}
	d.session.held = seconds
	d.display(seconds)
	return true
}

// Release closes the session and requests exactly one seek to the held value.
func (d *DragController) Release() bool {
	if d.session == nil {
		return false
	}
	held := d.session.held
	d.session = nil
	d.seek(held)
	return true
}

// Cancel closes the session without seeking and shows the authoritative
// position again.
func (d *DragController) Cancel(authoritative float64) bool {
	if d.session == nil {
		return false
	}
	d.session = nil
	d.display(authoritative)
	return true
}

// Reset drops any session without seeking or displaying. Used on track
// switches, where the following position update repaints the control.
func (d *DragController) Reset() {
	d.session = nil
}

// Forward receives a position from the model. It reaches the presentation
// unchanged when idle; while dragging the held value is repeated instead.
func (d *DragController) Forward(seconds float64) {
	if d.session != nil {
		d.display(d.session.held)
		return
	}
	d.display(seconds)
}

func (d *DragController) display(seconds float64) {
	d.shown = seconds
	d.show(seconds)
}
