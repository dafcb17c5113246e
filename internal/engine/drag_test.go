package engine

import (
	"reflect"
	"testing"
)

type dragRecorder struct {
	shown []float64
	seeks []float64
}

func newDragRecorder() (*dragRecorder, *DragController) {
	r := &dragRecorder{}
	d := NewDragController(
		func(v float64) { r.shown = append(r.shown, v) },
		func(v float64) { r.seeks = append(r.seeks, v) },
	)
	return r, d
}

func TestDragForwardsWhenIdle(t *testing.T) {
	r, d := newDragRecorder()
	d.Forward(1)
	d.Forward(2)

	if !reflect.DeepEqual(r.shown, []float64{1, 2}) {
		t.Errorf("shown = %v", r.shown)
	}
	if d.State() != DragIdle {
		t.Errorf("State() = %v", d.State())
	}
}

func TestDragHoldsValue(t *testing.T) {
	r, d := newDragRecorder()
	d.Forward(30)

	if !d.Start() {
		t.Fatal("Start() = false")
	}
	d.Forward(31)
	d.Forward(32)
	d.Move(60)
	d.Forward(33)

	want := []float64{30, 30, 30, 60, 60}
	if !reflect.DeepEqual(r.shown, want) {
		t.Errorf("shown = %v, want %v", r.shown, want)
	}
	if len(r.seeks) != 0 {
		t.Errorf("seek requested during drag: %v", r.seeks)
	}
}

func TestDragReleaseSeeksOnce(t *testing.T) {
	r, d := newDragRecorder()
	d.Start()
	d.Move(10)
	d.Move(20)
	d.Move(40)

	if !d.Release() {
		t.Fatal("Release() = false")
	}
	if d.Release() {
		t.Error("second Release() = true")
	}
	if !reflect.DeepEqual(r.seeks, []float64{40}) {
		t.Errorf("seeks = %v, want [40]", r.seeks)
	}
}

func TestDragReleaseWithoutMove(t *testing.T) {
	r, d := newDragRecorder()
	d.Forward(12)
	d.Start()
	d.Release()

	if !reflect.DeepEqual(r.seeks, []float64{12}) {
		t.Errorf("seeks = %v, want [12]", r.seeks)
	}
}

func TestDragCancel(t *testing.T) {
	r, d := newDragRecorder()
	d.Forward(30)
	d.Start()
	d.Move(90)

	if !d.Cancel(31) {
		t.Fatal("Cancel() = false")
	}
	if len(r.seeks) != 0 {
		t.Errorf("seeks = %v, want none", r.seeks)
	}
	if d.Shown() != 31 {
		t.Errorf("Shown() = %v, want 31", d.Shown())
	}
	if d.Dragging() {
		t.Error("still dragging after Cancel")
	}
}

func TestDragInvalidTransitions(t *testing.T) {
	r, d := newDragRecorder()

	if d.Move(5) {
		t.Error("Move() while idle = true")
	}
	if d.Release() {
		t.Error("Release() while idle = true")
	}
	if d.Cancel(0) {
		t.Error("Cancel() while idle = true")
	}
	if !d.Start() || d.Start() {
		t.Error("Start() should succeed once and then fail")
	}
	if len(r.shown) != 0 || len(r.seeks) != 0 {
		t.Errorf("invalid transitions had effects: shown=%v seeks=%v", r.shown, r.seeks)
	}
}

func TestDragReset(t *testing.T) {
	r, d := newDragRecorder()
	d.Start()
	d.Move(50)
	d.Reset()

	if d.Dragging() {
		t.Error("still dragging after Reset")
	}
	if d.Release() {
		t.Error("Release() after Reset = true")
	}
	if len(r.seeks) != 0 {
		t.Errorf("seeks = %v, want none", r.seeks)
	}
}
