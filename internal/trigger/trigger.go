// Package trigger maps polled boolean inputs onto scheduler actions.
//
// A Trigger samples its source once per cycle, evaluates its bindings in
// registration order against that single sample, and only then remembers
// the sample as the previous value for edge detection.
package trigger

import (
	"robot-service/internal/command"
)

// Source is a boolean input sampled once per cycle.
type Source func() bool

// ButtonReader is the slice of an input device triggers need.
type ButtonReader interface {
	Button(idx int) bool
}

type edge int

const (
	onPressed edge = iota
	onReleased
	onHeld
)

type binding struct {
	on     edge
	action func()
}

type Trigger struct {
	scheduler *command.Scheduler
	source    Source
	previous  bool
	bindings  []binding
}

// New creates a trigger polled by s every cycle.
func New(s *command.Scheduler, src Source) *Trigger {
	t := &Trigger{scheduler: s, source: src}
	s.AddPoller(t)
	return t
}

// Button is a trigger on a numbered button of in.
func Button(s *command.Scheduler, in ButtonReader, idx int) *Trigger {
	return New(s, func() bool { return in.Button(idx) })
}

// Poll samples the source and fires the bindings for the observed edge.
func (t *Trigger) Poll() {
	current := t.source()
	pressed := !t.previous && current
	released := t.previous && !current

	for _, b := range t.bindings {
		switch {
		case b.on == onPressed && pressed,
			b.on == onReleased && released,
			b.on == onHeld && current:
			b.action()
		}
	}
	t.previous = current
}

func (t *Trigger) bind(on edge, action func()) *Trigger {
	t.bindings = append(t.bindings, binding{on: on, action: action})
	return t
}

// WhenPressed schedules cmd once on every rising edge.
func (t *Trigger) WhenPressed(cmd command.Command) *Trigger {
	return t.bind(onPressed, func() { t.scheduler.Schedule(cmd) })
}

// WhenReleased schedules cmd once on every falling edge.
func (t *Trigger) WhenReleased(cmd command.Command) *Trigger {
	return t.bind(onReleased, func() { t.scheduler.Schedule(cmd) })
}

// WhileHeld schedules cmd on the rising edge and cancels it on the falling
// edge. A command that already finished is left alone.
func (t *Trigger) WhileHeld(cmd command.Command) *Trigger {
	t.bind(onPressed, func() { t.scheduler.Schedule(cmd) })
	return t.bind(onReleased, func() { t.scheduler.Cancel(cmd) })
}

// WhileActiveContinuous keeps rescheduling cmd every cycle the trigger is
// held, so a command that finishes early restarts, and cancels it on release.
func (t *Trigger) WhileActiveContinuous(cmd command.Command) *Trigger {
	t.bind(onHeld, func() { t.scheduler.Schedule(cmd) })
	return t.bind(onReleased, func() { t.scheduler.Cancel(cmd) })
}

// ToggleWhenPressed alternates between scheduling and canceling cmd on each
// rising edge.
func (t *Trigger) ToggleWhenPressed(cmd command.Command) *Trigger {
	return t.bind(onPressed, func() {
		if t.scheduler.IsScheduled(cmd) {
			t.scheduler.Cancel(cmd)
			return
		}
		t.scheduler.Schedule(cmd)
	})
}

// CancelWhenPressed cancels cmd on every rising edge.
func (t *Trigger) CancelWhenPressed(cmd command.Command) *Trigger {
	return t.bind(onPressed, func() { t.scheduler.Cancel(cmd) })
}

// And returns a trigger active while both t and other sources are active.
// The composite samples the raw sources, not the edge state of t or other.
func (t *Trigger) And(other *Trigger) *Trigger {
	a, b := t.source, other.source
	return New(t.scheduler, func() bool { return a() && b() })
}

func (t *Trigger) Or(other *Trigger) *Trigger {
	a, b := t.source, other.source
	return New(t.scheduler, func() bool { return a() || b() })
}

func (t *Trigger) Negate() *Trigger {
	a := t.source
	return New(t.scheduler, func() bool { return !a() })
}
