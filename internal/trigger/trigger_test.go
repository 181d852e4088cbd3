package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"robot-service/internal/command"
)

type sub struct{ name string }

func (s *sub) Name() string { return s.name }

type countCmd struct {
	command.Base
	inits, ends, interrupts int
	done                    bool
}

func newCountCmd(name string, reqs ...command.Subsystem) *countCmd {
	return &countCmd{Base: command.NewBase(name, reqs...)}
}

func (c *countCmd) Initialize()      { c.inits++ }
func (c *countCmd) IsFinished() bool { return c.done }
func (c *countCmd) End(interrupted bool) {
	c.ends++
	if interrupted {
		c.interrupts++
	}
}

// button is a scripted input.
type button struct{ pressed map[int]bool }

func (b *button) Button(idx int) bool { return b.pressed[idx] }

func cycle(s *command.Scheduler, in *button, idx int, v bool) {
	in.pressed[idx] = v
	s.Run()
}

func TestWhenPressedFiresOncePerRisingEdge(t *testing.T) {
	s := command.NewScheduler(nil)
	in := &button{pressed: map[int]bool{}}
	cmd := newCountCmd("intake")
	cmd.done = true
	Button(s, in, 1).WhenPressed(cmd)

	cycle(s, in, 1, false)
	assert.Zero(t, cmd.inits)

	for i := 0; i < 10; i++ {
		cycle(s, in, 1, true)
	}
	assert.Equal(t, 1, cmd.inits, "held state must not re-fire")

	cycle(s, in, 1, false)
	cycle(s, in, 1, true)
	assert.Equal(t, 2, cmd.inits)
}

func TestWhenReleased(t *testing.T) {
	s := command.NewScheduler(nil)
	in := &button{pressed: map[int]bool{}}
	pressed := newCountCmd("on")
	released := newCountCmd("off")
	Button(s, in, 1).WhenPressed(pressed).WhenReleased(released)

	cycle(s, in, 1, true)
	assert.Equal(t, 1, pressed.inits)
	assert.Zero(t, released.inits)

	cycle(s, in, 1, true)
	cycle(s, in, 1, false)
	assert.Equal(t, 1, released.inits)
	cycle(s, in, 1, false)
	assert.Equal(t, 1, released.inits)
}

func TestWhileHeld(t *testing.T) {
	s := command.NewScheduler(nil)
	in := &button{pressed: map[int]bool{}}
	shooter := &sub{"shooter"}
	cmd := newCountCmd("shoot", shooter)
	Button(s, in, 2).WhileHeld(cmd)

	cycle(s, in, 2, true)
	assert.True(t, s.IsScheduled(cmd))
	cycle(s, in, 2, true)
	cycle(s, in, 2, true)
	assert.Equal(t, 1, cmd.inits)

	cycle(s, in, 2, false)
	assert.False(t, s.IsScheduled(cmd))
	assert.Equal(t, 1, cmd.interrupts)
}

func TestWhileHeldAfterNaturalFinish(t *testing.T) {
	s := command.NewScheduler(nil)
	in := &button{pressed: map[int]bool{}}
	cmd := newCountCmd("short")
	Button(s, in, 2).WhileHeld(cmd)

	cycle(s, in, 2, true)
	cmd.done = true
	cycle(s, in, 2, true)
	assert.False(t, s.IsScheduled(cmd))
	assert.Equal(t, 1, cmd.ends)

	cycle(s, in, 2, false)
	assert.Equal(t, 1, cmd.ends, "release must not end a finished command again")
	assert.Zero(t, cmd.interrupts)
	assert.Equal(t, 1, cmd.inits, "no restart while still held")
}

func TestWhileActiveContinuousRestarts(t *testing.T) {
	s := command.NewScheduler(nil)
	in := &button{pressed: map[int]bool{}}
	cmd := newCountCmd("pulse")
	cmd.done = true
	Button(s, in, 3).WhileActiveContinuous(cmd)

	cycle(s, in, 3, true)
	cycle(s, in, 3, true)
	cycle(s, in, 3, true)
	assert.Equal(t, 3, cmd.inits)
}

func TestBindingsFireInRegistrationOrder(t *testing.T) {
	s := command.NewScheduler(nil)
	in := &button{pressed: map[int]bool{}}
	drive := &sub{"drive"}
	first := newCountCmd("first", drive)
	second := newCountCmd("second", drive)
	Button(s, in, 1).WhenPressed(first).WhenPressed(second)

	cycle(s, in, 1, true)
	assert.Equal(t, 1, first.inits)
	assert.Equal(t, 1, first.interrupts, "second claims drive after first")
	assert.True(t, s.IsScheduled(second))
}

func TestToggleAndCancelWhenPressed(t *testing.T) {
	s := command.NewScheduler(nil)
	in := &button{pressed: map[int]bool{}}
	spin := newCountCmd("spin")
	Button(s, in, 5).ToggleWhenPressed(spin)
	Button(s, in, 6).CancelWhenPressed(spin)

	cycle(s, in, 5, true)
	assert.True(t, s.IsScheduled(spin))
	cycle(s, in, 5, false)
	cycle(s, in, 5, true)
	assert.False(t, s.IsScheduled(spin))

	cycle(s, in, 5, false)
	cycle(s, in, 5, true)
	assert.True(t, s.IsScheduled(spin))
	cycle(s, in, 6, true)
	assert.False(t, s.IsScheduled(spin))
}

func TestComposition(t *testing.T) {
	s := command.NewScheduler(nil)
	in := &button{pressed: map[int]bool{}}
	a := Button(s, in, 1)
	b := Button(s, in, 2)
	both := newCountCmd("both")
	either := newCountCmd("either")
	neither := newCountCmd("neither")
	a.And(b).WhileHeld(both)
	a.Or(b).WhileHeld(either)
	a.Negate().WhenPressed(neither)

	s.Run()
	assert.Equal(t, 1, neither.inits)

	cycle(s, in, 1, true)
	assert.False(t, s.IsScheduled(both))
	assert.True(t, s.IsScheduled(either))

	cycle(s, in, 2, true)
	assert.True(t, s.IsScheduled(both))
}

func TestTriggerPolledWhileDisabledDoesNotFireLate(t *testing.T) {
	s := command.NewScheduler(nil)
	in := &button{pressed: map[int]bool{}}
	cmd := newCountCmd("intake")
	Button(s, in, 1).WhenPressed(cmd)

	s.SetEnabled(false)
	cycle(s, in, 1, true)
	s.SetEnabled(true)
	cycle(s, in, 1, true)
	assert.Zero(t, cmd.inits)
}
