// Package commands holds the robot's commands: teleop drive modes, the
// mechanism commands bound to buttons, and the autonomous routines.
package commands

import (
	"math"
	"time"

	"robot-service/internal/command"
	"robot-service/internal/drive"
	"robot-service/internal/subsystems"
)

// Value supplies a number sampled when a command needs it, typically a
// joystick axis or a tunable.
type Value func() float64

func Const(v float64) Value { return func() float64 { return v } }

// Clock returns the current time. Commands with a duration take one so
// tests can step time.
type Clock func() time.Time

// DefaultDrive drives robot-relative from three axes until interrupted.
type DefaultDrive struct {
	command.Base
	drive                     *subsystems.Drive
	forward, strafe, rotation Value
}

func NewDefaultDrive(d *subsystems.Drive, forward, strafe, rotation Value) *DefaultDrive {
	return &DefaultDrive{
		Base:     command.NewBase("DefaultDrive", d),
		drive:    d,
		forward:  forward,
		strafe:   strafe,
		rotation: rotation,
	}
}

func (c *DefaultDrive) Execute() {
	c.drive.DriveCartesian(c.forward(), c.strafe(), c.rotation())
}

func (c *DefaultDrive) End(bool) { c.drive.Stop() }

// FieldOrientedDrive drives relative to the field: the axes are rotated by
// the robot heading every cycle.
type FieldOrientedDrive struct {
	command.Base
	drive                     *subsystems.Drive
	heading                   func() float64
	forward, strafe, rotation Value
}

// NewFieldOrientedDrive takes heading in radians, counter-clockwise positive.
func NewFieldOrientedDrive(d *subsystems.Drive, forward, strafe, rotation Value, heading func() float64) *FieldOrientedDrive {
	return &FieldOrientedDrive{
		Base:     command.NewBase("FieldOrientedDrive", d),
		drive:    d,
		heading:  heading,
		forward:  forward,
		strafe:   strafe,
		rotation: rotation,
	}
}

func (c *FieldOrientedDrive) Execute() {
	s := drive.FieldOriented(c.forward(), c.strafe(), c.rotation(), c.heading())
	c.drive.DriveCartesian(s.Forward, s.Strafe, s.Rotation)
}

func (c *FieldOrientedDrive) End(bool) { c.drive.Stop() }

// DriveForwardTime drives straight at a fixed speed for a duration.
type DriveForwardTime struct {
	command.Base
	drive    *subsystems.Drive
	duration time.Duration
	speed    float64
	clock    Clock
	started  time.Time
}

func NewDriveForwardTime(d *subsystems.Drive, duration time.Duration, speed float64, clock Clock) *DriveForwardTime {
	if clock == nil {
		clock = time.Now
	}
	return &DriveForwardTime{
		Base:     command.NewBase("DriveForwardTime", d),
		drive:    d,
		duration: duration,
		speed:    speed,
		clock:    clock,
	}
}

func (c *DriveForwardTime) Initialize() { c.started = c.clock() }

func (c *DriveForwardTime) Execute() { c.drive.DriveCartesian(c.speed, 0, 0) }

func (c *DriveForwardTime) IsFinished() bool {
	return c.clock().Sub(c.started) >= c.duration
}

func (c *DriveForwardTime) End(bool) { c.drive.Stop() }

// AimParams are the proportional gains and goal of DriveToTarget.
type AimParams struct {
	AimKp      float64 // rotation per degree of tx
	ApproachKp float64 // forward per unit of area error
	TargetArea float64 // ta at shooting distance
	Tolerance  float64 // |tx| degrees counted as aligned
}

// DriveToTarget turns toward the vision target and closes in until the
// target is centered and large enough. Without a target it holds still.
type DriveToTarget struct {
	command.Base
	drive  *subsystems.Drive
	vision *subsystems.Vision
	params func() AimParams
}

func NewDriveToTarget(d *subsystems.Drive, v *subsystems.Vision, params func() AimParams) *DriveToTarget {
	return &DriveToTarget{
		Base:   command.NewBase("DriveToTarget", d),
		drive:  d,
		vision: v,
		params: params,
	}
}

func (c *DriveToTarget) Execute() {
	t := c.vision.Target()
	if !t.Valid {
		c.drive.DriveCartesian(0, 0, 0)
		return
	}
	p := c.params()
	rotation := p.AimKp * t.TX
	forward := 0.0
	if t.TA < p.TargetArea {
		forward = p.ApproachKp * (p.TargetArea - t.TA)
	}
	c.drive.DriveCartesian(forward, 0, rotation)
}

func (c *DriveToTarget) IsFinished() bool {
	t := c.vision.Target()
	if !t.Valid {
		return false
	}
	p := c.params()
	return math.Abs(t.TX) <= p.Tolerance && t.TA >= p.TargetArea
}

func (c *DriveToTarget) End(bool) { c.drive.Stop() }
