package commands

import (
	"time"

	"robot-service/internal/command"
	"robot-service/internal/drive"
	"robot-service/internal/subsystems"
)

// Intake sets the roller speed once and finishes; the roller keeps that
// speed until the next Intake.
type Intake struct {
	command.Base
	intake *subsystems.Intake
	speed  Value
}

func NewIntake(in *subsystems.Intake, speed Value) *Intake {
	return &Intake{
		Base:   command.NewBase("Intake", in),
		intake: in,
		speed:  speed,
	}
}

func (c *Intake) Initialize()      { c.intake.SetSpeed(c.speed()) }
func (c *Intake) IsFinished() bool { return true }

// ShotParams configure ShootWithIndex.
type ShotParams struct {
	Flywheel     float64
	Indexer      float64
	SpinUpCycles int // cycles of flywheel only before feeding
}

// ShootWithIndex spins up the flywheel, then feeds with the indexer. With
// a zero duration it runs until interrupted.
type ShootWithIndex struct {
	command.Base
	shooter  *subsystems.Shooter
	params   func() ShotParams
	duration time.Duration
	clock    Clock

	active  ShotParams
	cycles  int
	started time.Time
}

func NewShootWithIndex(s *subsystems.Shooter, params func() ShotParams, duration time.Duration, clock Clock) *ShootWithIndex {
	if clock == nil {
		clock = time.Now
	}
	return &ShootWithIndex{
		Base:     command.NewBase("ShootWithIndex", s),
		shooter:  s,
		params:   params,
		duration: duration,
		clock:    clock,
	}
}

func (c *ShootWithIndex) Initialize() {
	c.active = c.params()
	c.cycles = 0
	c.started = c.clock()
	c.shooter.SetFlywheel(c.active.Flywheel)
	c.shooter.SetIndexer(0)
}

func (c *ShootWithIndex) Execute() {
	c.cycles++
	if c.cycles >= c.active.SpinUpCycles {
		c.shooter.SetIndexer(c.active.Indexer)
	}
}

func (c *ShootWithIndex) IsFinished() bool {
	return c.duration > 0 && c.clock().Sub(c.started) >= c.duration
}

func (c *ShootWithIndex) End(bool) { c.shooter.Stop() }

// Spin runs the spinner at a fixed speed while scheduled.
type Spin struct {
	command.Base
	spinner *subsystems.Spinner
	speed   Value
}

func NewSpin(s *subsystems.Spinner, speed Value) *Spin {
	return &Spin{
		Base:    command.NewBase("Spin", s),
		spinner: s,
		speed:   speed,
	}
}

func (c *Spin) Execute() { c.spinner.SetSpeed(c.speed()) }
func (c *Spin) End(bool) { c.spinner.Stop() }

// LiftSafely follows an axis with the lift, holding on the brake inside
// the deadband. It is the lift's default command.
type LiftSafely struct {
	command.Base
	lift     *subsystems.Lift
	axis     Value
	deadband Value
}

func NewLiftSafely(l *subsystems.Lift, axis, deadband Value) *LiftSafely {
	return &LiftSafely{
		Base:     command.NewBase("LiftSafely", l),
		lift:     l,
		axis:     axis,
		deadband: deadband,
	}
}

func (c *LiftSafely) Initialize() { c.lift.Hold() }

func (c *LiftSafely) Execute() {
	c.lift.Move(drive.ApplyDeadband(c.axis(), c.deadband()))
}

func (c *LiftSafely) End(bool) { c.lift.Hold() }

// NewAutoDriveToLineAndShoot drives off the line for driveTime, then
// shoots for shootTime.
func NewAutoDriveToLineAndShoot(d *subsystems.Drive, s *subsystems.Shooter, driveTime time.Duration, driveSpeed float64, shot func() ShotParams, shootTime time.Duration, clock Clock) *command.SequentialGroup {
	return command.MustSequentialGroup("AutoDriveToLineAndShoot",
		NewDriveForwardTime(d, driveTime, driveSpeed, clock),
		NewShootWithIndex(s, shot, shootTime, clock),
	)
}
