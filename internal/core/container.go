package core

import (
	"fmt"
	"time"

	"robot-service/internal/command"
	"robot-service/internal/commands"
	"robot-service/internal/config"
	"robot-service/internal/drive"
	"robot-service/internal/logger"
	"robot-service/internal/selector"
	"robot-service/internal/subsystems"
	"robot-service/internal/trigger"
	"robot-service/internal/types"
)

// Chooser labels
const (
	AutoDriveForward   = "Drive Forward"
	AutoShootLeft      = "Shoot Left Of Target"
	DriveFieldOriented = "Field Oriented Drive"
	DriveRobotRelative = "Default Drive"
)

// vision samples older than this read as no target
const visionMaxAge = 500 * time.Millisecond

// Container owns the robot's subsystems, commands, button bindings and
// choosers. It is built once at startup; everything it creates runs on the
// loop goroutine.
type Container struct {
	logger    *logger.Logger
	scheduler *command.Scheduler
	tuning    *config.Tuning

	Drive   *subsystems.Drive
	Intake  *subsystems.Intake
	Shooter *subsystems.Shooter
	Lift    *subsystems.Lift
	Spinner *subsystems.Spinner
	Heading *subsystems.Heading
	Vision  *subsystems.Vision

	driver   types.Joystick
	operator types.Joystick

	AutoChooser  *selector.Chooser
	DriveChooser *selector.Chooser
}

// NewContainer wires subsystems to the hardware and installs default
// commands and bindings on s. tuning is read by commands every cycle and
// must only be written from the loop goroutine.
func NewContainer(cfg *config.Config, io HardwareIO, s *command.Scheduler, tuning *config.Tuning, clock commands.Clock, l *logger.Logger) (*Container, error) {
	c := &Container{
		logger:    l,
		scheduler: s,
		tuning:    tuning,
		Heading:   subsystems.NewHeading(tuning.GyroClockwise),
		Vision:    subsystems.NewVision(visionMaxAge),
	}

	motors := make(map[string]subsystems.Motor)
	for _, name := range []string{"front_left", "front_right", "rear_left", "rear_right", "intake", "flywheel", "indexer", "lift", "spinner"} {
		m, err := io.Motor(name)
		if err != nil {
			return nil, fmt.Errorf("failed to get motor %s: %w", name, err)
		}
		motors[name] = m
	}
	brake, err := io.DigitalOutput("lift_brake")
	if err != nil {
		return nil, fmt.Errorf("failed to get lift brake: %w", err)
	}
	limit, err := io.DigitalInput("lift_lower_limit")
	if err != nil {
		return nil, fmt.Errorf("failed to get lift limit switch: %w", err)
	}

	c.Drive = subsystems.NewDrive(motors["front_left"], motors["front_right"], motors["rear_left"], motors["rear_right"], l)
	c.Drive.SetMaxOutput(tuning.DriveMaxOutput)
	c.Intake = subsystems.NewIntake(motors["intake"], l)
	c.Shooter = subsystems.NewShooter(motors["flywheel"], motors["indexer"], l)
	c.Lift = subsystems.NewLift(motors["lift"], brake, limit, l)
	c.Spinner = subsystems.NewSpinner(motors["spinner"], l)

	c.driver = c.joystick(io, cfg.Controls.DriverPort)
	c.operator = c.joystick(io, cfg.Controls.OperatorPort)

	if err := c.configureChoosers(cfg, clock); err != nil {
		return nil, err
	}
	if err := c.configureDefaults(cfg); err != nil {
		return nil, err
	}
	c.configureBindings(cfg, clock)

	return c, nil
}

func (c *Container) joystick(io HardwareIO, port int) types.Joystick {
	js, err := io.Joystick(port)
	if err != nil {
		c.logger.Warnf("No joystick on port %d, reading it as released: %v", port, err)
		return noJoystick{}
	}
	return js
}

// axis reads a joystick axis with the deadband applied.
func (c *Container) axis(js types.Joystick, idx int, invert bool) commands.Value {
	return func() float64 {
		v := drive.ApplyDeadband(js.Axis(idx), c.tuning.Deadband)
		if invert {
			v = -v
		}
		return v
	}
}

func (c *Container) shotParams() commands.ShotParams {
	return commands.ShotParams{
		Flywheel:     c.tuning.FlywheelSpeed,
		Indexer:      c.tuning.IndexerSpeed,
		SpinUpCycles: c.tuning.SpinUpCycles,
	}
}

func (c *Container) aimParams() commands.AimParams {
	return commands.AimParams{
		AimKp:      c.tuning.AimKp,
		ApproachKp: c.tuning.ApproachKp,
		TargetArea: c.tuning.TargetArea,
		Tolerance:  c.tuning.AimTolerance,
	}
}

func (c *Container) configureChoosers(cfg *config.Config, clock commands.Clock) error {
	ctl := cfg.Controls
	forward := c.axis(c.driver, ctl.ForwardAxis, ctl.InvertForward)
	strafe := c.axis(c.driver, ctl.StrafeAxis, false)
	rotation := c.axis(c.driver, ctl.RotationAxis, false)

	c.DriveChooser = selector.New("drive")
	if err := c.DriveChooser.SetDefault(DriveFieldOriented,
		commands.NewFieldOrientedDrive(c.Drive, forward, strafe, rotation, c.Heading.Radians)); err != nil {
		return err
	}
	if err := c.DriveChooser.AddOption(DriveRobotRelative,
		commands.NewDefaultDrive(c.Drive, forward, strafe, rotation)); err != nil {
		return err
	}

	auto := cfg.Autonomous
	c.AutoChooser = selector.New("auto")
	if err := c.AutoChooser.SetDefault(AutoDriveForward,
		commands.NewDriveForwardTime(c.Drive, auto.DriveForwardTime, auto.DriveForwardSpeed, clock)); err != nil {
		return err
	}
	return c.AutoChooser.AddOption(AutoShootLeft,
		commands.NewAutoDriveToLineAndShoot(c.Drive, c.Shooter, auto.DriveForwardTime, auto.DriveForwardSpeed,
			c.shotParams, auto.ShootTime, clock))
}

// configureDefaults installs the drive mode selected right now. Later
// selections on the drive chooser do not replace it.
func (c *Container) configureDefaults(cfg *config.Config) error {
	driveDefault := c.DriveChooser.Selected()
	if err := c.scheduler.Register(c.Drive, driveDefault); err != nil {
		return err
	}
	c.logger.Infof("Drive mode: %s", c.DriveChooser.SelectedLabel())

	lift := commands.NewLiftSafely(c.Lift,
		func() float64 { return c.operator.Axis(cfg.Controls.LiftAxis) },
		func() float64 { return c.tuning.LiftDeadband })
	if err := c.scheduler.Register(c.Lift, lift); err != nil {
		return err
	}

	for _, sub := range []command.Subsystem{c.Intake, c.Shooter, c.Spinner} {
		if err := c.scheduler.Register(sub, nil); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) configureBindings(cfg *config.Config, clock commands.Clock) {
	ctl := cfg.Controls
	s := c.scheduler

	trigger.Button(s, c.driver, ctl.IntakeButton).
		WhenPressed(commands.NewIntake(c.Intake, func() float64 { return c.tuning.IntakeSpeed })).
		WhenReleased(commands.NewIntake(c.Intake, commands.Const(0)))

	trigger.Button(s, c.driver, ctl.ShootButton).
		WhileHeld(commands.NewShootWithIndex(c.Shooter, c.shotParams, 0, clock))

	trigger.Button(s, c.driver, ctl.ZeroHeadingButton).
		WhenPressed(command.Instant("ZeroHeading", c.Heading.Zero))

	trigger.Button(s, c.driver, ctl.AimButton).
		WhileHeld(commands.NewDriveToTarget(c.Drive, c.Vision, c.aimParams))

	trigger.Button(s, c.driver, ctl.AimAndShootButton).
		WhileHeld(command.MustSequentialGroup("AimAndShoot",
			commands.NewDriveToTarget(c.Drive, c.Vision, c.aimParams),
			commands.NewShootWithIndex(c.Shooter, c.shotParams, 0, clock),
		))

	spinner := func() float64 { return c.tuning.SpinnerSpeed }
	trigger.Button(s, c.operator, ctl.SpinReverseButton).
		WhileHeld(commands.NewSpin(c.Spinner, func() float64 { return -spinner() }))
	trigger.Button(s, c.operator, ctl.SpinForwardButton).
		WhileHeld(commands.NewSpin(c.Spinner, spinner))
}

// AutonomousCommand returns the autonomous chooser's current selection.
func (c *Container) AutonomousCommand() command.Command {
	return c.AutoChooser.Selected()
}

// ApplyTuning pushes tunables that subsystems cache.
func (c *Container) ApplyTuning(t config.Tuning) {
	c.Drive.SetMaxOutput(t.DriveMaxOutput)
	c.Heading.SetClockwise(t.GyroClockwise)
}

// StopOutputs parks every mechanism.
func (c *Container) StopOutputs() {
	c.Drive.Stop()
	c.Intake.Stop()
	c.Shooter.Stop()
	c.Spinner.Stop()
	c.Lift.Hold()
}

// DriverConnected reports whether the primary joystick is present.
func (c *Container) DriverConnected() bool {
	return c.driver.Connected()
}

type noJoystick struct{}

func (noJoystick) Axis(int) float64 { return 0 }
func (noJoystick) Button(int) bool  { return false }
func (noJoystick) Connected() bool  { return false }
