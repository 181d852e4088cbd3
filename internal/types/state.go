package types

import "time"

type RobotMode string

const (
	ModeDisabled   RobotMode = "disabled"
	ModeAutonomous RobotMode = "autonomous"
	ModeTeleop     RobotMode = "teleop"
	ModeEStopped   RobotMode = "estopped"
)

// Telemetry is a point-in-time view of the control core handed to the
// publisher. It is built on the loop goroutine and never mutated afterwards.
type Telemetry struct {
	Mode           RobotMode
	Enabled        bool
	Cycle          uint64
	Timestamp      time.Time
	Commands       map[string]string // subsystem name -> owning command name, "" when idle
	Running        []string
	AutoSelected   string
	AutoOptions    []string
	DriveSelected  string
	DriveOptions   []string
	HeadingDegrees float64
}

// Joystick is a driver-station input device. Axes are indexed from 0 and
// scaled to [-1, 1]; buttons are indexed from 1.
type Joystick interface {
	Axis(i int) float64
	Button(i int) bool
	Connected() bool
}
