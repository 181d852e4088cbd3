package core

import (
	"time"

	"github.com/librescoot/librefsm"

	"robot-service/internal/command"
	"robot-service/internal/messaging"
	"robot-service/internal/subsystems"
	"robot-service/internal/types"
)

// MessagingClient defines the interface for Redis messaging operations needed by RobotSystem
type MessagingClient interface {
	SetCallbacks(callbacks messaging.Callbacks)
	Connect() error
	StartListening() error
	Close() error

	// Settings
	GetSettings() (map[string]string, error)

	// Telemetry
	PublishTelemetry(t types.Telemetry) error
	PublishMode(mode types.RobotMode) error

	// Events
	PublishEvent(event string, fields map[string]interface{}) error
}

// HardwareIO defines the interface for hardware I/O operations needed by RobotSystem
type HardwareIO interface {
	Initialize() error
	Cleanup()

	Motor(name string) (subsystems.Motor, error)
	DigitalOutput(name string) (subsystems.DigitalOutput, error)
	DigitalInput(name string) (subsystems.DigitalInput, error)
	Joystick(port int) (types.Joystick, error)

	// StopAllMotors bypasses the scheduler; used on emergency stop
	StopAllMotors()
}

// Monitor observes the scheduler and the control loop.
type Monitor interface {
	command.Observer
	ObserveCycle(d time.Duration, overrun bool)
	SetMode(mode types.RobotMode)
}

// stateMachine is the part of the librefsm machine RobotSystem drives after start.
type stateMachine interface {
	SendSync(event librefsm.Event) error
	CurrentState() librefsm.StateID
}
