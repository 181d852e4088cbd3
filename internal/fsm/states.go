package fsm

import "github.com/librescoot/librefsm"

// Robot states
const (
	StateDisabled   librefsm.StateID = "disabled"
	StateAutonomous librefsm.StateID = "autonomous"
	StateTeleop     librefsm.StateID = "teleop"
	StateEStopped   librefsm.StateID = "estopped"
)

// Robot events
const (
	// External commands (from Redis)
	EvDisable    librefsm.EventID = "disable"
	EvAutonomous librefsm.EventID = "autonomous"
	EvTeleop     librefsm.EventID = "teleop"
	EvEStop      librefsm.EventID = "estop"

	// Timer events
	EvAutonomousTimeout librefsm.EventID = "autonomous-timeout"
)
