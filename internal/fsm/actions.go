package fsm

import "github.com/librescoot/librefsm"

// Actions defines the interface for robot mode machine actions.
// RobotSystem implements this interface to handle state entry/exit
// and provide guards for conditional transitions.
type Actions interface {
	// State entry actions
	EnterDisabled(c *librefsm.Context) error
	EnterAutonomous(c *librefsm.Context) error
	EnterTeleop(c *librefsm.Context) error
	EnterEStopped(c *librefsm.Context) error

	// State exit actions
	ExitAutonomous(c *librefsm.Context) error

	// Guards for conditional transitions
	IsDriverConnected(c *librefsm.Context) bool

	// Transition actions
	OnAutonomousTimeout(c *librefsm.Context) error
}
