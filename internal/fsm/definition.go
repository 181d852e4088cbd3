package fsm

import (
	"time"

	"github.com/librescoot/librefsm"
)

// NewDefinition creates the robot mode FSM definition. Autonomous falls
// back to disabled after autoPeriod. Estopped has no way out; the process
// must be restarted.
func NewDefinition(actions Actions, autoPeriod time.Duration) *librefsm.Definition {
	return librefsm.NewDefinition().
		State(StateDisabled,
			librefsm.WithOnEnter(actions.EnterDisabled),
		).
		State(StateAutonomous,
			librefsm.WithTimeout(autoPeriod, EvAutonomousTimeout, actions.OnAutonomousTimeout),
			librefsm.WithOnEnter(actions.EnterAutonomous),
			librefsm.WithOnExit(actions.ExitAutonomous),
		).
		State(StateTeleop,
			librefsm.WithOnEnter(actions.EnterTeleop),
		).
		State(StateEStopped,
			librefsm.WithOnEnter(actions.EnterEStopped),
		).

		// === Transitions ===

		// From Disabled
		Transition(StateDisabled, EvAutonomous, StateAutonomous).
		Transition(StateDisabled, EvTeleop, StateTeleop,
			librefsm.WithGuard(actions.IsDriverConnected),
		).
		Transition(StateDisabled, EvEStop, StateEStopped).

		// From Autonomous
		Transition(StateAutonomous, EvAutonomousTimeout, StateDisabled).
		Transition(StateAutonomous, EvDisable, StateDisabled).
		Transition(StateAutonomous, EvTeleop, StateTeleop,
			librefsm.WithGuard(actions.IsDriverConnected),
		).
		Transition(StateAutonomous, EvEStop, StateEStopped).

		// From Teleop
		Transition(StateTeleop, EvDisable, StateDisabled).
		Transition(StateTeleop, EvEStop, StateEStopped).

		// Initial state
		Initial(StateDisabled)
}
