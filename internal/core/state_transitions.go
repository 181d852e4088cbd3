package core

import (
	"errors"

	"github.com/librescoot/librefsm"

	"robot-service/internal/fsm"
	"robot-service/internal/types"
)

// Mode returns the current robot mode.
func (s *RobotSystem) Mode() types.RobotMode {
	s.modeMu.RLock()
	defer s.modeMu.RUnlock()
	return s.mode
}

func (s *RobotSystem) setMode(mode types.RobotMode) {
	s.modeMu.Lock()
	s.mode = mode
	s.modeMu.Unlock()

	if s.monitor != nil {
		s.monitor.SetMode(mode)
	}
}

// sendEvent sends an event to the FSM
func (s *RobotSystem) sendEvent(event librefsm.EventID) error {
	if s.machine == nil {
		return errors.New("mode machine not started")
	}
	return s.machine.SendSync(librefsm.Event{ID: event})
}

// getCurrentStateID returns the current FSM state ID
func (s *RobotSystem) getCurrentStateID() librefsm.StateID {
	if s.machine != nil {
		return s.machine.CurrentState()
	}
	return fsm.StateDisabled
}
