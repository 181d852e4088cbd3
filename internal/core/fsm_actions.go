package core

import (
	"context"

	"github.com/librescoot/librefsm"

	"robot-service/internal/fsm"
	"robot-service/internal/types"
)

// Ensure RobotSystem implements fsm.Actions
var _ fsm.Actions = (*RobotSystem)(nil)

// stateIDToMode converts librefsm StateID to types.RobotMode
func stateIDToMode(id librefsm.StateID) types.RobotMode {
	switch id {
	case fsm.StateDisabled:
		return types.ModeDisabled
	case fsm.StateAutonomous:
		return types.ModeAutonomous
	case fsm.StateTeleop:
		return types.ModeTeleop
	case fsm.StateEStopped:
		return types.ModeEStopped
	default:
		return types.RobotMode(string(id))
	}
}

// initFSM initializes and starts the librefsm machine
func (s *RobotSystem) initFSM(ctx context.Context) error {
	def := fsm.NewDefinition(s, s.cfg.Autonomous.Period)
	machine, err := def.Build()
	if err != nil {
		return err
	}
	s.machine = machine

	machine.OnStateChange(func(from, to librefsm.StateID) {
		oldMode := stateIDToMode(from)
		newMode := stateIDToMode(to)
		s.setMode(newMode)

		s.logger.Infof("Mode transition: %s -> %s", oldMode, newMode)

		if err := s.redis.PublishMode(newMode); err != nil {
			s.logger.Errorf("Failed to publish mode: %v", err)
		}
		if err := s.redis.PublishEvent("mode", map[string]interface{}{
			"from": string(oldMode),
			"to":   string(newMode),
		}); err != nil {
			s.logger.Warnf("Failed to publish mode event: %v", err)
		}
	})

	if err := machine.Start(ctx); err != nil {
		return err
	}

	s.logger.Infof("librefsm state machine started")
	return nil
}

// === State Entry Actions ===
//
// Actions run on the machine's goroutine. Anything touching the scheduler
// is submitted to the loop.

func (s *RobotSystem) EnterDisabled(c *librefsm.Context) error {
	s.logger.Infof("Entering disabled")
	s.submit(func() {
		s.scheduler.SetEnabled(false)
		s.container.StopOutputs()
	})
	return nil
}

func (s *RobotSystem) EnterAutonomous(c *librefsm.Context) error {
	s.logger.Infof("Entering autonomous (period %v)", s.cfg.Autonomous.Period)
	s.submit(func() {
		s.scheduler.SetEnabled(true)

		cmd := s.container.AutonomousCommand()
		if cmd == nil {
			s.logger.Warnf("No autonomous command selected")
			return
		}
		s.logger.Infof("Scheduling autonomous command %s (%s)", s.container.AutoChooser.SelectedLabel(), cmd.Name())
		if !s.scheduler.Schedule(cmd) {
			s.logger.Warnf("Autonomous command %s was rejected", cmd.Name())
			return
		}
		s.autoCmd = cmd
	})
	return nil
}

func (s *RobotSystem) EnterTeleop(c *librefsm.Context) error {
	s.logger.Infof("Entering teleop")
	s.submit(func() {
		s.scheduler.SetEnabled(true)
	})
	return nil
}

// EnterEStopped latches the stop for the loop and parks the motors right
// away instead of waiting for the next cycle.
func (s *RobotSystem) EnterEStopped(c *librefsm.Context) error {
	s.logger.Errorf("Emergency stop")
	s.estopped.Store(true)
	s.io.StopAllMotors()
	return nil
}

// === State Exit Actions ===

func (s *RobotSystem) ExitAutonomous(c *librefsm.Context) error {
	s.submit(func() {
		if s.autoCmd == nil {
			return
		}
		if s.scheduler.IsScheduled(s.autoCmd) {
			s.logger.Infof("Cancelling autonomous command %s", s.autoCmd.Name())
			s.scheduler.Cancel(s.autoCmd)
		}
		s.autoCmd = nil
	})
	return nil
}

// === Guards ===

func (s *RobotSystem) IsDriverConnected(c *librefsm.Context) bool {
	connected := s.container.DriverConnected()
	if !connected {
		s.logger.Warnf("Teleop refused: driver joystick not connected")
	}
	return connected
}

// === Transition Actions ===

func (s *RobotSystem) OnAutonomousTimeout(c *librefsm.Context) error {
	s.logger.Infof("Autonomous period elapsed")
	return nil
}
