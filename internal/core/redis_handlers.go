package core

import (
	"fmt"

	"github.com/librescoot/librefsm"

	"robot-service/internal/fsm"
)

// handleModeRequest handles mode change requests from Redis
func (s *RobotSystem) handleModeRequest(mode string) error {
	s.logger.Debugf("Handling mode request: %s", mode)

	var ev librefsm.EventID
	var target librefsm.StateID
	switch mode {
	case "disabled":
		ev, target = fsm.EvDisable, fsm.StateDisabled
	case "autonomous":
		ev, target = fsm.EvAutonomous, fsm.StateAutonomous
	case "teleop":
		ev, target = fsm.EvTeleop, fsm.StateTeleop
	case "estop":
		ev, target = fsm.EvEStop, fsm.StateEStopped
	default:
		return fmt.Errorf("invalid mode request: %s", mode)
	}
	if err := s.sendEvent(ev); err != nil {
		return err
	}

	// The machine drops events with no transition or a failed guard
	if state := s.getCurrentStateID(); state != target {
		return fmt.Errorf("mode request %s refused in %s", mode, state)
	}
	return nil
}

// handleChooserRequest selects an option on the autonomous or drive chooser.
// Unknown labels leave the selection unchanged.
func (s *RobotSystem) handleChooserRequest(chooser, label string) error {
	s.logger.Debugf("Handling chooser request: %s=%s", chooser, label)

	switch chooser {
	case "auto":
		if err := s.container.AutoChooser.Select(label); err != nil {
			return err
		}
		s.logger.Infof("Autonomous routine: %s", label)
	case "drive":
		if err := s.container.DriveChooser.Select(label); err != nil {
			return err
		}
		// the drivetrain default was bound at startup
		s.logger.Warnf("Drive mode %s selected; takes effect after restart", label)
	default:
		return fmt.Errorf("unknown chooser: %s", chooser)
	}

	if err := s.redis.PublishEvent("chooser", map[string]interface{}{
		"chooser": chooser,
		"label":   label,
	}); err != nil {
		s.logger.Warnf("Failed to publish chooser event: %v", err)
	}
	return nil
}

func (s *RobotSystem) handleHeadingUpdate(degrees float64) error {
	s.container.Heading.Update(degrees)
	return nil
}

func (s *RobotSystem) handleZeroHeading() error {
	s.logger.Infof("Zeroing heading at %.2f degrees", s.container.Heading.Degrees())
	s.container.Heading.Zero()
	return nil
}

func (s *RobotSystem) handleVisionUpdate(tx, ta float64, valid bool) error {
	s.container.Vision.Update(tx, ta, valid)
	return nil
}

// handleSettingsUpdate applies robot.* settings on the next cycle.
func (s *RobotSystem) handleSettingsUpdate(settings map[string]string) error {
	s.submit(func() { s.applySettings(settings) })
	return nil
}
