package subsystems

import "robot-service/internal/logger"

type Intake struct {
	roller *motorOutput
}

func NewIntake(m Motor, l *logger.Logger) *Intake {
	return &Intake{roller: newMotorOutput("intake", m, l.WithTag("Intake"))}
}

func (i *Intake) Name() string { return "intake" }

func (i *Intake) SetSpeed(speed float64) { i.roller.set(speed) }
func (i *Intake) Speed() float64         { return i.roller.last }
func (i *Intake) Stop()                  { i.roller.stop() }

// Shooter is a flywheel fed by an indexer belt.
type Shooter struct {
	flywheel *motorOutput
	indexer  *motorOutput
}

func NewShooter(flywheel, indexer Motor, l *logger.Logger) *Shooter {
	l = l.WithTag("Shooter")
	return &Shooter{
		flywheel: newMotorOutput("flywheel", flywheel, l),
		indexer:  newMotorOutput("indexer", indexer, l),
	}
}

func (s *Shooter) Name() string { return "shooter" }

func (s *Shooter) SetFlywheel(speed float64) { s.flywheel.set(speed) }
func (s *Shooter) SetIndexer(speed float64)  { s.indexer.set(speed) }
func (s *Shooter) Flywheel() float64         { return s.flywheel.last }
func (s *Shooter) Indexer() float64          { return s.indexer.last }

func (s *Shooter) Stop() {
	s.indexer.stop()
	s.flywheel.stop()
}

// Spinner turns the control panel wheel.
type Spinner struct {
	wheel *motorOutput
}

func NewSpinner(m Motor, l *logger.Logger) *Spinner {
	return &Spinner{wheel: newMotorOutput("spinner", m, l.WithTag("Spinner"))}
}

func (s *Spinner) Name() string { return "spinner" }

func (s *Spinner) SetSpeed(speed float64) { s.wheel.set(speed) }
func (s *Spinner) Speed() float64         { return s.wheel.last }
func (s *Spinner) Stop()                  { s.wheel.stop() }

// Lift is a winch with a spring brake and a lower limit switch. The brake
// output is true when engaged.
type Lift struct {
	log        *logger.Logger
	winch      *motorOutput
	brake      DigitalOutput
	lowerLimit DigitalInput
	braked     bool
	brakeKnown bool
	brakeFault bool
	limitFault bool
}

func NewLift(winch Motor, brake DigitalOutput, lowerLimit DigitalInput, l *logger.Logger) *Lift {
	l = l.WithTag("Lift")
	return &Lift{
		log:        l,
		winch:      newMotorOutput("lift", winch, l),
		brake:      brake,
		lowerLimit: lowerLimit,
	}
}

func (l *Lift) Name() string { return "lift" }

// Move drives the winch (positive up). Downward motion at the lower limit
// holds instead. Zero holds.
func (l *Lift) Move(speed float64) {
	if speed == 0 || (speed < 0 && l.AtLowerLimit()) {
		l.Hold()
		return
	}
	if !l.setBrake(false) {
		l.winch.stop()
		return
	}
	l.winch.set(speed)
}

// Hold stops the winch and engages the brake.
func (l *Lift) Hold() {
	l.winch.stop()
	l.setBrake(true)
}

// AtLowerLimit reports the limit switch. A failed read counts as pressed.
func (l *Lift) AtLowerLimit() bool {
	pressed, err := l.lowerLimit.Read()
	switch {
	case err != nil && !l.limitFault:
		l.limitFault = true
		l.log.Warnf("Lower limit read failed: %v", err)
	case err == nil && l.limitFault:
		l.limitFault = false
		l.log.Infof("Lower limit readable again")
	}
	if err != nil {
		return true
	}
	return pressed
}

func (l *Lift) Braked() bool { return l.braked }

// setBrake reports whether the brake is known to be in the requested state.
func (l *Lift) setBrake(engaged bool) bool {
	if l.brakeKnown && l.braked == engaged {
		return true
	}
	if err := l.brake.Write(engaged); err != nil {
		if !l.brakeFault {
			l.brakeFault = true
			l.log.Errorf("Failed to set brake=%v: %v", engaged, err)
		}
		l.brakeKnown = false
		return false
	}
	if l.brakeFault {
		l.brakeFault = false
		l.log.Infof("Brake output recovered")
	}
	l.braked = engaged
	l.brakeKnown = true
	return true
}
