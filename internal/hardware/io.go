package hardware

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"robot-service/internal/config"
	"robot-service/internal/logger"
	"robot-service/internal/subsystems"
	"robot-service/internal/types"
)

// LinuxHardwareIO owns every device the robot talks to: evdev joysticks,
// sysfs PWM motor controllers and GPIO lines.
type LinuxHardwareIO struct {
	logger    *logger.Logger
	cfg       *config.Config
	mu        sync.RWMutex
	joysticks map[int]*Joystick
	motors    map[string]*PWMMotor
	chips     map[int]*gpiocdev.Chip
	outputs   map[string]*OutputLine
	inputs    map[string]*InputLine
	lines     []*gpiocdev.Line
}

func NewLinuxHardwareIO(cfg *config.Config, l *logger.Logger) *LinuxHardwareIO {
	return &LinuxHardwareIO{
		logger:    l,
		cfg:       cfg,
		joysticks: make(map[int]*Joystick),
		motors:    make(map[string]*PWMMotor),
		chips:     make(map[int]*gpiocdev.Chip),
		outputs:   make(map[string]*OutputLine),
		inputs:    make(map[string]*InputLine),
	}
}

// outputLines are the GPIO lines requested as outputs; the rest are inputs.
var outputLines = map[string]bool{
	"lift_brake": true,
}

func (io *LinuxHardwareIO) Initialize() error {
	io.logger.Infof("Initializing hardware IO")
	io.mu.Lock()
	defer io.mu.Unlock()

	for name, mc := range io.cfg.Motors {
		m := NewPWMMotor(name, mc.Chip, mc.Channel, mc.Inverted, io.logger)
		if err := m.Init(); err != nil {
			return err
		}
		io.motors[name] = m
	}

	for name, lc := range io.cfg.GPIO {
		chip, ok := io.chips[lc.Chip]
		if !ok {
			var err error
			chip, err = gpiocdev.NewChip(fmt.Sprintf("gpiochip%d", lc.Chip))
			if err != nil {
				return fmt.Errorf("failed to open GPIO chip %d: %w", lc.Chip, err)
			}
			io.chips[lc.Chip] = chip
		}

		var opts []gpiocdev.LineReqOption
		if outputLines[name] {
			// engage brakes until something releases them
			opts = lineOptions(lc.ActiveLow, gpiocdev.AsOutput(1))
		} else {
			opts = lineOptions(lc.ActiveLow, gpiocdev.AsInput)
		}
		line, err := chip.RequestLine(lc.Line, opts...)
		if err != nil {
			return fmt.Errorf("failed to request GPIO line %d: %w", lc.Line, err)
		}
		io.lines = append(io.lines, line)
		if outputLines[name] {
			io.outputs[name] = &OutputLine{name: name, line: line}
		} else {
			io.inputs[name] = &InputLine{name: name, line: line}
		}
		io.logger.Infof("Configured GPIO %s: chip=%d, line=%d", name, lc.Chip, lc.Line)
	}

	for _, jc := range io.cfg.Joysticks {
		js := NewJoystick(jc.Port, jc.Device, jc.Axes, jc.Buttons, io.logger)
		js.Start()
		io.joysticks[jc.Port] = js
	}

	return nil
}

func (io *LinuxHardwareIO) Motor(name string) (subsystems.Motor, error) {
	io.mu.RLock()
	defer io.mu.RUnlock()
	m, ok := io.motors[name]
	if !ok {
		return nil, fmt.Errorf("unknown motor: %s", name)
	}
	return m, nil
}

func (io *LinuxHardwareIO) DigitalOutput(name string) (subsystems.DigitalOutput, error) {
	io.mu.RLock()
	defer io.mu.RUnlock()
	o, ok := io.outputs[name]
	if !ok {
		return nil, fmt.Errorf("unknown digital output channel: %s", name)
	}
	return o, nil
}

func (io *LinuxHardwareIO) DigitalInput(name string) (subsystems.DigitalInput, error) {
	io.mu.RLock()
	defer io.mu.RUnlock()
	i, ok := io.inputs[name]
	if !ok {
		return nil, fmt.Errorf("unknown input channel: %s", name)
	}
	return i, nil
}

func (io *LinuxHardwareIO) Joystick(port int) (types.Joystick, error) {
	io.mu.RLock()
	defer io.mu.RUnlock()
	js, ok := io.joysticks[port]
	if !ok {
		return nil, fmt.Errorf("no joystick on port %d", port)
	}
	return js, nil
}

// StopAllMotors parks every controller at neutral.
func (io *LinuxHardwareIO) StopAllMotors() {
	io.mu.RLock()
	defer io.mu.RUnlock()
	for name, m := range io.motors {
		if err := m.Stop(); err != nil {
			io.logger.Warnf("Failed to stop motor %s: %v", name, err)
		}
	}
}

func (io *LinuxHardwareIO) Cleanup() {
	io.mu.Lock()
	defer io.mu.Unlock()

	io.logger.Infof("Cleaning up hardware resources")

	for port, js := range io.joysticks {
		js.Close()
		io.logger.Debugf("Closed joystick %d", port)
	}

	for name, m := range io.motors {
		if err := m.Close(); err != nil {
			io.logger.Warnf("Failed to disable motor %s: %v", name, err)
		}
	}

	for _, line := range io.lines {
		line.Close()
	}

	for id, chip := range io.chips {
		chip.Close()
		io.logger.Debugf("Closed GPIO chip %d", id)
	}

	io.logger.Infof("Hardware cleanup complete")
}
