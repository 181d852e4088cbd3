// Package subsystems holds the robot's exclusive hardware resources and
// the sensor caches the commands read from.
package subsystems

import (
	"math"

	"robot-service/internal/logger"
)

// Motor is a speed controller output taking a demand in [-1, 1].
type Motor interface {
	Set(speed float64) error
	Stop() error
}

type DigitalOutput interface {
	Write(value bool) error
}

type DigitalInput interface {
	Read() (bool, error)
}

// motorOutput logs the first failure of a run of failed writes and the
// recovery, so a dead controller does not flood the log at loop rate.
type motorOutput struct {
	name    string
	motor   Motor
	log     *logger.Logger
	failing bool
	last    float64
}

func newMotorOutput(name string, m Motor, l *logger.Logger) *motorOutput {
	return &motorOutput{name: name, motor: m, log: l}
}

func (o *motorOutput) set(speed float64) {
	speed = clamp(speed)
	o.last = speed
	o.report(o.motor.Set(speed))
}

func (o *motorOutput) stop() {
	o.last = 0
	o.report(o.motor.Stop())
}

func (o *motorOutput) report(err error) {
	switch {
	case err != nil && !o.failing:
		o.failing = true
		o.log.Errorf("Motor %s write failed: %v", o.name, err)
	case err == nil && o.failing:
		o.failing = false
		o.log.Infof("Motor %s recovered", o.name)
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}
