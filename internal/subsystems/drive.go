package subsystems

import (
	"math"

	"robot-service/internal/logger"
)

// Wheel indexes into WheelSpeeds.
const (
	FrontLeft = iota
	FrontRight
	RearLeft
	RearRight
)

// Drive is a four-motor mecanum drivetrain.
type Drive struct {
	log       *logger.Logger
	wheels    [4]*motorOutput
	maxOutput float64
}

func NewDrive(frontLeft, frontRight, rearLeft, rearRight Motor, l *logger.Logger) *Drive {
	l = l.WithTag("Drive")
	return &Drive{
		log: l,
		wheels: [4]*motorOutput{
			newMotorOutput("front_left", frontLeft, l),
			newMotorOutput("front_right", frontRight, l),
			newMotorOutput("rear_left", rearLeft, l),
			newMotorOutput("rear_right", rearRight, l),
		},
		maxOutput: 1,
	}
}

func (d *Drive) Name() string { return "drive" }

// SetMaxOutput scales every wheel demand; values outside (0, 1] are ignored.
func (d *Drive) SetMaxOutput(v float64) {
	if v <= 0 || v > 1 {
		d.log.Warnf("Ignoring max output %v", v)
		return
	}
	d.maxOutput = v
}

func (d *Drive) MaxOutput() float64 { return d.maxOutput }

// DriveCartesian drives robot-relative: forward positive ahead, strafe
// positive right, rotation positive clockwise.
func (d *Drive) DriveCartesian(forward, strafe, rotation float64) {
	speeds := MecanumWheelSpeeds(forward, strafe, rotation)
	for i, w := range d.wheels {
		w.set(speeds[i] * d.maxOutput)
	}
}

func (d *Drive) Stop() {
	for _, w := range d.wheels {
		w.stop()
	}
}

// WheelSpeeds returns the last demand written to each wheel.
func (d *Drive) WheelSpeeds() [4]float64 {
	var out [4]float64
	for i, w := range d.wheels {
		out[i] = w.last
	}
	return out
}

// MecanumWheelSpeeds mixes a holonomic demand into wheel speeds, scaled
// down together when any wheel would exceed 1.
func MecanumWheelSpeeds(forward, strafe, rotation float64) [4]float64 {
	forward, strafe, rotation = clamp(forward), clamp(strafe), clamp(rotation)

	speeds := [4]float64{
		FrontLeft:  forward + strafe + rotation,
		FrontRight: forward - strafe - rotation,
		RearLeft:   forward - strafe + rotation,
		RearRight:  forward + strafe - rotation,
	}

	max := 1.0
	for _, s := range speeds {
		max = math.Max(max, math.Abs(s))
	}
	for i := range speeds {
		speeds[i] /= max
	}
	return speeds
}
