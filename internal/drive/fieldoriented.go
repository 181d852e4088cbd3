// Package drive converts operator intent between reference frames.
package drive

import "math"

// Speeds is a holonomic drive demand. Forward and Strafe are unitless
// [-1, 1] demands, Rotation is the turn-rate demand.
type Speeds struct {
	Forward  float64
	Strafe   float64
	Rotation float64
}

// FieldOriented rotates a joystick-frame demand by heading (radians,
// counter-clockwise positive, 0 = facing field forward) into the field
// frame. Rotation passes through and the result is not re-normalized.
func FieldOriented(forward, strafe, rotation, heading float64) Speeds {
	sin, cos := math.Sincos(heading)
	return Speeds{
		Forward:  forward*cos - strafe*sin,
		Strafe:   forward*sin + strafe*cos,
		Rotation: rotation,
	}
}

// DegreesToHeading converts a gyro reading in degrees to a heading in
// radians. Set clockwise for gyros that count clockwise-positive.
func DegreesToHeading(deg float64, clockwise bool) float64 {
	rad := deg * math.Pi / 180
	if clockwise {
		return -rad
	}
	return rad
}

// ApplyDeadband zeroes |v| < band and rescales the rest so the output is
// continuous from the band edge to ±1.
func ApplyDeadband(v, band float64) float64 {
	if band <= 0 {
		return v
	}
	if math.Abs(v) < band {
		return 0
	}
	if band >= 1 {
		return 0
	}
	if v > 0 {
		return (v - band) / (1 - band)
	}
	return (v + band) / (1 - band)
}
