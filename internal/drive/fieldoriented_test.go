package drive

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const eps = 1e-9

func TestFieldOrientedIdentityAtZeroHeading(t *testing.T) {
	inputs := [][3]float64{{1, 0, 0}, {0, 1, 0}, {0.3, -0.7, 0.2}, {-1, -1, 1}}
	for _, in := range inputs {
		out := FieldOriented(in[0], in[1], in[2], 0)
		assert.InDelta(t, in[0], out.Forward, eps)
		assert.InDelta(t, in[1], out.Strafe, eps)
		assert.Equal(t, in[2], out.Rotation)
	}
}

func TestFieldOrientedQuarterTurn(t *testing.T) {
	out := FieldOriented(1, 0, 0.5, math.Pi/2)
	assert.InDelta(t, 0, out.Forward, eps)
	assert.InDelta(t, 1, out.Strafe, eps)
	assert.Equal(t, 0.5, out.Rotation)
}

func TestFieldOrientedIsNotNormalized(t *testing.T) {
	out := FieldOriented(1, 1, 0, math.Pi/4)
	assert.InDelta(t, 0, out.Forward, eps)
	assert.InDelta(t, math.Sqrt2, out.Strafe, eps)
}

func TestFieldOrientedPreservesMagnitude(t *testing.T) {
	for h := -2 * math.Pi; h <= 2*math.Pi; h += 0.37 {
		out := FieldOriented(0.6, -0.8, 0, h)
		assert.InDelta(t, 1.0, math.Hypot(out.Forward, out.Strafe), 1e-9)
	}
}

func TestDegreesToHeading(t *testing.T) {
	assert.InDelta(t, math.Pi/2, DegreesToHeading(90, false), eps)
	assert.InDelta(t, -math.Pi/2, DegreesToHeading(90, true), eps)
	assert.InDelta(t, 0.0, DegreesToHeading(0, true), eps)
}

func TestApplyDeadband(t *testing.T) {
	assert.Equal(t, 0.0, ApplyDeadband(0.04, 0.05))
	assert.Equal(t, 0.0, ApplyDeadband(-0.04, 0.05))
	assert.InDelta(t, 1.0, ApplyDeadband(1, 0.05), eps)
	assert.InDelta(t, -1.0, ApplyDeadband(-1, 0.05), eps)
	assert.InDelta(t, 0.5, ApplyDeadband(0.55, 0.1), eps)
	assert.Equal(t, 0.3, ApplyDeadband(0.3, 0))
}
