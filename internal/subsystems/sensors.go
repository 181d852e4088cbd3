package subsystems

import (
	"sync"
	"time"

	"robot-service/internal/drive"
)

// Heading caches the gyro yaw published by the IMU. Updates arrive from
// the messaging goroutine, reads from the control loop.
type Heading struct {
	mu        sync.RWMutex
	clockwise bool
	degrees   float64
	offset    float64
	updated   time.Time
}

// NewHeading creates a heading cache; clockwise is set for gyros that
// report clockwise-positive yaw.
func NewHeading(clockwise bool) *Heading {
	return &Heading{clockwise: clockwise}
}

func (h *Heading) Update(degrees float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.degrees = degrees
	h.updated = time.Now()
}

// Zero makes the current yaw the field-forward direction.
func (h *Heading) Zero() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.offset = h.degrees
}

func (h *Heading) SetClockwise(clockwise bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clockwise = clockwise
}

// Degrees returns the yaw relative to the last Zero, as the gyro reports it.
func (h *Heading) Degrees() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.degrees - h.offset
}

// Radians returns the heading counter-clockwise positive, ready for
// drive.FieldOriented.
func (h *Heading) Radians() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return drive.DegreesToHeading(h.degrees-h.offset, h.clockwise)
}

func (h *Heading) Updated() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.updated
}

// Target is one limelight sample: horizontal offset and area of the best
// target, and whether any target is visible.
type Target struct {
	TX      float64
	TA      float64
	Valid   bool
	Updated time.Time
}

// Vision caches the latest camera target.
type Vision struct {
	mu     sync.RWMutex
	target Target
	maxAge time.Duration
	now    func() time.Time
}

// NewVision creates a target cache; samples older than maxAge read as no
// target. Zero maxAge disables the check.
func NewVision(maxAge time.Duration) *Vision {
	return &Vision{maxAge: maxAge, now: time.Now}
}

func (v *Vision) Update(tx, ta float64, valid bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.target = Target{TX: tx, TA: ta, Valid: valid, Updated: v.now()}
}

func (v *Vision) Target() Target {
	v.mu.RLock()
	defer v.mu.RUnlock()
	t := v.target
	if v.maxAge > 0 && v.now().Sub(t.Updated) > v.maxAge {
		t.Valid = false
	}
	return t
}
