package hardware

import (
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	EV_SYN = 0x00
	EV_KEY = 0x01
	EV_ABS = 0x03

	// _IOR('E', 0x18, 128): key state bitmap
	eviocgkey = 0x80804518
	// _IOR('E', 0x40 + abs, struct input_absinfo)
	eviocgabsBase = 0x80184540

	keyStateBytes = 128

	Consumer = "robot-service"

	PwmSysfsRoot = "/sys/class/pwm"

	// RC speed controller timing: 1.5ms neutral, +-0.5ms full scale.
	PwmPeriod       = 5 * time.Millisecond
	PwmNeutralPulse = 1500 * time.Microsecond
	PwmPulseRange   = 500 * time.Microsecond

	reconnectDelay = time.Second
)

// eventSize is sizeof(struct input_event): a timeval followed by type,
// code and value.
var eventSize = int(unsafe.Sizeof(unix.Timeval{})) + 8
