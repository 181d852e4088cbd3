package hardware

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"robot-service/internal/logger"
)

type InputEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

// absInfo mirrors struct input_absinfo.
type absInfo struct {
	Value      int32
	Minimum    int32
	Maximum    int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

// Joystick tracks one evdev gamepad. Axis codes and button codes are
// mapped to driver-station style indexes: axis 0.., button 1...
// The device is reopened when it disappears.
type Joystick struct {
	logger      *logger.Logger
	port        int
	path        string
	axisCodes   []uint16
	buttonCodes []uint16

	mu        sync.RWMutex
	file      *os.File
	connected bool
	ranges    map[uint16]absInfo
	axes      map[uint16]float64
	keys      map[uint16]bool

	started  bool
	stopChan chan struct{}
	done     chan struct{}
}

func NewJoystick(port int, path string, axisCodes, buttonCodes []uint16, l *logger.Logger) *Joystick {
	return &Joystick{
		logger:      l.WithTag(fmt.Sprintf("Joystick%d", port)),
		port:        port,
		path:        path,
		axisCodes:   axisCodes,
		buttonCodes: buttonCodes,
		ranges:      make(map[uint16]absInfo),
		axes:        make(map[uint16]float64),
		keys:        make(map[uint16]bool),
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start begins monitoring in the background. A missing device is not an
// error; the joystick reads as disconnected until it appears.
func (j *Joystick) Start() {
	j.started = true
	go j.monitor()
}

func (j *Joystick) Port() int { return j.port }

// Axis returns axis i scaled to [-1, 1], 0 when unknown or disconnected.
func (j *Joystick) Axis(i int) float64 {
	if i < 0 || i >= len(j.axisCodes) {
		return 0
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.axes[j.axisCodes[i]]
}

// Button reports button i (1-based).
func (j *Joystick) Button(i int) bool {
	if i < 1 || i > len(j.buttonCodes) {
		return false
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.keys[j.buttonCodes[i-1]]
}

func (j *Joystick) Connected() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.connected
}

func (j *Joystick) Close() {
	close(j.stopChan)
	j.mu.Lock()
	if j.file != nil {
		j.file.Close()
	}
	j.mu.Unlock()
	if j.started {
		<-j.done
	}
}

func (j *Joystick) monitor() {
	defer close(j.done)

	buffer := make([]byte, eventSize)
	for {
		select {
		case <-j.stopChan:
			return
		default:
		}

		j.mu.RLock()
		file := j.file
		j.mu.RUnlock()

		if file == nil {
			if err := j.open(); err != nil {
				j.logger.Debugf("Waiting for %s: %v", j.path, err)
				select {
				case <-j.stopChan:
					return
				case <-time.After(reconnectDelay):
				}
			}
			continue
		}

		n, err := file.Read(buffer)
		if err != nil {
			select {
			case <-j.stopChan:
				return
			default:
			}
			j.logger.Warnf("Lost %s: %v", j.path, err)
			j.disconnect()
			continue
		}
		if n != len(buffer) {
			j.logger.Debugf("Incomplete read: got %d bytes, expected %d", n, len(buffer))
			continue
		}

		j.handleEvent(parseEvent(buffer))
	}
}

func (j *Joystick) open() error {
	file, err := os.OpenFile(j.path, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	fd := file.Fd()

	ranges := make(map[uint16]absInfo, len(j.axisCodes))
	axes := make(map[uint16]float64, len(j.axisCodes))
	for _, code := range j.axisCodes {
		var info absInfo
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd,
			uintptr(eviocgabsBase+uint32(code)), uintptr(unsafe.Pointer(&info)))
		if errno != 0 {
			j.logger.Warnf("EVIOCGABS %d failed: %v", code, errno)
			continue
		}
		ranges[code] = info
		axes[code] = NormalizeAxis(info.Value, info.Minimum, info.Maximum)
	}

	keyState := make([]byte, keyStateBytes)
	keys := make(map[uint16]bool, len(j.buttonCodes))
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd,
		uintptr(eviocgkey), uintptr(unsafe.Pointer(&keyState[0])))
	if errno == 0 {
		for _, code := range j.buttonCodes {
			keys[code] = keyPressed(keyState, code)
		}
	} else {
		j.logger.Warnf("EVIOCGKEY failed: %v", errno)
	}

	j.mu.Lock()
	j.file = file
	j.connected = true
	j.ranges = ranges
	j.axes = axes
	j.keys = keys
	j.mu.Unlock()

	j.logger.Infof("Opened %s", j.path)
	return nil
}

// disconnect drops all state so a lost joystick reads as centered and
// released.
func (j *Joystick) disconnect() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file != nil {
		j.file.Close()
		j.file = nil
	}
	j.connected = false
	j.axes = make(map[uint16]float64)
	j.keys = make(map[uint16]bool)
}

func (j *Joystick) handleEvent(ev InputEvent) {
	j.mu.Lock()
	defer j.mu.Unlock()

	switch ev.Type {
	case EV_KEY:
		// value 2 is autorepeat
		if ev.Value <= 1 {
			j.keys[ev.Code] = ev.Value == 1
		}
	case EV_ABS:
		info, ok := j.ranges[ev.Code]
		if !ok {
			return
		}
		j.axes[ev.Code] = NormalizeAxis(ev.Value, info.Minimum, info.Maximum)
	}
}

// parseEvent decodes a struct input_event, skipping the timestamp.
func parseEvent(buf []byte) InputEvent {
	off := len(buf) - 8
	return InputEvent{
		Type:  binary.LittleEndian.Uint16(buf[off : off+2]),
		Code:  binary.LittleEndian.Uint16(buf[off+2 : off+4]),
		Value: int32(binary.LittleEndian.Uint32(buf[off+4 : off+8])),
	}
}

// NormalizeAxis maps a raw reading in [min, max] onto [-1, 1].
func NormalizeAxis(value, min, max int32) float64 {
	if max <= min {
		return 0
	}
	v := 2*(float64(value)-float64(min))/(float64(max)-float64(min)) - 1
	switch {
	case v < -1:
		return -1
	case v > 1:
		return 1
	}
	return v
}

func keyPressed(state []byte, code uint16) bool {
	byteOffset := int(code / 8)
	if byteOffset >= len(state) {
		return false
	}
	return state[byteOffset]&(1<<(code%8)) != 0
}
