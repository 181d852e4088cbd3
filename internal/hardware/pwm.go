package hardware

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"robot-service/internal/logger"
)

// PWMMotor drives an RC-style speed controller from a sysfs PWM channel.
type PWMMotor struct {
	logger   *logger.Logger
	name     string
	chipDir  string
	channel  int
	inverted bool

	mu      sync.Mutex
	enabled bool
	pulse   time.Duration
}

func NewPWMMotor(name string, chip, channel int, inverted bool, l *logger.Logger) *PWMMotor {
	return &PWMMotor{
		logger:   l,
		name:     name,
		chipDir:  filepath.Join(PwmSysfsRoot, fmt.Sprintf("pwmchip%d", chip)),
		channel:  channel,
		inverted: inverted,
	}
}

func (m *PWMMotor) channelDir() string {
	return filepath.Join(m.chipDir, fmt.Sprintf("pwm%d", m.channel))
}

// Init exports the channel, sets the period and starts at neutral.
func (m *PWMMotor) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.channelDir()); os.IsNotExist(err) {
		if err := writeSysfs(filepath.Join(m.chipDir, "export"), strconv.Itoa(m.channel)); err != nil {
			return fmt.Errorf("failed to export PWM %s: %w", m.name, err)
		}
	}
	if err := m.write("period", PwmPeriod); err != nil {
		return err
	}
	if err := m.write("duty_cycle", PwmNeutralPulse); err != nil {
		return err
	}
	if err := writeSysfs(filepath.Join(m.channelDir(), "enable"), "1"); err != nil {
		return fmt.Errorf("failed to enable PWM %s: %w", m.name, err)
	}
	m.enabled = true
	m.pulse = PwmNeutralPulse
	m.logger.Infof("Configured motor %s: %s", m.name, m.channelDir())
	return nil
}

func (m *PWMMotor) Set(speed float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return fmt.Errorf("motor %s not initialized", m.name)
	}
	pulse := PulseWidth(speed, m.inverted)
	if pulse == m.pulse {
		return nil
	}
	if err := m.write("duty_cycle", pulse); err != nil {
		return err
	}
	m.pulse = pulse
	return nil
}

func (m *PWMMotor) Stop() error {
	return m.Set(0)
}

// Close parks the controller at neutral and disables the channel.
func (m *PWMMotor) Close() error {
	if err := m.Stop(); err != nil {
		m.logger.Warnf("Failed to stop motor %s: %v", m.name, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = false
	return writeSysfs(filepath.Join(m.channelDir(), "enable"), "0")
}

func (m *PWMMotor) write(attr string, d time.Duration) error {
	if err := writeSysfs(filepath.Join(m.channelDir(), attr), strconv.FormatInt(d.Nanoseconds(), 10)); err != nil {
		return fmt.Errorf("failed to write %s of PWM %s: %w", attr, m.name, err)
	}
	return nil
}

// PulseWidth maps a speed in [-1, 1] onto the controller pulse width.
func PulseWidth(speed float64, inverted bool) time.Duration {
	if math.IsNaN(speed) {
		speed = 0
	}
	speed = math.Max(-1, math.Min(1, speed))
	if inverted {
		speed = -speed
	}
	return PwmNeutralPulse + time.Duration(math.Round(speed*float64(PwmPulseRange)))
}

func writeSysfs(path, value string) error {
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)

	buf := []byte(value)
	for len(buf) > 0 {
		n, err := unix.Write(fd, buf)
		if err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}
