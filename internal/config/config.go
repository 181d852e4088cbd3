package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no config file is given and it exists.
const DefaultPath = "/etc/robot-service/config.yaml"

// Config represents the complete configuration of the robot service
type Config struct {
	LogLevel   int                   `yaml:"log_level"`
	Loop       LoopConfig            `yaml:"loop"`
	Redis      RedisConfig           `yaml:"redis"`
	Metrics    MetricsConfig         `yaml:"metrics"`
	Joysticks  []JoystickConfig      `yaml:"joysticks"`
	Controls   ControlsConfig        `yaml:"controls"`
	Motors     map[string]MotorConfig `yaml:"motors"`
	GPIO       map[string]LineConfig `yaml:"gpio"`
	Tuning     Tuning                `yaml:"tuning"`
	Autonomous AutonomousConfig      `yaml:"autonomous"`
}

// LoopConfig holds the periodic driver settings
type LoopConfig struct {
	Period         time.Duration `yaml:"period"`
	TelemetryEvery int           `yaml:"telemetry_every"` // publish every N cycles
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

// MetricsConfig holds the HTTP metrics/status listener; empty Addr disables it
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// JoystickConfig maps an evdev device onto a driver-station port. Axes[i]
// is the ABS code of axis i; Buttons[i] is the key code of button i+1.
type JoystickConfig struct {
	Port    int      `yaml:"port"`
	Device  string   `yaml:"device"`
	Axes    []uint16 `yaml:"axes"`
	Buttons []uint16 `yaml:"buttons"`
}

// ControlsConfig binds operator inputs to robot functions
type ControlsConfig struct {
	DriverPort   int `yaml:"driver_port"`
	OperatorPort int `yaml:"operator_port"`

	ForwardAxis   int  `yaml:"forward_axis"`
	StrafeAxis    int  `yaml:"strafe_axis"`
	RotationAxis  int  `yaml:"rotation_axis"`
	LiftAxis      int  `yaml:"lift_axis"`
	InvertForward bool `yaml:"invert_forward"`

	IntakeButton      int `yaml:"intake_button"`
	ShootButton       int `yaml:"shoot_button"`
	AimButton         int `yaml:"aim_button"`
	AimAndShootButton int `yaml:"aim_and_shoot_button"`
	SpinReverseButton int `yaml:"spin_reverse_button"`
	SpinForwardButton int `yaml:"spin_forward_button"`
	ZeroHeadingButton int `yaml:"zero_heading_button"`
}

// MotorConfig locates a PWM motor controller output
type MotorConfig struct {
	Chip     int  `yaml:"chip"`
	Channel  int  `yaml:"channel"`
	Inverted bool `yaml:"inverted"`
}

// LineConfig locates a GPIO line
type LineConfig struct {
	Chip      int  `yaml:"chip"`
	Line      int  `yaml:"line"`
	ActiveLow bool `yaml:"active_low"`
}

// Tuning holds values that may be changed at run time from the settings
// hash. Both yaml and mapstructure tags use the same keys.
type Tuning struct {
	DriveMaxOutput float64 `yaml:"drive_max_output" mapstructure:"drive_max_output"`
	Deadband       float64 `yaml:"deadband" mapstructure:"deadband"`
	GyroClockwise  bool    `yaml:"gyro_clockwise" mapstructure:"gyro_clockwise"`
	IntakeSpeed    float64 `yaml:"intake_speed" mapstructure:"intake_speed"`
	SpinnerSpeed   float64 `yaml:"spinner_speed" mapstructure:"spinner_speed"`
	FlywheelSpeed  float64 `yaml:"flywheel_speed" mapstructure:"flywheel_speed"`
	IndexerSpeed   float64 `yaml:"indexer_speed" mapstructure:"indexer_speed"`
	SpinUpCycles   int     `yaml:"spin_up_cycles" mapstructure:"spin_up_cycles"`
	LiftDeadband   float64 `yaml:"lift_deadband" mapstructure:"lift_deadband"`
	AimKp          float64 `yaml:"aim_kp" mapstructure:"aim_kp"`
	ApproachKp     float64 `yaml:"approach_kp" mapstructure:"approach_kp"`
	TargetArea     float64 `yaml:"target_area" mapstructure:"target_area"`
	AimTolerance   float64 `yaml:"aim_tolerance" mapstructure:"aim_tolerance"`
}

// AutonomousConfig holds the autonomous period and routine parameters
type AutonomousConfig struct {
	Period            time.Duration `yaml:"period"`
	DriveForwardTime  time.Duration `yaml:"drive_forward_time"`
	DriveForwardSpeed float64       `yaml:"drive_forward_speed"`
	ShootTime         time.Duration `yaml:"shoot_time"`
}

// Load builds the configuration: defaults, then the YAML file, then
// environment overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogLevel: 3,
		Loop: LoopConfig{
			Period:         20 * time.Millisecond,
			TelemetryEvery: 5,
		},
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
		},
		Metrics: MetricsConfig{
			Addr: ":2112",
		},
		Joysticks: []JoystickConfig{
			{
				Port:    0,
				Device:  "/dev/input/by-id/driver-event-joystick",
				Axes:    []uint16{0x00, 0x01, 0x02, 0x03, 0x04, 0x05},
				Buttons: []uint16{0x120, 0x121, 0x122, 0x123, 0x124, 0x125, 0x126, 0x127},
			},
			{
				Port:    1,
				Device:  "/dev/input/by-id/operator-event-joystick",
				Axes:    []uint16{0x00, 0x01, 0x02, 0x03, 0x04, 0x05},
				Buttons: []uint16{0x120, 0x121, 0x122, 0x123, 0x124, 0x125, 0x126, 0x127},
			},
		},
		Controls: ControlsConfig{
			DriverPort:        0,
			OperatorPort:      1,
			ForwardAxis:       1,
			StrafeAxis:        0,
			RotationAxis:      4,
			LiftAxis:          1,
			InvertForward:     true,
			IntakeButton:      1,
			ShootButton:       2,
			AimButton:         3,
			AimAndShootButton: 4,
			SpinReverseButton: 5,
			SpinForwardButton: 6,
			ZeroHeadingButton: 8,
		},
		Motors: map[string]MotorConfig{
			"front_left":  {Chip: 0, Channel: 0},
			"front_right": {Chip: 0, Channel: 1, Inverted: true},
			"rear_left":   {Chip: 0, Channel: 2},
			"rear_right":  {Chip: 0, Channel: 3, Inverted: true},
			"intake":      {Chip: 1, Channel: 0},
			"flywheel":    {Chip: 1, Channel: 1},
			"indexer":     {Chip: 1, Channel: 2},
			"lift":        {Chip: 1, Channel: 3},
			"spinner":     {Chip: 2, Channel: 0},
		},
		GPIO: map[string]LineConfig{
			"lift_brake":       {Chip: 0, Line: 17},
			"lift_lower_limit": {Chip: 0, Line: 27, ActiveLow: true},
		},
		Tuning: Tuning{
			DriveMaxOutput: 1.0,
			Deadband:       0.05,
			GyroClockwise:  true,
			IntakeSpeed:    0.8,
			SpinnerSpeed:   0.5,
			FlywheelSpeed:  0.9,
			IndexerSpeed:   0.6,
			SpinUpCycles:   25,
			LiftDeadband:   0.1,
			AimKp:          0.03,
			ApproachKp:     0.1,
			TargetArea:     4.0,
			AimTolerance:   1.0,
		},
		Autonomous: AutonomousConfig{
			Period:            15 * time.Second,
			DriveForwardTime:  time.Second,
			DriveForwardSpeed: -0.3,
			ShootTime:         3 * time.Second,
		},
	}
}

// loadFromFile loads configuration from a YAML file on top of cfg
func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides applies environment variable overrides
func applyEnvOverrides(cfg *Config) error {
	if addr := os.Getenv("ROBOT_REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if addr, ok := os.LookupEnv("ROBOT_METRICS_ADDR"); ok {
		cfg.Metrics.Addr = addr
	}
	if period := os.Getenv("ROBOT_LOOP_PERIOD"); period != "" {
		d, err := time.ParseDuration(period)
		if err != nil {
			return fmt.Errorf("invalid ROBOT_LOOP_PERIOD %q: %w", period, err)
		}
		cfg.Loop.Period = d
	}
	if level := os.Getenv("ROBOT_LOG_LEVEL"); level != "" {
		n, err := strconv.Atoi(level)
		if err != nil {
			return fmt.Errorf("invalid ROBOT_LOG_LEVEL %q: %w", level, err)
		}
		cfg.LogLevel = n
	}
	return nil
}

// Validate checks the configuration for values the control loop cannot run with
func (c *Config) Validate() error {
	if c.LogLevel < 0 || c.LogLevel > 4 {
		return fmt.Errorf("log level %d outside [0, 4]", c.LogLevel)
	}
	if c.Loop.Period < time.Millisecond || c.Loop.Period > time.Second {
		return fmt.Errorf("loop period %v outside [1ms, 1s]", c.Loop.Period)
	}
	if c.Loop.TelemetryEvery < 1 {
		return fmt.Errorf("telemetry_every must be at least 1, got %d", c.Loop.TelemetryEvery)
	}
	if c.Autonomous.Period <= 0 {
		return errors.New("autonomous period must be positive")
	}

	ports := make(map[int]JoystickConfig)
	for _, js := range c.Joysticks {
		if _, dup := ports[js.Port]; dup {
			return fmt.Errorf("joystick port %d configured twice", js.Port)
		}
		ports[js.Port] = js
	}
	driver, ok := ports[c.Controls.DriverPort]
	if !ok {
		return fmt.Errorf("driver port %d has no joystick", c.Controls.DriverPort)
	}
	operator, ok := ports[c.Controls.OperatorPort]
	if !ok {
		return fmt.Errorf("operator port %d has no joystick", c.Controls.OperatorPort)
	}
	for name, axis := range map[string]int{
		"forward_axis":  c.Controls.ForwardAxis,
		"strafe_axis":   c.Controls.StrafeAxis,
		"rotation_axis": c.Controls.RotationAxis,
	} {
		if axis < 0 || axis >= len(driver.Axes) {
			return fmt.Errorf("%s %d not mapped on driver joystick", name, axis)
		}
	}
	if c.Controls.LiftAxis < 0 || c.Controls.LiftAxis >= len(operator.Axes) {
		return fmt.Errorf("lift_axis %d not mapped on operator joystick", c.Controls.LiftAxis)
	}

	for _, name := range []string{"front_left", "front_right", "rear_left", "rear_right", "intake", "flywheel", "indexer", "lift", "spinner"} {
		if _, ok := c.Motors[name]; !ok {
			return fmt.Errorf("motor %s not configured", name)
		}
	}
	for _, name := range []string{"lift_brake", "lift_lower_limit"} {
		if _, ok := c.GPIO[name]; !ok {
			return fmt.Errorf("gpio line %s not configured", name)
		}
	}

	return c.Tuning.Validate()
}

// Validate checks the tunable ranges
func (t Tuning) Validate() error {
	if t.DriveMaxOutput <= 0 || t.DriveMaxOutput > 1 {
		return fmt.Errorf("drive_max_output %v outside (0, 1]", t.DriveMaxOutput)
	}
	if t.Deadband < 0 || t.Deadband >= 1 {
		return fmt.Errorf("deadband %v outside [0, 1)", t.Deadband)
	}
	if t.LiftDeadband < 0 || t.LiftDeadband >= 1 {
		return fmt.Errorf("lift_deadband %v outside [0, 1)", t.LiftDeadband)
	}
	for name, v := range map[string]float64{
		"intake_speed":   t.IntakeSpeed,
		"spinner_speed":  t.SpinnerSpeed,
		"flywheel_speed": t.FlywheelSpeed,
		"indexer_speed":  t.IndexerSpeed,
	} {
		if v < -1 || v > 1 {
			return fmt.Errorf("%s %v outside [-1, 1]", name, v)
		}
	}
	if t.SpinUpCycles < 0 {
		return fmt.Errorf("spin_up_cycles must not be negative, got %d", t.SpinUpCycles)
	}
	return nil
}

// ApplySettings overlays string settings (as stored in the redis settings
// hash) onto a copy of t. Unknown keys are ignored; the result is validated.
func (t Tuning) ApplySettings(settings map[string]string) (Tuning, error) {
	out := t
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		Result:           &out,
	})
	if err != nil {
		return t, err
	}
	input := make(map[string]interface{}, len(settings))
	for k, v := range settings {
		input[k] = v
	}
	if err := decoder.Decode(input); err != nil {
		return t, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := out.Validate(); err != nil {
		return t, err
	}
	return out, nil
}
