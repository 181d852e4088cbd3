package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "robot.yaml")
	data := `
loop:
  period: 10ms
redis:
  addr: redis.local:6379
tuning:
  intake_speed: 0.5
autonomous:
  drive_forward_time: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	t.Setenv("ROBOT_METRICS_ADDR", "")
	t.Setenv("ROBOT_LOG_LEVEL", "4")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Millisecond, cfg.Loop.Period)
	assert.Equal(t, "redis.local:6379", cfg.Redis.Addr)
	assert.Equal(t, 0.5, cfg.Tuning.IntakeSpeed)
	assert.Equal(t, 0.5, cfg.Tuning.SpinnerSpeed, "untouched keys keep defaults")
	assert.Equal(t, 2*time.Second, cfg.Autonomous.DriveForwardTime)
	assert.Empty(t, cfg.Metrics.Addr, "empty env disables metrics")
	assert.Equal(t, 4, cfg.LogLevel)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadBadEnv(t *testing.T) {
	t.Setenv("ROBOT_LOOP_PERIOD", "fast")
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "ROBOT_LOOP_PERIOD")
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"period", func(c *Config) { c.Loop.Period = 0 }},
		{"telemetry", func(c *Config) { c.Loop.TelemetryEvery = 0 }},
		{"duplicate port", func(c *Config) { c.Joysticks[1].Port = 0 }},
		{"missing operator", func(c *Config) { c.Controls.OperatorPort = 7 }},
		{"axis out of range", func(c *Config) { c.Controls.RotationAxis = 9 }},
		{"missing motor", func(c *Config) { delete(c.Motors, "lift") }},
		{"missing gpio", func(c *Config) { delete(c.GPIO, "lift_brake") }},
		{"max output", func(c *Config) { c.Tuning.DriveMaxOutput = 1.5 }},
		{"deadband", func(c *Config) { c.Tuning.Deadband = 1 }},
		{"speed", func(c *Config) { c.Tuning.IntakeSpeed = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestApplySettings(t *testing.T) {
	base := Default().Tuning

	out, err := base.ApplySettings(map[string]string{
		"drive_max_output": "0.6",
		"gyro_clockwise":   "false",
		"spin_up_cycles":   "10",
		"unknown":          "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, 0.6, out.DriveMaxOutput)
	assert.False(t, out.GyroClockwise)
	assert.Equal(t, 10, out.SpinUpCycles)
	assert.Equal(t, base.IntakeSpeed, out.IntakeSpeed)
	assert.Equal(t, 1.0, base.DriveMaxOutput, "receiver is not modified")

	_, err = base.ApplySettings(map[string]string{"drive_max_output": "3"})
	assert.Error(t, err)

	_, err = base.ApplySettings(map[string]string{"deadband": "wide"})
	assert.Error(t, err)
}
