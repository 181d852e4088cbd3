package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("loop:\n  period: 10ms\nredis:\n  addr: 10.0.0.2:6379\n"), 0o644))
	t.Setenv("ROBOT_REDIS_ADDR", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"check-config", "--config", path, "--log", "4"})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "period: 10ms")
	assert.Contains(t, out.String(), "addr: 10.0.0.2:6379")
	assert.Contains(t, out.String(), "log_level: 4")
}

func TestCheckConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("loop:\n  period: 5s\n"), 0o644))

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"check-config", "--config", path})
	assert.Error(t, rootCmd.Execute())
}
