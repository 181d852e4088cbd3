package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LogLevelWarning, true)

	l.Infof("info %d", 1)
	l.Debugf("debug %d", 2)
	assert.Empty(t, buf.String())

	l.Warnf("warn %d", 3)
	assert.Contains(t, buf.String(), "warn 3")
	assert.NotContains(t, buf.String(), "time=")
}

func TestWithTagAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LogLevelDebug, false).WithTag("scheduler")

	l.Debugf("cycle")
	assert.Contains(t, buf.String(), "component=scheduler")
	assert.Contains(t, buf.String(), "time=")
	assert.Equal(t, "scheduler", l.Tag())
}

func TestNopDoesNotPanic(t *testing.T) {
	l := NewNop()
	l.Errorf("dropped %v", "x")
	l.WithTag("x").Infof("dropped")
}
