package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robot-service/internal/command"
	"robot-service/internal/logger"
	"robot-service/internal/types"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	h := NewHandler(c, func() (types.Telemetry, bool) { return types.Telemetry{}, false }, logger.NewNop())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestCollectorCommandEvents(t *testing.T) {
	c := NewCollector()
	cmd := command.Instant("Intake", func() {})

	c.OnInitialize(cmd)
	c.OnInitialize(cmd)
	c.OnFinish(cmd)
	c.OnInterrupt(cmd)
	c.OnReject(cmd)

	body := scrape(t, c)
	assert.Contains(t, body, `robot_command_events_total{command="Intake",event="initialize"} 2`)
	assert.Contains(t, body, `robot_command_events_total{command="Intake",event="finish"} 1`)
	assert.Contains(t, body, `robot_command_events_total{command="Intake",event="interrupt"} 1`)
	assert.Contains(t, body, `robot_command_events_total{command="Intake",event="reject"} 1`)
}

func TestCollectorCycles(t *testing.T) {
	c := NewCollector()
	c.ObserveCycle(2*time.Millisecond, false)
	c.ObserveCycle(30*time.Millisecond, true)

	body := scrape(t, c)
	assert.Contains(t, body, "robot_cycles_total 2")
	assert.Contains(t, body, "robot_cycle_overruns_total 1")
	assert.Contains(t, body, "robot_cycle_duration_seconds_count 2")
}

func TestCollectorMode(t *testing.T) {
	c := NewCollector()
	assert.Contains(t, scrape(t, c), `robot_mode{mode="disabled"} 1`)

	c.SetMode(types.ModeTeleop)
	body := scrape(t, c)
	assert.Contains(t, body, `robot_mode{mode="disabled"} 0`)
	assert.Contains(t, body, `robot_mode{mode="teleop"} 1`)
}

func TestHandlerMetricsEndpoint(t *testing.T) {
	c := NewCollector()
	c.ObserveCycle(time.Millisecond, false)
	body := scrape(t, c)
	assert.Contains(t, body, "# TYPE robot_cycles_total counter")
	assert.Contains(t, body, "go_goroutines")
}

func TestHandlerStatus(t *testing.T) {
	c := NewCollector()
	var snapshot types.Telemetry
	ready := false
	h := NewHandler(c, func() (types.Telemetry, bool) { return snapshot, ready }, logger.NewNop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	snapshot = types.Telemetry{
		Mode:          types.ModeAutonomous,
		Enabled:       true,
		Cycle:         7,
		Commands:      map[string]string{"drive": "DriveForwardTime"},
		Running:       []string{"DriveForwardTime"},
		AutoSelected:  "Drive Forward",
		AutoOptions:   []string{"Drive Forward"},
		DriveSelected: "Default Drive",
	}
	ready = true

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp statusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, types.ModeAutonomous, resp.Mode)
	assert.Equal(t, uint64(7), resp.Cycle)
	assert.Equal(t, "Drive Forward", resp.Auto.Selected)
	assert.Equal(t, "Default Drive", resp.Drive.Selected)
	assert.Equal(t, "DriveForwardTime", resp.Commands["drive"])
}

func TestHandlerHealthz(t *testing.T) {
	h := NewHandler(NewCollector(), func() (types.Telemetry, bool) { return types.Telemetry{}, false }, logger.NewNop())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
