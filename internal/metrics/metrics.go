package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"robot-service/internal/command"
	"robot-service/internal/types"
)

var modes = []types.RobotMode{
	types.ModeDisabled,
	types.ModeAutonomous,
	types.ModeTeleop,
	types.ModeEStopped,
}

// Collector records scheduler and control loop activity. It implements
// command.Observer and is safe to call from the loop goroutine while the
// HTTP server scrapes.
type Collector struct {
	registry *prometheus.Registry

	commandEvents *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	overruns      prometheus.Counter
	cycles        prometheus.Counter
	mode          *prometheus.GaugeVec
}

var _ command.Observer = (*Collector)(nil)

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		commandEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "robot_command_events_total",
				Help: "Scheduler lifecycle events per command",
			},
			[]string{"command", "event"},
		),
		cycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "robot_cycle_duration_seconds",
				Help:    "Time spent in one scheduler cycle",
				Buckets: []float64{.0005, .001, .002, .005, .01, .02, .05, .1},
			},
		),
		overruns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "robot_cycle_overruns_total",
			Help: "Cycles that took longer than the loop period",
		}),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "robot_cycles_total",
			Help: "Scheduler cycles run",
		}),
		mode: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "robot_mode",
				Help: "1 for the current robot mode, 0 otherwise",
			},
			[]string{"mode"},
		),
	}

	c.registry.MustRegister(
		c.commandEvents,
		c.cycleDuration,
		c.overruns,
		c.cycles,
		c.mode,
		collectors.NewGoCollector(),
	)
	c.SetMode(types.ModeDisabled)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) OnInitialize(cmd command.Command) {
	c.commandEvents.WithLabelValues(cmd.Name(), "initialize").Inc()
}

func (c *Collector) OnFinish(cmd command.Command) {
	c.commandEvents.WithLabelValues(cmd.Name(), "finish").Inc()
}

func (c *Collector) OnInterrupt(cmd command.Command) {
	c.commandEvents.WithLabelValues(cmd.Name(), "interrupt").Inc()
}

func (c *Collector) OnReject(cmd command.Command) {
	c.commandEvents.WithLabelValues(cmd.Name(), "reject").Inc()
}

// ObserveCycle records one scheduler cycle.
func (c *Collector) ObserveCycle(d time.Duration, overrun bool) {
	c.cycles.Inc()
	c.cycleDuration.Observe(d.Seconds())
	if overrun {
		c.overruns.Inc()
	}
}

func (c *Collector) SetMode(mode types.RobotMode) {
	for _, m := range modes {
		v := 0.0
		if m == mode {
			v = 1
		}
		c.mode.WithLabelValues(string(m)).Set(v)
	}
}
