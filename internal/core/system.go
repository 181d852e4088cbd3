package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"robot-service/internal/command"
	"robot-service/internal/config"
	"robot-service/internal/logger"
	"robot-service/internal/messaging"
	"robot-service/internal/types"
)

// RobotSystem runs the control loop. The scheduler, the container's
// commands and the tuning are owned by the loop goroutine; everything else
// (mode machine, Redis callbacks) hands work to it through submit.
type RobotSystem struct {
	cfg     *config.Config
	logger  *logger.Logger
	io      HardwareIO
	redis   MessagingClient
	monitor Monitor

	scheduler *command.Scheduler
	container *Container
	machine   stateMachine

	// loop goroutine only
	tuning  config.Tuning
	autoCmd command.Command
	cycle   uint64
	parked  bool

	// set by the mode machine on emergency stop, never cleared
	estopped atomic.Bool

	mu      sync.Mutex
	pending []func()

	modeMu sync.RWMutex
	mode   types.RobotMode

	telemetry chan types.Telemetry
	latestMu  sync.RWMutex
	latest    types.Telemetry
	hasLatest bool

	now    func() time.Time
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRobotSystem(cfg *config.Config, io HardwareIO, msg MessagingClient, l *logger.Logger) *RobotSystem {
	ctx, cancel := context.WithCancel(context.Background())
	scheduler := command.NewScheduler(l.WithTag("scheduler"))
	scheduler.SetEnabled(false)
	return &RobotSystem{
		cfg:       cfg,
		logger:    l,
		io:        io,
		redis:     msg,
		scheduler: scheduler,
		tuning:    cfg.Tuning,
		mode:      types.ModeDisabled,
		telemetry: make(chan types.Telemetry, 1),
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SetMonitor attaches a metrics observer. Call before Start.
func (s *RobotSystem) SetMonitor(m Monitor) {
	s.monitor = m
	s.scheduler.AddObserver(m)
	m.SetMode(s.Mode())
}

func (s *RobotSystem) Start() error {
	s.logger.Infof("Starting robot system")

	if err := s.setup(); err != nil {
		return err
	}

	if err := s.initFSM(s.ctx); err != nil {
		return fmt.Errorf("failed to start mode machine: %w", err)
	}

	s.wg.Add(2)
	go s.runLoop()
	go s.runPublisher()

	// Start listeners last so no command arrives before the loop runs
	if err := s.redis.StartListening(); err != nil {
		return fmt.Errorf("failed to start Redis listeners: %w", err)
	}

	s.logger.Infof("Robot system started, loop period %v", s.cfg.Loop.Period)
	return nil
}

// setup brings up hardware, the container and Redis. The loop is not
// running yet, so loop-owned state may be touched directly.
func (s *RobotSystem) setup() error {
	if err := s.io.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize hardware: %w", err)
	}

	container, err := NewContainer(s.cfg, s.io, s.scheduler, &s.tuning, s.now, s.logger.WithTag("container"))
	if err != nil {
		return fmt.Errorf("failed to build robot container: %w", err)
	}
	s.container = container

	s.redis.SetCallbacks(messaging.Callbacks{
		ModeCallback:        s.handleModeRequest,
		ChooserCallback:     s.handleChooserRequest,
		HeadingCallback:     s.handleHeadingUpdate,
		ZeroHeadingCallback: s.handleZeroHeading,
		VisionCallback:      s.handleVisionUpdate,
		SettingsCallback:    s.handleSettingsUpdate,
	})

	if err := s.redis.Connect(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	settings, err := s.redis.GetSettings()
	if err != nil {
		s.logger.Warnf("Failed to load settings, using configured tuning: %v", err)
	} else if len(settings) > 0 {
		s.applySettings(settings)
	}
	return nil
}

func (s *RobotSystem) runLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Loop.Period)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Infof("Control loop stopped after %d cycles", s.cycle)
			return
		case <-ticker.C:
			s.step()
		}
	}
}

// step runs one control cycle.
func (s *RobotSystem) step() {
	start := time.Now()

	for _, fn := range s.drain() {
		fn()
	}
	if !s.estopped.Load() {
		s.scheduler.Run()
	}
	// Checked again after Run: an emergency stop during the cycle may have
	// been followed by command output writes.
	if s.estopped.Load() && !s.parked {
		s.park()
	}
	s.cycle++

	elapsed := time.Since(start)
	overrun := elapsed > s.cfg.Loop.Period
	if overrun {
		s.logger.Warnf("Cycle %d overran: %v > %v", s.cycle, elapsed, s.cfg.Loop.Period)
	}
	if s.monitor != nil {
		s.monitor.ObserveCycle(elapsed, overrun)
	}

	if s.cycle%uint64(s.cfg.Loop.TelemetryEvery) == 0 {
		s.offerTelemetry(s.snapshot())
	}
}

// park ends every command and stops all motors after an emergency stop.
// Loop goroutine only.
func (s *RobotSystem) park() {
	s.scheduler.SetEnabled(false)
	s.container.StopOutputs()
	s.io.StopAllMotors()
	s.parked = true
	s.logger.Warnf("Outputs parked after emergency stop")
}

// submit queues fn to run on the loop goroutine at the start of the next
// cycle. Safe from any goroutine.
func (s *RobotSystem) submit(fn func()) {
	s.mu.Lock()
	s.pending = append(s.pending, fn)
	s.mu.Unlock()
}

func (s *RobotSystem) drain() []func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fns := s.pending
	s.pending = nil
	return fns
}

// applySettings merges robot.* settings into the tuning. Loop goroutine only.
func (s *RobotSystem) applySettings(settings map[string]string) {
	tuning, err := s.tuning.ApplySettings(settings)
	if err != nil {
		s.logger.Warnf("Ignoring settings update: %v", err)
		return
	}
	s.tuning = tuning
	s.container.ApplyTuning(tuning)
	s.logger.Infof("Applied %d tuning settings", len(settings))
}

func (s *RobotSystem) snapshot() types.Telemetry {
	commands := make(map[string]string)
	for _, sub := range s.scheduler.Subsystems() {
		name := ""
		if cmd := s.scheduler.Requiring(sub); cmd != nil {
			name = cmd.Name()
		}
		commands[sub.Name()] = name
	}

	running := s.scheduler.Running()
	names := make([]string, 0, len(running))
	for _, cmd := range running {
		names = append(names, cmd.Name())
	}

	return types.Telemetry{
		Mode:           s.Mode(),
		Enabled:        s.scheduler.Enabled(),
		Cycle:          s.cycle,
		Timestamp:      s.now(),
		Commands:       commands,
		Running:        names,
		AutoSelected:   s.container.AutoChooser.SelectedLabel(),
		AutoOptions:    s.container.AutoChooser.Options(),
		DriveSelected:  s.container.DriveChooser.SelectedLabel(),
		DriveOptions:   s.container.DriveChooser.Options(),
		HeadingDegrees: s.container.Heading.Degrees(),
	}
}

// offerTelemetry hands t to the publisher without blocking; an unpublished
// older snapshot is replaced.
func (s *RobotSystem) offerTelemetry(t types.Telemetry) {
	s.latestMu.Lock()
	s.latest = t
	s.hasLatest = true
	s.latestMu.Unlock()

	select {
	case s.telemetry <- t:
		return
	default:
	}
	select {
	case <-s.telemetry:
	default:
	}
	select {
	case s.telemetry <- t:
	default:
	}
}

func (s *RobotSystem) runPublisher() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case t := <-s.telemetry:
			if err := s.redis.PublishTelemetry(t); err != nil {
				s.logger.Warnf("Failed to publish telemetry: %v", err)
			}
		}
	}
}

// Latest returns the most recent telemetry snapshot.
func (s *RobotSystem) Latest() (types.Telemetry, bool) {
	s.latestMu.RLock()
	defer s.latestMu.RUnlock()
	return s.latest, s.hasLatest
}

func (s *RobotSystem) Shutdown() {
	s.logger.Infof("Shutting down robot system")
	s.cancel()
	s.wg.Wait()

	// The loop is stopped; end running commands and park the mechanisms
	s.scheduler.SetEnabled(false)
	if s.container != nil {
		s.container.StopOutputs()
	}

	if err := s.redis.Close(); err != nil {
		s.logger.Warnf("Failed to close Redis client: %v", err)
	}
	s.io.Cleanup()
}
