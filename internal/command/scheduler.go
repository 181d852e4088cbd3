package command

import (
	"fmt"

	"robot-service/internal/logger"
)

// Poller is sampled once per cycle by the Scheduler before commands run.
// Triggers implement it.
type Poller interface {
	Poll()
}

// Observer receives scheduler lifecycle notifications.
type Observer interface {
	OnInitialize(cmd Command)
	OnFinish(cmd Command)
	OnInterrupt(cmd Command)
	OnReject(cmd Command)
}

// Scheduler arbitrates subsystem ownership and advances running commands.
// It is single-threaded: every method must be called from the goroutine
// that drives Run.
type Scheduler struct {
	logger *logger.Logger

	subsystems []Subsystem
	registered map[Subsystem]struct{}
	defaults   map[Subsystem]Command
	owners     map[Subsystem]Command

	running    []Command
	runningSet map[Command]struct{}

	pollers   []Poller
	observers []Observer

	enabled bool
}

func NewScheduler(l *logger.Logger) *Scheduler {
	if l == nil {
		l = logger.NewNop()
	}
	return &Scheduler{
		logger:     l,
		registered: make(map[Subsystem]struct{}),
		defaults:   make(map[Subsystem]Command),
		owners:     make(map[Subsystem]Command),
		runningSet: make(map[Command]struct{}),
		enabled:    true,
	}
}

// Register adds sub to the registry and installs defaultCmd as its fallback
// command. The default command must require exactly sub. A nil default only
// registers the subsystem.
func (s *Scheduler) Register(sub Subsystem, defaultCmd Command) error {
	if sub == nil {
		return &ConfigurationError{Op: "register", Reason: "nil subsystem"}
	}
	if defaultCmd != nil {
		reqs := requirementSet(defaultCmd)
		if _, ok := reqs[sub]; !ok || len(reqs) != 1 {
			return &ConfigurationError{
				Op:     "register " + sub.Name(),
				Reason: fmt.Sprintf("default command %s must require exactly %s", defaultCmd.Name(), sub.Name()),
			}
		}
	}

	if _, ok := s.registered[sub]; !ok {
		s.registered[sub] = struct{}{}
		s.subsystems = append(s.subsystems, sub)
	}

	if old, ok := s.defaults[sub]; ok && old != defaultCmd && s.IsScheduled(old) {
		s.Cancel(old)
	}
	if defaultCmd == nil {
		delete(s.defaults, sub)
		return nil
	}
	s.defaults[sub] = defaultCmd
	s.logger.Debugf("Default command for %s: %s", sub.Name(), defaultCmd.Name())
	return nil
}

// AddPoller registers a trigger to be polled every cycle, in registration order.
func (s *Scheduler) AddPoller(p Poller) {
	s.pollers = append(s.pollers, p)
}

func (s *Scheduler) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

// SetEnabled switches the scheduler between enabled and disabled. Disabling
// cancels every running command; while disabled Schedule rejects everything
// and Run only keeps trigger edge state current.
func (s *Scheduler) SetEnabled(enabled bool) {
	if s.enabled == enabled {
		return
	}
	s.enabled = enabled
	if !enabled {
		s.CancelAll()
	}
	s.logger.Infof("Scheduler enabled: %v", enabled)
}

func (s *Scheduler) Enabled() bool {
	return s.enabled
}

// Schedule starts cmd now. Owners of the required subsystems are
// interrupted when they allow it; if any of them does not, cmd is rejected
// and nothing changes. Reports whether cmd is running afterwards.
func (s *Scheduler) Schedule(cmd Command) bool {
	if cmd == nil {
		return false
	}
	if s.IsScheduled(cmd) {
		return true
	}
	if !s.enabled {
		s.reject(cmd, "scheduler disabled")
		return false
	}

	var conflicts []Command
	seen := make(map[Command]struct{})
	for _, r := range cmd.Requirements() {
		owner, ok := s.owners[r]
		if !ok {
			continue
		}
		if _, dup := seen[owner]; dup {
			continue
		}
		if !owner.Interruptible() && !s.isDefaultFor(owner, r) {
			s.reject(cmd, fmt.Sprintf("%s held by non-interruptible %s", r.Name(), owner.Name()))
			return false
		}
		seen[owner] = struct{}{}
		conflicts = append(conflicts, owner)
	}

	for _, owner := range conflicts {
		s.logger.Debugf("%s interrupts %s", cmd.Name(), owner.Name())
		s.remove(owner, true)
	}

	// An interrupted command's End may have scheduled cmd itself or claimed
	// one of its subsystems.
	if s.IsScheduled(cmd) {
		return true
	}
	if !s.enabled {
		s.reject(cmd, "scheduler disabled")
		return false
	}
	for _, r := range cmd.Requirements() {
		if owner, ok := s.owners[r]; ok {
			s.reject(cmd, fmt.Sprintf("%s claimed by %s", r.Name(), owner.Name()))
			return false
		}
	}

	return s.start(cmd)
}

// Cancel interrupts cmd if it is running and frees its subsystems at once.
func (s *Scheduler) Cancel(cmd Command) {
	if cmd == nil || !s.IsScheduled(cmd) {
		return
	}
	s.logger.Debugf("Canceling %s", cmd.Name())
	s.remove(cmd, true)
}

func (s *Scheduler) CancelAll() {
	for _, cmd := range append([]Command(nil), s.running...) {
		s.Cancel(cmd)
	}
}

// Run performs one control cycle: subsystem periodic hooks, trigger polls,
// command advance, then default-command refill for idle subsystems.
func (s *Scheduler) Run() {
	for _, sub := range s.subsystems {
		if p, ok := sub.(Periodic); ok {
			s.guard(sub.Name(), "periodic", p.Periodic)
		}
	}

	for _, p := range s.pollers {
		p.Poll()
	}

	if !s.enabled {
		return
	}

	for _, cmd := range append([]Command(nil), s.running...) {
		if !s.IsScheduled(cmd) {
			continue
		}
		if !s.guard(cmd.Name(), "execute", cmd.Execute) {
			s.drop(cmd)
			continue
		}
		if !s.IsScheduled(cmd) {
			continue
		}
		var finished bool
		if !s.guard(cmd.Name(), "isFinished", func() { finished = cmd.IsFinished() }) {
			s.drop(cmd)
			continue
		}
		if finished {
			s.logger.Debugf("%s finished", cmd.Name())
			s.remove(cmd, false)
		}
	}

	for _, sub := range s.subsystems {
		def, ok := s.defaults[sub]
		if !ok {
			continue
		}
		if _, owned := s.owners[sub]; owned || s.IsScheduled(def) {
			continue
		}
		s.start(def)
	}
}

func (s *Scheduler) IsScheduled(cmd Command) bool {
	_, ok := s.runningSet[cmd]
	return ok
}

// Requiring returns the command that currently owns sub, or nil.
func (s *Scheduler) Requiring(sub Subsystem) Command {
	return s.owners[sub]
}

func (s *Scheduler) DefaultCommand(sub Subsystem) Command {
	return s.defaults[sub]
}

// Subsystems returns the registered subsystems in registration order.
func (s *Scheduler) Subsystems() []Subsystem {
	return append([]Subsystem(nil), s.subsystems...)
}

// Running returns the running commands in scheduling order.
func (s *Scheduler) Running() []Command {
	return append([]Command(nil), s.running...)
}

func (s *Scheduler) isDefaultFor(cmd Command, sub Subsystem) bool {
	def, ok := s.defaults[sub]
	return ok && def == cmd
}

// start marks cmd running and initializes it. The caller has checked that
// every requirement is free. Reports false when Initialize faulted or cmd
// was interrupted before Initialize returned.
func (s *Scheduler) start(cmd Command) bool {
	s.running = append(s.running, cmd)
	s.runningSet[cmd] = struct{}{}
	for _, r := range cmd.Requirements() {
		s.owners[r] = cmd
	}
	s.logger.Debugf("Initializing %s", cmd.Name())
	if !s.guard(cmd.Name(), "initialize", cmd.Initialize) {
		s.drop(cmd)
		return false
	}
	if !s.IsScheduled(cmd) {
		return false
	}
	for _, o := range s.observers {
		o.OnInitialize(cmd)
	}
	return true
}

// remove ends cmd and releases everything it holds.
func (s *Scheduler) remove(cmd Command, interrupted bool) {
	s.release(cmd)
	s.guard(cmd.Name(), "end", func() { cmd.End(interrupted) })
	for _, o := range s.observers {
		if interrupted {
			o.OnInterrupt(cmd)
		} else {
			o.OnFinish(cmd)
		}
	}
}

// drop removes a command whose lifecycle call panicked.
func (s *Scheduler) drop(cmd Command) {
	if !s.IsScheduled(cmd) {
		return
	}
	s.logger.Warnf("Removing faulted command %s", cmd.Name())
	s.remove(cmd, true)
}

func (s *Scheduler) release(cmd Command) {
	delete(s.runningSet, cmd)
	for i, c := range s.running {
		if c == cmd {
			s.running = append(s.running[:i], s.running[i+1:]...)
			break
		}
	}
	for _, r := range cmd.Requirements() {
		if s.owners[r] == cmd {
			delete(s.owners, r)
		}
	}
}

func (s *Scheduler) reject(cmd Command, reason string) {
	s.logger.Debugf("Rejected %s: %s", cmd.Name(), reason)
	for _, o := range s.observers {
		o.OnReject(cmd)
	}
}

// guard runs fn and converts a panic into a logged fault so one bad command
// cannot stall the whole cycle.
func (s *Scheduler) guard(name, phase string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("%s panicked in %s: %v", name, phase, r)
			ok = false
		}
	}()
	fn()
	return true
}
