package command

// Subsystem is an exclusive hardware resource. At most one running command
// may require a given subsystem at any time. Implementations are compared by
// identity, so use pointer types.
type Subsystem interface {
	Name() string
}

// Periodic is implemented by subsystems that want a hook once per cycle,
// before triggers are polled.
type Periodic interface {
	Periodic()
}

// Command is a unit of work driven by the Scheduler:
// Initialize once on start, Execute and IsFinished once per cycle while
// running, End exactly once when it finishes or is interrupted.
//
// Lifecycle methods must not block. Implementations must be pointer types.
type Command interface {
	Name() string
	Requirements() []Subsystem
	Interruptible() bool

	Initialize()
	Execute()
	IsFinished() bool
	End(interrupted bool)
}

// Base carries the bookkeeping shared by most commands. Embed it and
// override the lifecycle methods that matter.
type Base struct {
	name          string
	requirements  []Subsystem
	uninterrupted bool
}

func NewBase(name string, requirements ...Subsystem) Base {
	return Base{name: name, requirements: requirements}
}

func (b *Base) Name() string              { return b.name }
func (b *Base) Requirements() []Subsystem { return b.requirements }
func (b *Base) Interruptible() bool       { return !b.uninterrupted }

// SetInterruptible controls whether Schedule may take this command's
// subsystems away while it runs.
func (b *Base) SetInterruptible(v bool) { b.uninterrupted = !v }

func (b *Base) Initialize()      {}
func (b *Base) Execute()         {}
func (b *Base) IsFinished() bool { return false }
func (b *Base) End(bool)         {}

// requirementSet returns the requirements of cmd keyed by identity.
func requirementSet(cmd Command) map[Subsystem]struct{} {
	reqs := cmd.Requirements()
	set := make(map[Subsystem]struct{}, len(reqs))
	for _, r := range reqs {
		set[r] = struct{}{}
	}
	return set
}
