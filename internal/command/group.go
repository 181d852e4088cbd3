package command

import "fmt"

// SequentialGroup runs its children one after another as a single command.
// Its requirements are the union of the children's, fixed at construction.
type SequentialGroup struct {
	name          string
	commands      []Command
	requirements  []Subsystem
	interruptible bool
	current       int
	active        bool // current child initialized and not yet ended
}

// NewSequentialGroup composes cmds in order. Two children requiring the
// same subsystem would make ownership inside the group ambiguous and are
// rejected with a ConfigurationError.
func NewSequentialGroup(name string, cmds ...Command) (*SequentialGroup, error) {
	g := &SequentialGroup{
		name:          name,
		commands:      cmds,
		interruptible: true,
		current:       -1,
	}

	owner := make(map[Subsystem]string)
	for _, c := range cmds {
		if c == nil {
			return nil, &ConfigurationError{Op: "sequential group " + name, Reason: "nil command"}
		}
		mine := make(map[Subsystem]struct{})
		for _, r := range c.Requirements() {
			if _, dup := mine[r]; dup {
				continue
			}
			mine[r] = struct{}{}
			if prev, ok := owner[r]; ok {
				return nil, &ConfigurationError{
					Op:     "sequential group " + name,
					Reason: fmt.Sprintf("%s and %s both require %s", prev, c.Name(), r.Name()),
				}
			}
			owner[r] = c.Name()
			g.requirements = append(g.requirements, r)
		}
		if !c.Interruptible() {
			g.interruptible = false
		}
	}
	return g, nil
}

// MustSequentialGroup is NewSequentialGroup for static wiring; it panics on
// a ConfigurationError.
func MustSequentialGroup(name string, cmds ...Command) *SequentialGroup {
	g, err := NewSequentialGroup(name, cmds...)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *SequentialGroup) Name() string              { return g.name }
func (g *SequentialGroup) Requirements() []Subsystem { return g.requirements }
func (g *SequentialGroup) Interruptible() bool       { return g.interruptible }

// Current returns the running child, or nil when the group is idle.
func (g *SequentialGroup) Current() Command {
	if g.current < 0 || g.current >= len(g.commands) {
		return nil
	}
	return g.commands[g.current]
}

func (g *SequentialGroup) Initialize() {
	g.current = 0
	g.active = false
	if len(g.commands) > 0 {
		g.commands[0].Initialize()
		g.active = true
	}
}

func (g *SequentialGroup) Execute() {
	if c := g.Current(); c != nil {
		c.Execute()
	}
}

func (g *SequentialGroup) IsFinished() bool {
	c := g.Current()
	if c == nil {
		return true
	}
	if !c.IsFinished() {
		return false
	}
	c.End(false)
	g.active = false
	g.current++
	if g.current < len(g.commands) {
		g.commands[g.current].Initialize()
		g.active = true
		return false
	}
	return true
}

// End forwards an interruption to the current child only; earlier children
// already ended cleanly and later ones never started. A child whose
// Initialize did not return is not ended.
func (g *SequentialGroup) End(interrupted bool) {
	if interrupted && g.active {
		if c := g.Current(); c != nil {
			c.End(true)
		}
	}
	g.current = -1
	g.active = false
}
