package command

// FuncCommand builds a command out of closures. Nil closures are no-ops; a
// nil IsDone means the command runs until canceled.
type FuncCommand struct {
	Base

	OnInit    func()
	OnExecute func()
	OnEnd     func(interrupted bool)
	IsDone    func() bool
}

func NewFunc(name string, onInit, onExecute func(), onEnd func(bool), isDone func() bool, requirements ...Subsystem) *FuncCommand {
	return &FuncCommand{
		Base:      NewBase(name, requirements...),
		OnInit:    onInit,
		OnExecute: onExecute,
		OnEnd:     onEnd,
		IsDone:    isDone,
	}
}

// Instant runs fn on initialize and finishes on the first finish-check.
func Instant(name string, fn func(), requirements ...Subsystem) *FuncCommand {
	return NewFunc(name, fn, nil, nil, func() bool { return true }, requirements...)
}

func (c *FuncCommand) Initialize() {
	if c.OnInit != nil {
		c.OnInit()
	}
}

func (c *FuncCommand) Execute() {
	if c.OnExecute != nil {
		c.OnExecute()
	}
}

func (c *FuncCommand) IsFinished() bool {
	if c.IsDone == nil {
		return false
	}
	return c.IsDone()
}

func (c *FuncCommand) End(interrupted bool) {
	if c.OnEnd != nil {
		c.OnEnd(interrupted)
	}
}
