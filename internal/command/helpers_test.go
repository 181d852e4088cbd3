package command

import "fmt"

type testSubsystem struct {
	name     string
	periodic int
}

func (s *testSubsystem) Name() string { return s.name }
func (s *testSubsystem) Periodic()    { s.periodic++ }

func newSub(name string) *testSubsystem { return &testSubsystem{name: name} }

// recorder collects lifecycle calls across commands in call order.
type recorder struct {
	events []string
}

func (r *recorder) add(format string, v ...interface{}) {
	r.events = append(r.events, fmt.Sprintf(format, v...))
}

// testCommand finishes after finishAfter executes (0 = never).
type testCommand struct {
	Base
	rec         *recorder
	finishAfter int
	executes    int
	inits       int
	ends        []bool
	panicOn     string
}

func newCmd(rec *recorder, name string, finishAfter int, reqs ...Subsystem) *testCommand {
	return &testCommand{Base: NewBase(name, reqs...), rec: rec, finishAfter: finishAfter}
}

func (c *testCommand) Initialize() {
	c.inits++
	c.executes = 0
	if c.rec != nil {
		c.rec.add("%s.init", c.Name())
	}
	if c.panicOn == "initialize" {
		panic("boom")
	}
}

func (c *testCommand) Execute() {
	c.executes++
	if c.rec != nil {
		c.rec.add("%s.exec", c.Name())
	}
	if c.panicOn == "execute" {
		panic("boom")
	}
}

func (c *testCommand) IsFinished() bool {
	return c.finishAfter > 0 && c.executes >= c.finishAfter
}

func (c *testCommand) End(interrupted bool) {
	c.ends = append(c.ends, interrupted)
	if c.rec != nil {
		c.rec.add("%s.end(%v)", c.Name(), interrupted)
	}
}

type countingObserver struct {
	inits, finishes, interrupts, rejects int
}

func (o *countingObserver) OnInitialize(Command) { o.inits++ }
func (o *countingObserver) OnFinish(Command)     { o.finishes++ }
func (o *countingObserver) OnInterrupt(Command)  { o.interrupts++ }
func (o *countingObserver) OnReject(Command)     { o.rejects++ }
