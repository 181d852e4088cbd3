package hardware

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// OutputLine is a requested GPIO output.
type OutputLine struct {
	name string
	line *gpiocdev.Line
}

func (o *OutputLine) Write(value bool) error {
	val := 0
	if value {
		val = 1
	}
	if err := o.line.SetValue(val); err != nil {
		return fmt.Errorf("failed to set DO %s=%v: %w", o.name, value, err)
	}
	return nil
}

// InputLine is a requested GPIO input.
type InputLine struct {
	name string
	line *gpiocdev.Line
}

func (i *InputLine) Read() (bool, error) {
	val, err := i.line.Value()
	if err != nil {
		return false, fmt.Errorf("failed to read DI %s: %w", i.name, err)
	}
	return val == 1, nil
}

func lineOptions(activeLow bool, opts ...gpiocdev.LineReqOption) []gpiocdev.LineReqOption {
	opts = append(opts, gpiocdev.WithConsumer(Consumer))
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	return opts
}
