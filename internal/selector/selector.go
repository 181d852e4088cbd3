// Package selector holds labeled command options with one active selection,
// used for picking the autonomous routine and the drive mode.
package selector

import (
	"sync"

	"robot-service/internal/command"
)

// Chooser is safe for concurrent use: selections usually arrive from the
// messaging goroutine while the control loop reads them.
type Chooser struct {
	name string

	mu           sync.RWMutex
	order        []string
	options      map[string]command.Command
	defaultLabel string
	selected     string
}

func New(name string) *Chooser {
	return &Chooser{
		name:    name,
		options: make(map[string]command.Command),
	}
}

func (c *Chooser) Name() string {
	return c.name
}

// AddOption registers a non-default entry. Labels are unique.
func (c *Chooser) AddOption(label string, cmd command.Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.add(label, cmd)
}

// SetDefault registers the default entry. Only one default may exist.
func (c *Chooser) SetDefault(label string, cmd command.Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.defaultLabel != "" {
		return &command.ConfigurationError{
			Op:     "selector " + c.name,
			Reason: "default already set to " + c.defaultLabel,
		}
	}
	if err := c.add(label, cmd); err != nil {
		return err
	}
	c.defaultLabel = label
	return nil
}

func (c *Chooser) add(label string, cmd command.Command) error {
	if _, ok := c.options[label]; ok {
		return &command.ConfigurationError{
			Op:     "selector " + c.name,
			Reason: "duplicate label " + label,
		}
	}
	c.options[label] = cmd
	c.order = append(c.order, label)
	return nil
}

// Select makes label the active entry. Unknown labels leave the selection
// unchanged.
func (c *Chooser) Select(label string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.options[label]; !ok {
		return &command.LookupError{Op: "selector " + c.name, Key: label}
	}
	c.selected = label
	return nil
}

// Selected returns the active command, the default when nothing was
// selected, or nil when the chooser is empty.
func (c *Chooser) Selected() command.Command {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.options[c.selectedLabel()]
}

func (c *Chooser) SelectedLabel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selectedLabel()
}

func (c *Chooser) selectedLabel() string {
	if c.selected != "" {
		return c.selected
	}
	return c.defaultLabel
}

func (c *Chooser) DefaultLabel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultLabel
}

// Options returns the labels in registration order.
func (c *Chooser) Options() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}
