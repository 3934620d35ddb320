package ui

import (
	"fmt"
	"io"
	"sync"
)

// Notifier shows transient messages to the user.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// Console writes notifications as single lines.
type Console struct {
	W  io.Writer
	mu sync.Mutex
}

func NewConsole(w io.Writer) *Console {
	return &Console{W: w}
}

func (c *Console) Info(msg string)  { c.write("", msg) }
func (c *Console) Warn(msg string)  { c.write("Warning: ", msg) }
func (c *Console) Error(msg string) { c.write("Error: ", msg) }

func (c *Console) write(prefix, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.W, "%s%s\n", prefix, msg)
}
