package definition

import (
	"github.com/hashicorp/go-hclog"
	"io"
	"os"
)

// NewDefaultLogger creates the logger used when the user does not
// provide one. Everything goes to stderr, since stdout is the
// channel the harness reads replies from.
func NewDefaultLogger(level string) hclog.Logger {
	return NewLogger(level, os.Stderr)
}

// NewLogger creates a logger writing to the given output.
// Unknown levels fall back to info.
func NewLogger(level string, output io.Writer) hclog.Logger {
	l := hclog.LevelFromString(level)
	if l == hclog.NoLevel {
		l = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "gossip",
		Level:  l,
		Output: output,
	})
}
