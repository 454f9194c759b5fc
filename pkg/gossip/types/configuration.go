package types

import (
	"fmt"
	"github.com/hashicorp/go-hclog"
	"time"
)

// The configuration for running a gossip node.
type Configuration struct {
	// First interval to wait for a peer acknowledgment before
	// sending the broadcast again. Each new attempt doubles it.
	RetryInterval time.Duration

	// Upper bound for the interval between two attempts for the
	// same peer and value. Attempts never stop.
	MaxRetryInterval time.Duration

	// How often the pending acknowledgments are verified.
	TickInterval time.Duration

	// How long an outbound message identifier is remembered, so
	// an acknowledgment can be matched to the peer and value.
	CorrelationTTL time.Duration

	// Level used when creating the default logger.
	LogLevel string

	// When not empty, the metrics are exposed over HTTP on
	// this address.
	MetricsAddress string

	// Logger to be used by the node.
	Logger hclog.Logger
}

// ValidateConfiguration verifies if the given configuration can be
// used, returning the first problem found.
func ValidateConfiguration(c *Configuration) error {
	if c == nil {
		return fmt.Errorf("configuration is required")
	}

	if c.RetryInterval <= 0 {
		return fmt.Errorf("invalid retry interval %s, must be positive", c.RetryInterval)
	}

	if c.MaxRetryInterval < c.RetryInterval {
		return fmt.Errorf("max retry interval %s lower than retry interval %s", c.MaxRetryInterval, c.RetryInterval)
	}

	if c.TickInterval <= 0 {
		return fmt.Errorf("invalid tick interval %s, must be positive", c.TickInterval)
	}

	if c.CorrelationTTL < c.MaxRetryInterval {
		return fmt.Errorf("correlation ttl %s lower than max retry interval %s", c.CorrelationTTL, c.MaxRetryInterval)
	}

	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}
