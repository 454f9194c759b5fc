package definition

import (
	"github.com/jabolina/go-gossip/pkg/gossip/types"
	"time"
)

const (
	DefaultRetryInterval    = 200 * time.Millisecond
	DefaultMaxRetryInterval = 2 * time.Second
	DefaultTickInterval     = 50 * time.Millisecond
	DefaultCorrelationTTL   = time.Minute
	DefaultLogLevel         = "INFO"
)

// Creates the default configuration that is ready to be used.
// The metrics are not exposed unless an address is set.
func DefaultConfiguration() *types.Configuration {
	return &types.Configuration{
		RetryInterval:    DefaultRetryInterval,
		MaxRetryInterval: DefaultMaxRetryInterval,
		TickInterval:     DefaultTickInterval,
		CorrelationTTL:   DefaultCorrelationTTL,
		LogLevel:         DefaultLogLevel,
		Logger:           NewDefaultLogger(DefaultLogLevel),
	}
}
