package transfer

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jaywantadh/treecast/config"
	"github.com/jaywantadh/treecast/pkg/logging"
)

const (
	DefaultChunkSize     = config.DefaultChunkSize
	DefaultRetryInterval = config.DefaultRetryInterval
	DefaultDialTimeout   = 30 * time.Second
)

// Options tune a session. Zero values fall back to the defaults.
type Options struct {
	ChunkSize     int
	RetryInterval time.Duration
	DialTimeout   time.Duration
	Logger        logrus.FieldLogger
}

// OptionsFromConfig builds Options from the application config.
func OptionsFromConfig(cfg *config.AppConfig, log logrus.FieldLogger) Options {
	return Options{
		ChunkSize:     cfg.ChunkSize,
		RetryInterval: cfg.RetryInterval,
		Logger:        log,
	}
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = DefaultRetryInterval
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	o.Logger = logging.Or(o.Logger)
	return o
}

// Result summarizes a finished session.
type Result struct {
	SessionID string
	State     State
	Files     int
	Bytes     int64
	// Paths lists the files fully sent or written, in order.
	Paths []string
	// Stalls counts zero-length reads the receiver slept through.
	Stalls int
}
