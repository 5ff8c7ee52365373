package repository

import (
	"time"

	"github.com/zainab-hr/ProjetProduits/pkg/logger"
)

const (
	defaultConnectTimeout = 5 * time.Second
	defaultBoltTimeout    = time.Second
)

type options struct {
	log            logger.Logger
	now            func() time.Time
	connectTimeout time.Duration
	boltTimeout    time.Duration
}

// Option configures a partition.
type Option func(*options)

// WithLogger sets the partition logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClock overrides the timestamp source of partitions that assign their
// own timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithConnectTimeout bounds each Postgres connection attempt.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.connectTimeout = d
		}
	}
}

// WithBoltTimeout bounds waiting for the bbolt file lock.
func WithBoltTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.boltTimeout = d
		}
	}
}

func buildOptions(component string, opts []Option) options {
	o := options{
		now:            time.Now,
		connectTimeout: defaultConnectTimeout,
		boltTimeout:    defaultBoltTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.log = logger.OrGet(o.log, component)
	return o
}
