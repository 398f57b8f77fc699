package syncengine

import "time"

// Options bounds a single Sync call (spec §4.6, §5).
type Options struct {
	// MaxRetries bounds the Pulling-Merging-Pushing loop triggered by a
	// stale-base rejection from the server. Default 3.
	MaxRetries int

	// FanOut bounds the concurrent document fetches/uploads during
	// Downloading and Uploading. Default 16.
	FanOut int

	// PerRequestTimeout bounds any single relay call. Default 30s.
	PerRequestTimeout time.Duration

	// PerSyncTimeout bounds the whole Sync call, across every retry.
	// Default 5m.
	PerSyncTimeout time.Duration

	// Progress, if set, is invoked at each phase transition and for each
	// per-file download/upload unit of work.
	Progress ProgressFunc
}

const (
	defaultMaxRetries        = 3
	defaultFanOut            = 16
	defaultPerRequestTimeout = 30 * time.Second
	defaultPerSyncTimeout    = 5 * time.Minute
)

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetries
	}
	if o.FanOut <= 0 {
		o.FanOut = defaultFanOut
	}
	if o.PerRequestTimeout <= 0 {
		o.PerRequestTimeout = defaultPerRequestTimeout
	}
	if o.PerSyncTimeout <= 0 {
		o.PerSyncTimeout = defaultPerSyncTimeout
	}
	return o
}
