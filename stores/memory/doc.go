// Package memory provides in-process implementations of the credential,
// revocation and 2FA challenge stores. They satisfy the same contracts and
// error taxonomy as the durable backends and are used for tests, local
// development and the in-memory store backend of the service.
//
// Every store guards its map with a sync.RWMutex: lookups share the read
// lock, mutations take the write lock.
package memory

import "time"

// Option configures a memory store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
