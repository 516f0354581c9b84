package ws

import "time"

const (
	DefaultReconnectDelay = 5 * time.Second
	DefaultIdleTimeout    = 30 * time.Second
	DefaultPollInterval   = 100 * time.Millisecond
	DefaultWriteTimeout   = 5 * time.Second
)

// Option defines a functional configuration type for the Manager.
type Option func(*Manager)

// WithChannel sets the channel named in the subscribe handshake.
func WithChannel(channel string) Option {
	return func(m *Manager) {
		if channel != "" {
			m.config.channel = channel
		}
	}
}

// WithReconnectDelay sets the fixed pause between a disconnect and the next attempt.
// The delay never grows: reconnection is retried at this pace forever.
func WithReconnectDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.config.reconnectDelay = d
		}
	}
}

// WithIdleTimeout sets how long a connection may stay silent before a keepalive ping.
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.config.idleTimeout = d
		}
	}
}

// WithPollInterval sets how often the read-loop runs its idle check.
func WithPollInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.config.pollInterval = d
		}
	}
}

// WithWriteTimeout bounds every outbound frame.
func WithWriteTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.config.writeTimeout = d
		}
	}
}
