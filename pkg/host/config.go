package host

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Config holds the session settings of a Host.
type Config struct {
	// ReadTimeout is the maximum time to wait for a frame from the page.
	// Heartbeats keep idle sessions alive. Default: 60 seconds.
	ReadTimeout time.Duration

	// WriteTimeout bounds every frame write. Default: 10 seconds.
	WriteTimeout time.Duration

	// HeartbeatInterval is the time between pings. Default: 30 seconds.
	HeartbeatInterval time.Duration

	// MaxMessageSize is the maximum size of an incoming message.
	// Default: 64KB.
	MaxMessageSize int64

	// EventRate and EventBurst bound the events accepted per session.
	// Events over the limit are answered with a non-fatal RateLimited
	// error frame. Default: 50/s with a burst of 100.
	EventRate  rate.Limit
	EventBurst int

	// ReadBufferSize and WriteBufferSize size the upgrader buffers.
	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates the request origin. Default: same host only,
	// as in gorilla/websocket.
	CheckOrigin func(r *http.Request) bool

	// ShutdownTimeout bounds graceful shutdown. Default: 30 seconds.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		MaxMessageSize:    64 * 1024,
		EventRate:         50,
		EventBurst:        100,
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		ShutdownTimeout:   30 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = d.HeartbeatInterval
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.EventRate <= 0 {
		c.EventRate = d.EventRate
	}
	if c.EventBurst <= 0 {
		c.EventBurst = d.EventBurst
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = d.ReadBufferSize
	}
	if c.WriteBufferSize <= 0 {
		c.WriteBufferSize = d.WriteBufferSize
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c
}
