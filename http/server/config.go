package server

import (
	"fmt"
	"time"
)

// Config defines configuration options for the HTTP server.
type Config struct {
	// HideErrorDetails removes traces and details from error responses.
	HideErrorDetails bool `yaml:"hide_error_details"`

	Host string `yaml:"host" default:"0.0.0.0"`
	Port int    `yaml:"port" default:"5000"    validate:"required"`

	// ReadTimeout bounds reading a whole request, uploads included.
	ReadTimeout time.Duration `yaml:"read_timeout" default:"15m"`

	// WriteTimeout bounds writing a whole response, streamed videos included.
	WriteTimeout time.Duration `yaml:"write_timeout" default:"1h"`

	IdleTimeout time.Duration `yaml:"idle_timeout" default:"120s"`

	// HandleTimeout bounds the handling of JSON endpoints. Upload and stream
	// endpoints are only bounded by the read and write timeouts.
	HandleTimeout time.Duration `yaml:"request_timeout" default:"10s"`

	// BodyLimit is the maximum request body size in bytes. It must leave room for
	// the multipart envelope around the largest accepted video.
	BodyLimit int `yaml:"body_limit" default:"536870912" validate:"gt=0"`
}

// Address returns the server's listen address in the form "host:port".
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
