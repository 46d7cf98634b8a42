package mongostore

import "time"

// Config defines the MongoDB connection settings.
type Config struct {
	// URI is the MongoDB connection string.
	URI string `yaml:"uri" validate:"required" mask:"true"`

	Database   string `yaml:"database"   default:"video-streaming"`
	Collection string `yaml:"collection" default:"videos"`

	// ConnectTimeout bounds server selection for every operation.
	ConnectTimeout time.Duration `yaml:"connect_timeout" default:"5s"`

	// PingTimeout bounds the liveness probe used by Status.
	PingTimeout time.Duration `yaml:"ping_timeout" default:"2s"`
}
