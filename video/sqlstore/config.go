package sqlstore

import "time"

// SQLiteConfig defines the settings of the embedded SQLite metadata backend.
type SQLiteConfig struct {
	// Path is the database file. It is created when missing.
	Path string `yaml:"path" default:"./data/videos.db"`

	// BusyTimeout is how long a writer waits for a lock held by another connection.
	BusyTimeout time.Duration `yaml:"busy_timeout" default:"5s"`

	Debug bool `yaml:"debug" default:"false"`
}

// Options tune a Store regardless of its dialect.
type Options struct {
	// PingTimeout bounds the liveness probe used by Status.
	PingTimeout time.Duration `yaml:"ping_timeout" default:"2s"`

	// Migrate creates the videos table and its index on start.
	Migrate bool `yaml:"migrate" default:"true"`
}
