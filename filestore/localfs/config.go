package localfs

// Config defines the configuration of the local filesystem blob store.
type Config struct {
	// Root is the directory blobs are stored under. It is created on start.
	Root string `yaml:"root" default:"./uploads"`

	// MaxSize is the largest accepted blob in bytes.
	MaxSize int64 `yaml:"max_size" default:"524288000" validate:"gt=0"`
}
