package miniowr

// Config defines the configuration options for MinIO client.
type Config struct {
	// Endpoint is the MinIO server endpoint (e.g., "localhost:9000").
	Endpoint string `yaml:"endpoint" validate:"required"`

	// AccessKey is the access key for authentication.
	AccessKey string `yaml:"access_key" validate:"required"`

	// SecretKey is the secret key for authentication.
	SecretKey string `yaml:"secret_key" validate:"required" mask:"true"`

	// Bucket holds the video objects. It is created on start when missing.
	Bucket string `yaml:"bucket" default:"videos"`

	// UseSSL enables HTTPS connection to MinIO server.
	UseSSL bool `yaml:"use_ssl" default:"false"`

	// MaxSize is the largest accepted object in bytes.
	MaxSize int64 `yaml:"max_size" default:"524288000" validate:"gt=0"`

	// PartSize is the multipart chunk size used while streaming uploads of unknown length.
	PartSize uint64 `yaml:"part_size" default:"16777216"`
}
