package app

import (
	"time"

	"github.com/rise-and-shine/vidstream/filestore/localfs"
	"github.com/rise-and-shine/vidstream/filestore/miniowr"
	"github.com/rise-and-shine/vidstream/http/server"
	"github.com/rise-and-shine/vidstream/observability/logger"
	"github.com/rise-and-shine/vidstream/observability/tracing"
	"github.com/rise-and-shine/vidstream/pg"
	"github.com/rise-and-shine/vidstream/video/mongostore"
	"github.com/rise-and-shine/vidstream/video/sqlstore"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"

	MetadataMongo    = "mongo"
	MetadataPostgres = "postgres"
	MetadataSQLite   = "sqlite"
	MetadataMemory   = "memory"
)

// Config is the configuration of the whole service, loaded from ./config/${ENVIRONMENT}.yaml.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Logger    logger.Config   `yaml:"logger"`
	Tracing   tracing.Config  `yaml:"tracing"`
	HTTP      server.Config   `yaml:"http"`
	Storage   StorageConfig   `yaml:"storage"`
	Metadata  MetadataConfig  `yaml:"metadata"`
	Upload    UploadConfig    `yaml:"upload"`
	Reconcile ReconcileConfig `yaml:"reconcile"`

	// ShutdownTimeout bounds the graceful shutdown after SIGINT or SIGTERM.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"30s"`
}

type ServiceConfig struct {
	Name    string `yaml:"name"    default:"vidstream"`
	Version string `yaml:"version" default:"dev"`
}

// StorageConfig selects and configures the blob store.
type StorageConfig struct {
	Backend string `yaml:"backend" default:"local" validate:"oneof=local minio"`

	// MaxUploadSize is the largest accepted video in bytes. It overrides the
	// max_size of the selected backend.
	MaxUploadSize int64 `yaml:"max_upload_size" default:"524288000" validate:"gt=0"`

	Local localfs.Config  `yaml:"local"`
	Minio *miniowr.Config `yaml:"minio" validate:"required_if=Backend minio"`
}

// MetadataConfig selects and configures the metadata store.
type MetadataConfig struct {
	Backend string `yaml:"backend" default:"mongo" validate:"oneof=mongo postgres sqlite memory"`

	Mongo    *mongostore.Config    `yaml:"mongo"    validate:"required_if=Backend mongo"`
	Postgres *pg.Config            `yaml:"postgres" validate:"required_if=Backend postgres"`
	SQLite   sqlstore.SQLiteConfig `yaml:"sqlite"`

	// SQL applies to the postgres and sqlite backends.
	SQL sqlstore.Options `yaml:"sql"`
}

// UploadConfig tunes the compensating blob delete of failed uploads.
type UploadConfig struct {
	CompensationAttempts uint          `yaml:"compensation_attempts" default:"3"    validate:"gte=1"`
	CompensationDelay    time.Duration `yaml:"compensation_delay"    default:"50ms"`
}

// ReconcileConfig configures the scheduled reconciliation.
type ReconcileConfig struct {
	// Schedule is a cron expression or descriptor. Empty disables the schedule.
	Schedule string `yaml:"schedule" default:"@every 15m"`

	// StrayBlobGrace is the minimum age of an unreferenced blob before it is swept.
	StrayBlobGrace time.Duration `yaml:"stray_blob_grace" default:"1h"`

	ExistenceCheckConcurrency int `yaml:"existence_check_concurrency" default:"8" validate:"gte=1"`

	JobTimeout time.Duration `yaml:"job_timeout" default:"10m"`
}
