// Package app wires the configured backends into the HTTP service and runs it.
package app

import (
	"context"
	"errors"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"
	"github.com/rise-and-shine/vidstream/catalog"
	"github.com/rise-and-shine/vidstream/filestore"
	"github.com/rise-and-shine/vidstream/filestore/localfs"
	"github.com/rise-and-shine/vidstream/filestore/miniowr"
	"github.com/rise-and-shine/vidstream/http/server"
	"github.com/rise-and-shine/vidstream/http/server/middleware"
	"github.com/rise-and-shine/vidstream/http/videoapi"
	"github.com/rise-and-shine/vidstream/meta"
	"github.com/rise-and-shine/vidstream/observability/logger"
	"github.com/rise-and-shine/vidstream/observability/tracing"
	"github.com/rise-and-shine/vidstream/reconcile"
	"github.com/rise-and-shine/vidstream/streaming"
	"github.com/rise-and-shine/vidstream/upload"
	"github.com/rise-and-shine/vidstream/video"
	"github.com/rise-and-shine/vidstream/video/memstore"
	"github.com/rise-and-shine/vidstream/video/mongostore"
	"github.com/rise-and-shine/vidstream/video/sqlstore"
	"golang.org/x/sync/errgroup"
)

// APIPrefix is the path all routes are mounted under.
const APIPrefix = "/api"

// App is the assembled service.
type App struct {
	cfg Config
	log logger.Logger

	blobs     filestore.BlobStore
	store     video.Backend
	server    *server.HTTPServer
	scheduler *reconcile.Scheduler

	shutdownTracer func() error
}

// New connects the configured backends and builds the HTTP server and the
// reconciliation schedule. Nothing is served until Run is called.
func New(ctx context.Context, cfg Config) (*App, error) {
	a := &App{cfg: cfg, log: logger.Named("app")}

	shutdownTracer, err := tracing.InitGlobalTracer(ctx, cfg.Tracing)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	a.shutdownTracer = shutdownTracer

	a.blobs, err = newBlobStore(ctx, cfg.Storage)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	a.store, err = newMetadataStore(ctx, cfg.Metadata)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	engine := reconcile.New(a.store, a.store, a.blobs,
		reconcile.WithConcurrency(cfg.Reconcile.ExistenceCheckConcurrency),
	)

	handler := videoapi.New(videoapi.Config{
		HideErrorDetails: cfg.HTTP.HideErrorDetails,
		HandleTimeout:    cfg.HTTP.HandleTimeout,
		StrayBlobGrace:   cfg.Reconcile.StrayBlobGrace,
	}, videoapi.Deps{
		Upload: upload.New(a.blobs, a.store, a.store,
			upload.WithCompensation(cfg.Upload.CompensationAttempts, cfg.Upload.CompensationDelay),
		),
		Catalog:   catalog.New(a.store),
		Streaming: streaming.New(a.store, a.blobs),
		Reconcile: engine,
		Status:    a.store,
	})

	httpLog := logger.Named("http")
	a.server = server.NewHTTPServer(cfg.HTTP, []server.Middleware{
		middleware.NewRecoveryMW(httpLog),
		middleware.NewTracingMW(),
		middleware.NewMetaInjectMW(meta.GetServiceName(), meta.GetServiceVersion()),
		middleware.NewLoggerMW(httpLog),
		middleware.NewErrorHandlerMW(cfg.HTTP.HideErrorDetails),
	})
	a.server.RegisterRouter(func(r fiber.Router) {
		handler.Register(r.Group(APIPrefix))
	})

	if cfg.Reconcile.Schedule != "" {
		a.scheduler = reconcile.NewScheduler(reconcile.WithJobTimeout(cfg.Reconcile.JobTimeout))
		err = a.scheduler.Add(cfg.Reconcile.Schedule, reconcile.NewJob(engine, cfg.Reconcile.StrayBlobGrace))
		if err != nil {
			return nil, errx.Wrap(err)
		}
	}

	return a, nil
}

// HTTP returns the underlying Fiber application.
func (a *App) HTTP() *fiber.App {
	return a.server.App()
}

// Run serves HTTP and runs the reconciliation schedule until ctx is canceled or
// the server fails, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Infof("http server listening on %s", a.cfg.HTTP.Address())
		return a.server.Start()
	})

	if a.scheduler != nil {
		g.Go(func() error {
			return a.scheduler.Start(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return a.Shutdown(context.WithoutCancel(ctx))
	})

	return g.Wait()
}

// Shutdown stops the scheduler and the server, then closes the backends and
// flushes telemetry. It runs every step and returns the joined failures.
func (a *App) Shutdown(ctx context.Context) error {
	a.log.Info("shutting down")

	ctx, cancel := context.WithTimeout(ctx, a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if a.scheduler != nil {
		errs = append(errs, a.scheduler.Stop())
	}
	errs = append(errs,
		a.server.Stop(ctx),
		a.store.Close(ctx),
		a.shutdownTracer(),
	)

	err := errors.Join(errs...)
	if err != nil {
		return errx.Wrap(err)
	}
	a.log.Info("shutdown complete")
	return nil
}

func newBlobStore(ctx context.Context, cfg StorageConfig) (filestore.BlobStore, error) {
	switch cfg.Backend {
	case StorageLocal:
		local := cfg.Local
		local.MaxSize = cfg.MaxUploadSize
		return localfs.New(local)
	case StorageMinio:
		if cfg.Minio == nil {
			return nil, errx.New("[app]: storage.minio is required for the minio backend")
		}
		mc := *cfg.Minio
		mc.MaxSize = cfg.MaxUploadSize
		return miniowr.New(ctx, mc)
	default:
		return nil, errx.New("[app]: unknown storage backend", errx.WithDetails(errx.D{"backend": cfg.Backend}))
	}
}

func newMetadataStore(ctx context.Context, cfg MetadataConfig) (video.Backend, error) {
	switch cfg.Backend {
	case MetadataMongo:
		if cfg.Mongo == nil {
			return nil, errx.New("[app]: metadata.mongo is required for the mongo backend")
		}
		return mongostore.New(ctx, *cfg.Mongo)
	case MetadataPostgres:
		if cfg.Postgres == nil {
			return nil, errx.New("[app]: metadata.postgres is required for the postgres backend")
		}
		return sqlstore.NewPostgres(ctx, *cfg.Postgres, cfg.SQL)
	case MetadataSQLite:
		return sqlstore.NewSQLite(ctx, cfg.SQLite, cfg.SQL)
	case MetadataMemory:
		return memstore.New(), nil
	default:
		return nil, errx.New("[app]: unknown metadata backend", errx.WithDetails(errx.D{"backend": cfg.Backend}))
	}
}
