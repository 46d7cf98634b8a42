package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rise-and-shine/vidstream/app"
	"github.com/rise-and-shine/vidstream/cfgloader"
	"github.com/rise-and-shine/vidstream/meta"
	"github.com/rise-and-shine/vidstream/observability/logger"
)

func main() {
	cfg := cfgloader.MustLoad[app.Config]()

	meta.SetServiceInfo(cfg.Service.Name, cfg.Service.Version)
	logger.SetGlobal(cfg.Logger)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatalx(err)
	}

	err = a.Run(ctx)
	if err != nil {
		logger.Errorx(err)
		return
	}
	logger.Info("stopped")
}
