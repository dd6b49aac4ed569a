package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"backlog/internal/config"
	"backlog/internal/daemon"
	"backlog/internal/features"
	"backlog/internal/ipc"
	"backlog/internal/logging"
	"backlog/internal/scheduler"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := features.Open(cfg)
	if err != nil {
		logger.Error("open feature store", logging.Error(err))
		return
	}
	defer store.Close()

	sched := scheduler.New(store, logger)

	d, err := daemon.New(cfg, store, sched, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("backlogd shutting down")
}
