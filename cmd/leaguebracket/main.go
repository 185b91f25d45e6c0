package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	competition "github.com/justinjudd/leaguebracket"
	"github.com/justinjudd/leaguebracket/config"
	"github.com/justinjudd/leaguebracket/lock"
	"github.com/justinjudd/leaguebracket/models/storm"
	"github.com/justinjudd/leaguebracket/server"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}
	logger.SetLevel(cfg.LogLevel)

	store, err := storm.NewStorageEngine(cfg.DBPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open storage")
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var locker lock.Locker = lock.NewMemory()
	if cfg.RedisURL != "" {
		redisLock, err := lock.NewRedisFromURL(ctx, cfg.RedisURL, cfg.LockTTL, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to redis")
		}
		defer redisLock.Close()
		locker = redisLock
	}

	svc := competition.NewService(store,
		competition.WithLogger(logger),
		competition.WithLocker(locker),
		competition.WithCandidateDates(cfg.CandidateDates),
	)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(svc, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdown)
	}()

	logger.WithField("addr", cfg.Addr).Info("Starting league bracket server...")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Fatal("Server failed")
	}
}
