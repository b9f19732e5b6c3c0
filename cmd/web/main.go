package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bugboard/bugboard/config"
	"github.com/bugboard/bugboard/internal/api/client"
	"github.com/bugboard/bugboard/internal/bootstrap"
	"github.com/bugboard/bugboard/internal/logging"
	"github.com/bugboard/bugboard/internal/web"
)

const serviceName = "bugboard-web"

func main() {
	log := logging.New("main")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := logging.SetLevel(cfg.App.LogLevel); err != nil {
		log.Fatalf("invalid LOG_LEVEL: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptionsFrom(cfg.Redis))
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
		log.Infof("notifications stored in redis at %s", cfg.Redis.Addr)
	}
	notes := bootstrap.NotificationStore(rdb)

	api := client.New(client.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
		RateBurst: cfg.API.RateBurst,
		Metrics:   client.NewMetrics(prometheus.DefaultRegisterer),
	})

	app, err := web.New(web.Options{
		API:          api,
		Notes:        notes,
		CookieName:   cfg.Session.CookieName,
		CookieSecure: cfg.Session.CookieSecure,
		FanOut:       cfg.API.FanOutConcurrency,
	})
	if err != nil {
		log.Fatalf("failed to build web app: %v", err)
	}

	hk := bootstrap.NewHousekeeper(app, notes, cfg.Session.IdleTTL)
	if err := hk.Start(); err != nil {
		log.Fatalf("failed to start housekeeping: %v", err)
	}
	defer hk.Stop()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Version:     cfg.App.Version,
		CORSOrigins: cfg.Server.CORSOrigins,
		App:         app,
		Upstream:    api,
		Redis:       rdb,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("%s %s listening on :%s (api=%s)", serviceName, cfg.App.Version, cfg.Server.Port, cfg.API.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("graceful shutdown failed: %v", err)
	}
}
