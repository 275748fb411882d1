package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	interact "github.com/telcoshop/interact-go-client"
	"github.com/telcoshop/interact-go-client/internal/config"
	"github.com/telcoshop/interact-go-client/internal/offersvc"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := config.SetupLogging(cfg.Server.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("offers service stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []interact.Option{
		interact.WithConfig(cfg.ClientConfig()),
		interact.WithLogger(log),
		interact.WithMetrics(interact.NewPrometheusRegistry(reg)),
		interact.WithIdentityProvider(interact.CustomerDataIdentity{BrandKey: cfg.Offers.BrandKey}),
	}

	if cfg.UseRedis() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		// sessions outlive the inactivity window only long enough to be seen as expired
		ttl := 2 * cfg.ClientConfig().SessionTimeout
		if ttl <= 0 {
			ttl = 2 * interact.DefaultSessionTimeout
		}
		store := interact.NewRedisStore(rdb, ttl)

		readyCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := store.WaitReady(readyCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		opts = append(opts, interact.WithSessionStore(store))
		log.Info("keeping sessions in redis", slog.String("addr", cfg.Redis.Addr))
	}

	client := interact.NewClient(cfg.Interact.ServerURL, opts...)

	var err error
	fallback := interact.DefaultFallbackCatalog()
	if cfg.Offers.FallbackFile != "" {
		if fallback, err = interact.ReadFallbackCatalogFromFile(cfg.Offers.FallbackFile); err != nil {
			return err
		}
	}

	h := offersvc.NewHandler(client, offersvc.Options{
		MaxOffers:   cfg.Offers.MaxOffers,
		SpotTimeout: cfg.Offers.SpotTimeout,
		Fallback:    fallback,
	}, log)
	r := offersvc.Router(h, offersvc.NewHTTPMetrics(reg), promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.Offers.SpotTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", slog.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-sig:
	}
	log.Info("shutdown...")

	shCtx, shCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shCancel()
	return srv.Shutdown(shCtx)
}
