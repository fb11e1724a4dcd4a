package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"review-sentiment/internal/app"
	"review-sentiment/internal/config"
	"review-sentiment/internal/metrics"
	"review-sentiment/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	l := logger.New(cfg.LogLevel)

	a, err := app.New(cfg, l)
	if err != nil {
		l.Errorf("startup: %v", err)
		os.Exit(1)
	}
	defer a.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &server{
		pipe:       a.Pipeline,
		classifier: a.Classifier,
		metrics:    metrics.New(reg),
		log:        l,
		corsOrigin: cfg.CORSOrigin,
	}
	if a.Store != nil {
		s.history = a.Store
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.routes(reg),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		l.Infof("server listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	l.Infof("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	l.Infof("bye")
}
