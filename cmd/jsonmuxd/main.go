package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsonmux/jsonmux/internal/config"
	"github.com/jsonmux/jsonmux/internal/logging"
	"github.com/jsonmux/jsonmux/internal/observability"
	"github.com/jsonmux/jsonmux/internal/protocol"
	"github.com/jsonmux/jsonmux/internal/server"
)

func main() {
	cfgPath := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	log := logging.Runtime("jsonmuxd")

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.Error().Err(err).Msg("config load failed")
			os.Exit(1)
		}
		cfg = loaded
	}

	observability.RegisterMetrics()
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Warn().Err(err).Msg("metrics listener stopped")
			}
		}()
	}

	// Registration happens entirely before the listener opens; the
	// router is read-only from here on.
	router := server.NewRouter()
	router.Handle("ping", func(msg protocol.Message, reply server.ReplyFunc) {
		if err := reply(protocol.Message{"pong": true}); err != nil {
			log.Warn().Err(err).Msg("ping reply failed")
		}
	})
	router.Handle("echo", func(msg protocol.Message, reply server.ReplyFunc) {
		resp := protocol.Message{}
		for k, v := range msg {
			resp[k] = v
		}
		if err := reply(resp); err != nil {
			log.Warn().Err(err).Msg("echo reply failed")
		}
	})
	router.Handle("time", func(msg protocol.Message, reply server.ReplyFunc) {
		if err := reply(protocol.Message{"now": time.Now().UTC().Format(time.RFC3339Nano)}); err != nil {
			log.Warn().Err(err).Msg("time reply failed")
		}
	})

	srv := server.New(router, server.Config{
		PrefixWidth:  cfg.PrefixWidth,
		WriteTimeout: cfg.WriteTimeout,
		Logger:       &log,
	})

	ln, err := srv.Listen(cfg.Addr())
	if err != nil {
		log.Error().Err(err).Str("addr", cfg.Addr()).Msg("listen failed")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Serve(ctx, ln); err != nil {
		log.Error().Err(err).Msg("serve failed")
		os.Exit(1)
	}
	log.Info().Msg("shutdown complete")
}
