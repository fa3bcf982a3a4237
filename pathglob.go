package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/maxpert/pathglob/admin"
	"github.com/maxpert/pathglob/cfg"
	"github.com/maxpert/pathglob/codec"
	"github.com/maxpert/pathglob/glob"
	"github.com/maxpert/pathglob/notify"
	"github.com/maxpert/pathglob/pipeline"
	"github.com/maxpert/pathglob/stream"
	"github.com/maxpert/pathglob/subscription"
	"github.com/maxpert/pathglob/telemetry"
	"github.com/maxpert/pathglob/transport"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	flag.Parse()

	// Load configuration
	err := cfg.Load(*cfg.ConfigPathFlag)
	if err != nil {
		panic(err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	// Setup logging; records may go to stdout, so logs go to stderr
	var writer io.Writer = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})
	if cfg.Config.Logging.Format == "json" {
		writer = os.Stderr
	}
	gLog := zerolog.New(writer).
		With().
		Timestamp().
		Uint64("instance_id", cfg.Config.InstanceID).
		Logger()

	if cfg.Config.Logging.Verbose {
		log.Logger = gLog.Level(zerolog.DebugLevel)
	} else {
		log.Logger = gLog.Level(zerolog.InfoLevel)
	}

	log.Info().Str("pipeline", cfg.Config.Pipeline.Name).Msg("pathglob - streaming event filter")
	log.Debug().Msg("Initializing telemetry")
	telemetry.InitializeTelemetry()
	telemetry.InitMetrics()

	engine, err := glob.Lookup(cfg.Config.Glob.Engine)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to select glob engine")
		return
	}

	hub := notify.NewHub()
	stage, err := stream.NewStage[subscription.Event](cfg.Config.Events, stream.Options{
		Engine:    engine,
		CacheSize: cfg.Config.Glob.CacheSize,
		Observer:  hub,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to compile subscriptions")
		return
	}
	telemetry.SubscribedEvents.Set(float64(stage.Table().Len()))

	if cached, ok := stage.Evaluator().(*subscription.CachedEvaluator); ok {
		collector := telemetry.NewMetricsCollector(cached, 10*time.Second)
		collector.Start()
		defer collector.Stop()
	}

	recordCodec, err := codec.New(cfg.Config.Pipeline.Codec, cfg.Config.Pipeline.Compression)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create codec")
		return
	}

	source, err := transport.NewSource(cfg.Config.Source)
	if err != nil {
		log.Fatal().Err(err).Str("type", cfg.Config.Source.Type).Msg("Failed to create source")
		return
	}
	defer source.Close()

	sink, err := transport.NewSink(cfg.Config.Sink)
	if err != nil {
		log.Fatal().Err(err).Str("type", cfg.Config.Sink.Type).Msg("Failed to create sink")
		return
	}
	defer sink.Close()

	workerConfig := pipeline.ConfigFromSettings(cfg.Config.Pipeline)
	workerConfig.Source = source
	workerConfig.Sink = sink
	workerConfig.Codec = recordCodec
	workerConfig.Stage = stage

	worker, err := pipeline.NewWorker(workerConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create pipeline worker")
		return
	}

	var adminServer *http.Server
	if cfg.Config.Admin.Enabled {
		adminServer = startAdminServer(admin.NewAdminHandlers(stage, worker.Stats(), hub))
	}

	worker.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	case <-worker.Done():
		log.Info().Msg("Pipeline finished")
	}

	worker.Stop()

	if adminServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := adminServer.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to shut down admin server")
		}
		cancel()
	}

	snap := worker.Stats().Snapshot()
	log.Info().
		Uint64("forwarded", snap.Forwarded).
		Uint64("dropped", snap.Dropped).
		Uint64("decode_errors", snap.DecodeErrors).
		Uint64("publish_failures", snap.PublishFailures).
		Msg("Stopped")
}

func startAdminServer(handlers *admin.AdminHandlers) *http.Server {
	mux := http.NewServeMux()
	admin.RegisterRoutes(mux, handlers)

	addr := net.JoinHostPort(cfg.Config.Admin.BindAddress, strconv.Itoa(cfg.Config.Admin.Port))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Admin server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Admin server failed")
		}
	}()

	return server
}
