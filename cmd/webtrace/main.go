package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"webtrace/internal/adapters/ingest"
	"webtrace/internal/adapters/netlog"
	"webtrace/internal/adapters/scope"
	"webtrace/internal/adapters/storage/memory"
	"webtrace/internal/adapters/storage/sqlite"
	"webtrace/internal/domain"
	cfgpkg "webtrace/internal/infrastructure/config"
	"webtrace/internal/infrastructure/export"
	"webtrace/internal/infrastructure/httpapi"
	obs "webtrace/internal/infrastructure/observability"
	"webtrace/internal/usecase"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s <tag> <url>\n\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "Records a browsing session scoped to the url's root domain.")
		fmt.Fprintln(flag.CommandLine.Output(), "Stop with Ctrl+C to finalize and export.")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	tag, startURL := flag.Arg(0), flag.Arg(1)

	cfg := cfgpkg.FromEnv()
	logger := obs.NewLogger(cfg.LogLevel)

	resolver, err := scope.NewResolver(startURL)
	if err != nil {
		logger.Error().Err(err).Str("url", startURL).Msg("cannot derive root domain from start url")
		os.Exit(2)
	}

	start := time.Now()
	timeline := memory.NewTimeline(domain.Session{
		ID:         uuid.NewString(),
		Tag:        tag,
		StartTime:  start.UnixMilli(),
		StartURL:   startURL,
		RootDomain: resolver.RootDomain(),
	})
	svc := usecase.NewRecorderService(timeline)
	metrics := obs.NewMetrics()

	buffer := ingest.NewPollBuffer(cfg.BufferCap)
	buffer.Reset()
	bridge := ingest.NewBridge(svc, logger, metrics)
	console := ingest.NewConsoleTap(svc, logger, metrics)
	builder := netlog.NewBuilder(resolver, logger)
	domCapture := ingest.NewDOMCapture()
	poller := ingest.NewPoller(buffer, time.Duration(cfg.PollIntervalMs)*time.Millisecond, svc, logger, metrics)

	pollCtx, stopPolling := context.WithCancel(context.Background())
	pollerDone := make(chan struct{})
	go func() {
		poller.Run(pollCtx)
		close(pollerDone)
	}()

	deps := &httpapi.Deps{
		Cfg:     cfg,
		Logger:  logger,
		Metrics: metrics,
		Svc:     svc,
		Builder: builder,
		Bridge:  bridge,
		Console: console,
		Buffer:  buffer,
		DOM:     domCapture,
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("ingest server error")
			os.Exit(1)
		}
	}()

	logger.Info().
		Str("tag", tag).
		Str("domain", resolver.RootDomain()).
		Str("addr", cfg.Addr).
		Msg("recording started, press Ctrl+C to stop")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("stopping recording")

	// stop accepting deliveries first, then flush: anything the server
	// 202-acked before shutdown completed is still in the buffer for the
	// poller's final drain
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("ingest server shutdown error")
	}
	bridge.Close()
	stopPolling()
	<-pollerDone

	final, err := svc.Finalize(context.Background())
	if err != nil {
		logger.Error().Err(err).Msg("finalize failed")
		os.Exit(1)
	}

	dir := export.SessionDir(cfg.OutputDir, start, final.RootDomain)
	path, err := export.WriteSession(dir, final)
	if err != nil {
		logger.Error().Err(err).Msg("export failed")
		os.Exit(1)
	}
	if html := domCapture.HTML(); html != "" {
		if _, err := export.WriteDOMSnapshot(dir, html); err != nil {
			logger.Error().Err(err).Msg("dom snapshot write failed")
		}
	}

	if cfg.ArchiveDB != "" {
		archive, err := sqlite.NewArchive(cfg.ArchiveDB)
		if err != nil {
			logger.Error().Err(err).Msg("archive unavailable")
		} else {
			if err := archive.SaveSession(context.Background(), final); err != nil {
				logger.Error().Err(err).Msg("archive write failed")
			}
			_ = archive.Close()
		}
	}

	logger.Info().Str("path", path).Int("events", len(final.Events)).Msg("session exported")
}
