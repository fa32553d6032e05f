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

	"github.com/aws/aws-sdk-go-v2/aws"

	"interview-insights-go/internal/api"
	"interview-insights-go/internal/candidates"
	"interview-insights-go/internal/config"
	"interview-insights-go/internal/extractor"
	"interview-insights-go/internal/logger"
	"interview-insights-go/internal/metrics"
	"interview-insights-go/internal/processor"
	"interview-insights-go/internal/prompts"
	"interview-insights-go/internal/speech"
	"interview-insights-go/internal/storage"
	"interview-insights-go/internal/transcription"
)

const transcriptFetchTimeout = 30 * time.Second

func main() {
	cfg := config.Load() // loads .env before the logger reads LOG_LEVEL
	log := logger.New()
	log.WithField("service", "interview-insights-go").Info("starting service")

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server terminated")
	}
	log.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) error {
	m := metrics.New()

	spool, err := storage.NewAudioSpool(cfg.Storage.TempDir, cfg.Server.MaxUploadBytes)
	if err != nil {
		return err
	}

	objects, jobs, fetcher, err := buildBackends(ctx, cfg, log)
	if err != nil {
		return err
	}

	poller := transcription.NewPoller(jobs, fetcher, cfg.Poll, log)
	poller.OnAttempt = m.PollAttempt

	dir, err := candidates.Open(cfg.Candidates.DSN)
	if err != nil {
		return err
	}
	defer dir.Close()
	if cfg.Candidates.RosterPath != "" {
		if err := importRoster(ctx, dir, cfg.Candidates.RosterPath, log); err != nil {
			return err
		}
	}

	set, err := prompts.Load(cfg.PromptsPath)
	if err != nil {
		return err
	}

	analyzer, err := extractor.New(cfg.LLM, log)
	if err != nil {
		return err
	}

	deps := processor.Deps{
		Spool:      spool,
		Store:      objects,
		Waiter:     poller,
		Candidates: dir,
		Prompts:    set,
		Analyzer:   analyzer,
		Recorder:   m,
		Log:        log,
	}
	if cfg.Transcription.StartJobs {
		deps.Jobs = jobs
	}
	if cfg.TTS.Enabled {
		deps.Speech = speech.NewOpenAISynthesizer(cfg.TTS, log)
	}
	svc := processor.New(deps)

	handler := api.New(api.Options{
		Pipeline:       svc,
		Directory:      dir,
		Metrics:        m,
		ResponsesDir:   cfg.TTS.OutputDir,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Log:            log,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).WithField("analyzer", analyzer.Name()).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown signal received, draining requests")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildBackends picks real AWS clients or local stand-ins per config.
func buildBackends(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (storage.ObjectStore, transcription.JobService, transcription.Fetcher, error) {
	var (
		objects storage.ObjectStore
		jobs    transcription.JobService
		fetcher transcription.Fetcher
	)

	var awsCfg aws.Config
	if !cfg.Storage.Mock || !cfg.Transcription.Mock {
		c, err := storage.LoadAWSConfig(ctx, cfg.Storage)
		if err != nil {
			return nil, nil, nil, err
		}
		awsCfg = c
	}

	if cfg.Storage.Mock {
		local, err := storage.NewLocalStore(cfg.Storage.LocalDir)
		if err != nil {
			return nil, nil, nil, err
		}
		log.WithField("dir", cfg.Storage.LocalDir).Info("mock storage mode ON")
		objects = local
	} else {
		objects = storage.NewS3Store(awsCfg, cfg.Storage)
	}

	if cfg.Transcription.Mock {
		mock := transcription.NewMockBackend()
		log.Info("mock transcribe mode ON")
		jobs, fetcher = mock, mock
	} else {
		jobs = transcription.NewAWSJobService(awsCfg, cfg.Transcription.LanguageCode)
		fetcher = transcription.NewHTTPFetcher(transcriptFetchTimeout)
	}
	return objects, jobs, fetcher, nil
}

func importRoster(ctx context.Context, dir *candidates.Store, path string, log *logger.Logger) error {
	rlog := log.Component("roster").With("path", path)
	students, err := candidates.LoadRoster(path)
	if err != nil {
		return fmt.Errorf("import roster: %w", err)
	}
	if err := dir.Upsert(ctx, students...); err != nil {
		return err
	}
	total, err := dir.Count(ctx)
	if err != nil {
		return err
	}
	rlog.WithField("imported", len(students)).WithField("total", total).Info("roster loaded")
	return nil
}
