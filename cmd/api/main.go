package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/rfm-insights/internal/api/handlers"
	"github.com/dvloznov/rfm-insights/internal/config"
	infraBQ "github.com/dvloznov/rfm-insights/internal/infra/bigquery"
	"github.com/dvloznov/rfm-insights/internal/jobs"
	"github.com/dvloznov/rfm-insights/internal/jobs/inmemory"
	"github.com/dvloznov/rfm-insights/internal/logger"
	"github.com/dvloznov/rfm-insights/internal/pipeline"
)

func main() {
	var (
		port       = flag.String("port", "8080", "HTTP server port")
		configPath = flag.String("config", "", "Path to JSON config file")
	)
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx := context.Background()

	if cfg.Source.ProjectID == "" || cfg.Source.Dataset == "" {
		log.Fatal().Msg("BigQuery project_id and dataset are required for the API server")
	}

	repo, err := infraBQ.NewRepository(ctx, cfg.Source.ProjectID, cfg.Source.Dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		segJob, ok := job.(*jobs.SegmentationJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", segJob.JobID).
			Str("as_of_date", segJob.AsOfDate).
			Msg("Processing segmentation job")

		runCfg := cfg
		runCfg.AsOfDate = segJob.AsOfDate

		state, err := pipeline.Run(ctx, runCfg)
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", segJob.JobID).
				Msg("Segmentation pipeline failed")
			return err
		}

		segJob.RunID = state.RunID
		segJob.CustomerCount = len(state.Records)

		log.Info().
			Str("job_id", segJob.JobID).
			Str("run_id", state.RunID).
			Int("customers", len(state.Records)).
			Msg("Segmentation pipeline completed")

		return nil
	}

	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	runsHandler := handlers.NewRunsHandler(jobStore, jobQueue, log)
	segmentsHandler := handlers.NewSegmentsHandler(repo, log)
	router := handlers.Router(runsHandler, segmentsHandler, log)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
