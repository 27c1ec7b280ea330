package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/rfm-insights/internal/config"
	"github.com/dvloznov/rfm-insights/internal/jobs"
	"github.com/dvloznov/rfm-insights/internal/jobs/inmemory"
	"github.com/dvloznov/rfm-insights/internal/logger"
	"github.com/dvloznov/rfm-insights/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config file")
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// In production the queue would be Cloud Tasks or Pub/Sub.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	log.Info().Msg("Starting worker service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := func(ctx context.Context, job jobs.Job) error {
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

	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Worker service exited")
}
