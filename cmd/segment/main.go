package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dvloznov/rfm-insights/internal/config"
	"github.com/dvloznov/rfm-insights/internal/logger"
	"github.com/dvloznov/rfm-insights/internal/pipeline"
)

// One-shot segmentation run, suitable for cron or Cloud Run jobs.
func main() {
	var (
		configPath = flag.String("config", "", "Path to JSON config file")
		asOf       = flag.String("as-of", "", "As-of date, YYYY-MM-DD (overrides config)")
	)
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *asOf != "" {
		cfg.AsOfDate = *asOf
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	state, err := pipeline.Run(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Segmentation failed")
	}

	log.Info().
		Str("run_id", state.RunID).
		Int("customers", len(state.Records)).
		Msg("Segmentation completed")
	fmt.Printf("Segmented %d customers.\n", len(state.Records))
}
