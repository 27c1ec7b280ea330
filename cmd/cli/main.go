package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/rfm-insights/internal/config"
	"github.com/dvloznov/rfm-insights/internal/domain"
	"github.com/dvloznov/rfm-insights/internal/logger"
	"github.com/dvloznov/rfm-insights/internal/pipeline"
	"github.com/dvloznov/rfm-insights/internal/reports"
	"github.com/rs/zerolog"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "segment":
		runSegment(log)
	case "report":
		runReport(log)
	case "serve":
		fmt.Println("The API server ships as its own binary; run cmd/api instead.")
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("RFM Insights CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  segment   Compute a segmentation snapshot from the configured source")
	fmt.Println("  report    Render a report from an exported snapshot JSON")
	fmt.Println("  serve     Where to find the API server")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runSegment(log zerolog.Logger) {
	fs := flag.NewFlagSet("segment", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to JSON config file")
	asOf := fs.String("as-of", "", "As-of date, YYYY-MM-DD (overrides config)")
	csvPath := fs.String("csv", "", "Local CSV source path (overrides config)")
	fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *asOf != "" {
		cfg.AsOfDate = *asOf
	}
	if *csvPath != "" {
		cfg.Source.Type = "csv"
		cfg.Source.Path = *csvPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().Str("as_of_date", cfg.AsOfDate).Str("source", cfg.Source.Type).Msg("Starting segmentation")

	state, err := pipeline.Run(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Segmentation failed")
	}

	reports.RenderDistribution(os.Stdout, reports.SegmentDistribution(state.Records))
	reports.RenderAverages(os.Stdout, reports.SegmentAverages(state.Records))

	fmt.Printf("Segmented %d customers.\n", len(state.Records))
	for _, f := range state.ExportedFiles {
		fmt.Printf("  wrote %s\n", f)
	}
}

// snapshotFile mirrors the JSON payload the export step writes.
type snapshotFile struct {
	AsOfDate string                     `json:"as_of_date"`
	Records  []domain.CustomerRFMRecord `json:"records"`
}

func runReport(log zerolog.Logger) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	file := fs.String("file", "", "Path to an exported snapshot JSON")
	kind := fs.String("kind", "distribution", "Report to render: distribution, averages, histograms or top")
	segment := fs.String("segment", string(domain.SegmentPremium), "Segment for the top report")
	n := fs.Int("n", 10, "Number of customers for the top report")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read snapshot")
	}
	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Fatal().Err(err).Msg("Failed to parse snapshot")
	}

	fmt.Printf("Snapshot as of %s, %d customers\n\n", snap.AsOfDate, len(snap.Records))

	switch *kind {
	case "distribution":
		reports.RenderDistribution(os.Stdout, reports.SegmentDistribution(snap.Records))
	case "averages":
		reports.RenderAverages(os.Stdout, reports.SegmentAverages(snap.Records))
	case "histograms":
		reports.RenderHistograms(os.Stdout, reports.ScoreHistograms(snap.Records))
	case "top":
		top := reports.TopByMonetary(snap.Records, domain.Segment(*segment), *n)
		reports.RenderTop(os.Stdout, domain.Segment(*segment), top)
	default:
		log.Fatal().Str("kind", *kind).Msg("Unknown report kind")
	}
}
