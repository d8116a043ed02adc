package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"climate-server/internal/config"
	"climate-server/internal/dataset"
	"climate-server/internal/logging"
)

const appName = "climatedb"

var version = "dev"

const usage = `usage: %s [flags] <command>

commands:
  migrate  apply pending schema migrations
  import   migrate, then replace stations and measurements from CSV

flags:
`

func main() {
	dbPath := flag.String("db", envOr("SQLITE_PATH", "Resources/hawaii.sqlite"), "Dataset file to create or update.")
	stationsPath := flag.String("stations", "Resources/hawaii_stations.csv", "Station CSV (station,name,latitude,longitude,elevation).")
	measurementsPath := flag.String("measurements", "Resources/hawaii_measurements.csv", "Measurement CSV (station,date,prcp,tobs).")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), usage, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg, version, appName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flag.Arg(0), filepath.Clean(*dbPath), *stationsPath, *measurementsPath, logger); err != nil {
		logger.Error("climatedb failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command, dbPath, stationsPath, measurementsPath string, logger *slog.Logger) error {
	switch command {
	case "migrate", "import":
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	conn, err := dataset.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	if command == "migrate" {
		applied, err := dataset.Migrate(ctx, conn, logger)
		if err != nil {
			return err
		}
		logger.Info("migrations applied", "count", len(applied), "db", dbPath)
		return nil
	}

	stations, err := os.Open(stationsPath)
	if err != nil {
		return err
	}
	defer stations.Close()
	measurements, err := os.Open(measurementsPath)
	if err != nil {
		return err
	}
	defer measurements.Close()

	stats, err := dataset.Import(ctx, conn, stations, measurements, logger)
	if err != nil {
		return err
	}
	logger.Info("dataset ready",
		"db", dbPath,
		"stations", stats.Stations,
		"measurements", stats.Measurements,
	)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
