package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"climate-server/internal/config"
	db "climate-server/internal/db"
	httpapi "climate-server/internal/httpapi"
	climate "climate-server/internal/modules/climate"
	"climate-server/internal/modules/climate/service"
	"climate-server/internal/modules/climate/types"
	climateviews "climate-server/internal/modules/climate/views"
	"climate-server/internal/mqtt"
)

const (
	startupCheckTimeout = 10 * time.Second
	mqttConnectTimeout  = 5 * time.Second
	shutdownTimeout     = 10 * time.Second
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"sqliteMaxIdleConns", cfg.SQLiteMaxIdleConns,
		"sqliteConnMaxLifetime", cfg.SQLiteConnMaxLifetime,
		"sqliteLogSQL", cfg.SQLiteLogSQL,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
	)

	dbConn, err := db.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrDataSourceUnavailable, err)
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	mux, climateService, err := setup(ctx, dbConn, logger)
	if err != nil {
		return err
	}

	var publisher *mqtt.Publisher
	if cfg.MQTTBroker != "" {
		publisher = announce(ctx, cfg, climateService, logger)
	} else {
		logger.Info("mqtt disabled (MQTT_BROKER empty)")
	}

	srv := httpapi.NewServer(cfg, mux, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if publisher != nil {
			publisher.Disconnect()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if publisher != nil {
		logger.Info("mqtt disconnecting")
		publisher.Disconnect()
	}

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

// setup checks that the dataset can be served, then builds the mux with the
// healthcheck and the climate routes.
func setup(ctx context.Context, dbConn *sql.DB, logger *slog.Logger) (*http.ServeMux, *service.Service, error) {
	if err := climateviews.LoadTemplates(); err != nil {
		return nil, nil, err
	}

	mux := httpapi.NewMux(dbConn)
	climateService := climate.RegisterFeature(mux, dbConn)

	checkCtx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
	defer cancel()
	summary, err := climateService.Summary(checkCtx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", types.ErrDataSourceUnavailable, err)
	}
	logger.Info("dataset loaded",
		"stations", summary.Stations,
		"measurements", summary.Measurements,
		"first_date", types.FormatDate(summary.FirstDate),
		"last_date", types.FormatDate(summary.LastDate),
	)

	return mux, climateService, nil
}

// announce connects to the broker and publishes the dataset summary. MQTT
// is optional: failures are logged and the server keeps running.
func announce(ctx context.Context, cfg config.Config, summarizer climate.DatasetSummarizer, logger *slog.Logger) *mqtt.Publisher {
	publisher := mqtt.NewPublisher(cfg, logger)

	connectCtx, cancel := context.WithTimeout(ctx, mqttConnectTimeout)
	defer cancel()

	if err := publisher.Connect(connectCtx); err != nil {
		logger.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		return publisher
	}
	if err := climate.AnnounceDataset(connectCtx, summarizer, publisher, logger); err != nil {
		logger.Warn("dataset announcement failed", "error", err)
	}
	return publisher
}
