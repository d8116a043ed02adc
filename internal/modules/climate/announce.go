package climate

import (
	"context"
	"fmt"
	"log/slog"

	"climate-server/internal/modules/climate/types"
)

// DatasetSummarizer is the part of the climate service the announcement needs.
type DatasetSummarizer interface {
	Summary(ctx context.Context) (types.DatasetSummary, error)
}

// Publisher sends one JSON payload to the configured topic.
type Publisher interface {
	Publish(ctx context.Context, payload any) error
}

// AnnounceDataset publishes the coverage of the loaded dataset.
func AnnounceDataset(ctx context.Context, summarizer DatasetSummarizer, publisher Publisher, logger *slog.Logger) error {
	summary, err := summarizer.Summary(ctx)
	if err != nil {
		return fmt.Errorf("dataset summary: %w", err)
	}
	logger.Debug("announcing dataset",
		"stations", summary.Stations,
		"measurements", summary.Measurements,
		"last_date", types.FormatDate(summary.LastDate),
	)
	if err := publisher.Publish(ctx, types.NewDatasetSummaryResponse(summary)); err != nil {
		logger.Error("failed to announce dataset", "error", err)
		return err
	}
	logger.Info("dataset announced",
		"stations", summary.Stations,
		"first_date", types.FormatDate(summary.FirstDate),
		"last_date", types.FormatDate(summary.LastDate),
	)
	return nil
}
