package service

import (
	"context"
	"fmt"
	"time"

	"climate-server/internal/modules/climate/repository"
	"climate-server/internal/modules/climate/types"
)

// MostActive is the most active station with its trailing-window
// temperatures.
type MostActive struct {
	Station types.StationCount
	Points  []types.TemperaturePoint
}

// Service answers the derived climate queries. It keeps no state besides the
// repository handle and is safe for concurrent use.
type Service struct {
	repository repository.ClimateRepository
}

func NewService(repository repository.ClimateRepository) *Service {
	return &Service{repository: repository}
}

func (s *Service) Precipitation(ctx context.Context) ([]types.PrecipitationPoint, error) {
	last, err := s.repository.MaxDate(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.windowRows(ctx, last)
	if err != nil {
		return nil, err
	}
	return PrecipitationSeries(rows, last), nil
}

func (s *Service) Stations(ctx context.Context) ([]types.Station, error) {
	return s.repository.AllStations(ctx)
}

func (s *Service) MostActiveTemperatures(ctx context.Context) (MostActive, error) {
	bounds, err := s.repository.DateBounds(ctx)
	if err != nil {
		return MostActive{}, err
	}
	rows, err := s.repository.MeasurementsInRange(ctx, bounds.First, nil)
	if err != nil {
		return MostActive{}, err
	}
	top, ok := MostActiveStation(rows)
	if !ok {
		return MostActive{}, fmt.Errorf("most active station: %w", types.ErrNotFound)
	}
	return MostActive{
		Station: top,
		Points:  TemperatureSeries(rows, top.Station, bounds.Last),
	}, nil
}

// TemperatureSummaryFrom summarizes temperatures on or after start.
func (s *Service) TemperatureSummaryFrom(ctx context.Context, start time.Time) (types.TemperatureSummary, error) {
	rows, err := s.repository.MeasurementsInRange(ctx, start, nil)
	if err != nil {
		return types.TemperatureSummary{}, err
	}
	return SummarizeTemperatures(rows)
}

// TemperatureSummaryBetween summarizes temperatures in [start, end].
func (s *Service) TemperatureSummaryBetween(ctx context.Context, start, end time.Time) (types.TemperatureSummary, error) {
	if start.After(end) {
		return types.TemperatureSummary{}, types.NewRangeError(start, end)
	}
	rows, err := s.repository.MeasurementsInRange(ctx, start, &end)
	if err != nil {
		return types.TemperatureSummary{}, err
	}
	return SummarizeTemperatures(rows)
}

// Summary describes the loaded dataset.
func (s *Service) Summary(ctx context.Context) (types.DatasetSummary, error) {
	stations, err := s.repository.AllStations(ctx)
	if err != nil {
		return types.DatasetSummary{}, err
	}
	bounds, err := s.repository.DateBounds(ctx)
	if err != nil {
		return types.DatasetSummary{}, err
	}
	rows, err := s.repository.MeasurementsInRange(ctx, bounds.First, nil)
	if err != nil {
		return types.DatasetSummary{}, err
	}
	top, _ := MostActiveStation(rows)
	return types.DatasetSummary{
		Stations:          len(stations),
		Measurements:      bounds.Rows,
		FirstDate:         bounds.First,
		LastDate:          bounds.Last,
		MostActiveStation: top,
	}, nil
}

func (s *Service) windowRows(ctx context.Context, last time.Time) ([]types.Measurement, error) {
	from := types.WindowStart(last).AddDate(0, 0, 1)
	return s.repository.MeasurementsInRange(ctx, from, &last)
}
