package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"climate-server/internal/modules/climate/types"
)

//go:embed sql/get-stations.sql
var getStationsSQL string

//go:embed sql/get-measurements-from.sql
var getMeasurementsFromSQL string

//go:embed sql/get-measurements-between.sql
var getMeasurementsBetweenSQL string

//go:embed sql/get-date-bounds.sql
var getDateBoundsSQL string

// DateBounds describes the dates covered by the measurement table.
type DateBounds struct {
	First time.Time
	Last  time.Time
	Rows  int
}

type ClimateRepository interface {
	AllStations(ctx context.Context) ([]types.Station, error)
	// MeasurementsInRange returns rows with start <= date <= end, ordered by
	// date. A nil end means through the latest available date.
	MeasurementsInRange(ctx context.Context, start time.Time, end *time.Time) ([]types.Measurement, error)
	MaxDate(ctx context.Context) (time.Time, error)
	DateBounds(ctx context.Context) (DateBounds, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) ClimateRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) AllStations(ctx context.Context) ([]types.Station, error) {
	rows, err := r.db.QueryContext(ctx, getStationsSQL)
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close stations rows", "error", err)
		}
	}()
	var out []types.Station
	for rows.Next() {
		var s types.Station
		var name sql.NullString
		var lat, lon, elev sql.NullFloat64
		if err := rows.Scan(&s.ID, &s.Station, &name, &lat, &lon, &elev); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		s.Name = name.String
		s.Latitude = lat.Float64
		s.Longitude = lon.Float64
		s.Elevation = elev.Float64
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read stations: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("stations: %w", types.ErrNotFound)
	}
	return out, nil
}

func (r *repositoryImpl) MeasurementsInRange(ctx context.Context, start time.Time, end *time.Time) ([]types.Measurement, error) {
	var (
		rows *sql.Rows
		err  error
	)
	startStr := types.FormatDate(start)
	if end == nil {
		rows, err = r.db.QueryContext(ctx, getMeasurementsFromSQL, startStr)
	} else {
		if start.After(*end) {
			return nil, types.NewRangeError(start, *end)
		}
		rows, err = r.db.QueryContext(ctx, getMeasurementsBetweenSQL, startStr, types.FormatDate(*end))
	}
	if err != nil {
		return nil, fmt.Errorf("query measurements: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close measurements rows", "error", err)
		}
	}()
	return scanMeasurements(rows)
}

func (r *repositoryImpl) MaxDate(ctx context.Context) (time.Time, error) {
	b, err := r.DateBounds(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return b.Last, nil
}

func (r *repositoryImpl) DateBounds(ctx context.Context) (DateBounds, error) {
	var first, last sql.NullString
	var n int
	if err := r.db.QueryRowContext(ctx, getDateBoundsSQL).Scan(&first, &last, &n); err != nil {
		return DateBounds{}, fmt.Errorf("query date bounds: %w", err)
	}
	if !first.Valid || !last.Valid {
		return DateBounds{}, fmt.Errorf("measurements: %w", types.ErrNotFound)
	}
	firstDate, err := types.ParseDate(first.String)
	if err != nil {
		return DateBounds{}, fmt.Errorf("first date: %w", err)
	}
	lastDate, err := types.ParseDate(last.String)
	if err != nil {
		return DateBounds{}, fmt.Errorf("last date: %w", err)
	}
	return DateBounds{First: firstDate, Last: lastDate, Rows: n}, nil
}

func scanMeasurements(rows *sql.Rows) ([]types.Measurement, error) {
	var out []types.Measurement
	for rows.Next() {
		var m types.Measurement
		var day string
		var prcp, tobs sql.NullFloat64
		if err := rows.Scan(&m.ID, &m.Station, &day, &prcp, &tobs); err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		d, err := types.ParseDate(day)
		if err != nil {
			return nil, fmt.Errorf("measurement %d: %w", m.ID, err)
		}
		m.Date = d
		if prcp.Valid {
			v := prcp.Float64
			m.Precipitation = &v
		}
		if tobs.Valid {
			v := tobs.Float64
			m.Temperature = &v
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
