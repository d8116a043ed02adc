package service

import (
	"cmp"
	"slices"
	"time"

	"climate-server/internal/modules/climate/types"
)

// PrecipitationSeries returns one point per distinct date inside the
// trailing window ending at last. Values reported by several stations on
// the same date are summed; a date with no non-null value maps to nil.
func PrecipitationSeries(rows []types.Measurement, last time.Time) []types.PrecipitationPoint {
	byDate := make(map[string]*types.PrecipitationPoint)
	var out []*types.PrecipitationPoint
	for _, m := range rows {
		if !types.InWindow(m.Date, last) {
			continue
		}
		key := types.FormatDate(m.Date)
		p, ok := byDate[key]
		if !ok {
			p = &types.PrecipitationPoint{Date: m.Date}
			byDate[key] = p
			out = append(out, p)
		}
		if m.Precipitation == nil {
			continue
		}
		if p.Value == nil {
			v := *m.Precipitation
			p.Value = &v
			continue
		}
		*p.Value += *m.Precipitation
	}
	slices.SortFunc(out, func(a, b *types.PrecipitationPoint) int { return a.Date.Compare(b.Date) })
	series := make([]types.PrecipitationPoint, 0, len(out))
	for _, p := range out {
		series = append(series, *p)
	}
	return series
}

// CountByStation counts rows per station, highest count first. Equal
// counts are ordered by station identifier.
func CountByStation(rows []types.Measurement) []types.StationCount {
	counts := make(map[string]int)
	for _, m := range rows {
		counts[m.Station]++
	}
	out := make([]types.StationCount, 0, len(counts))
	for station, n := range counts {
		out = append(out, types.StationCount{Station: station, Count: n})
	}
	slices.SortFunc(out, func(a, b types.StationCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Station, b.Station)
	})
	return out
}

// MostActiveStation returns the station with the most rows.
func MostActiveStation(rows []types.Measurement) (types.StationCount, bool) {
	counts := CountByStation(rows)
	if len(counts) == 0 {
		return types.StationCount{}, false
	}
	return counts[0], true
}

// TemperatureSeries returns the station's non-null temperatures inside the
// trailing window ending at last, in ascending date order.
func TemperatureSeries(rows []types.Measurement, station string, last time.Time) []types.TemperaturePoint {
	var out []types.TemperaturePoint
	for _, m := range rows {
		if m.Station != station || m.Temperature == nil || !types.InWindow(m.Date, last) {
			continue
		}
		out = append(out, types.TemperaturePoint{Date: m.Date, Temperature: *m.Temperature})
	}
	slices.SortStableFunc(out, func(a, b types.TemperaturePoint) int { return a.Date.Compare(b.Date) })
	return out
}

// SummarizeTemperatures computes min, mean and max over non-null
// temperatures. It returns ErrNoData when there is none.
func SummarizeTemperatures(rows []types.Measurement) (types.TemperatureSummary, error) {
	var s types.TemperatureSummary
	var sum float64
	for _, m := range rows {
		if m.Temperature == nil {
			continue
		}
		v := *m.Temperature
		if s.Count == 0 || v < s.Min {
			s.Min = v
		}
		if s.Count == 0 || v > s.Max {
			s.Max = v
		}
		sum += v
		s.Count++
	}
	if s.Count == 0 {
		return types.TemperatureSummary{}, types.ErrNoData
	}
	s.Avg = sum / float64(s.Count)
	return s, nil
}
