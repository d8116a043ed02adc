package types

import (
	"math"
	"strconv"
)

// Rounded is a float64 that serializes with at most two decimals.
// Aggregation always works on the raw value.
type Rounded float64

func (r Rounded) MarshalJSON() ([]byte, error) {
	v := math.Round(float64(r)*100) / 100
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.AppendFloat(nil, v, 'f', -1, 64), nil
}

func RoundedPtr(v *float64) *Rounded {
	if v == nil {
		return nil
	}
	r := Rounded(*v)
	return &r
}

type StationResponse struct {
	ID        int64   `json:"id"`
	Station   string  `json:"station"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation"`
}

type TemperatureResponse struct {
	Date        string  `json:"date"`
	Temperature Rounded `json:"temperature"`
}

// SummaryResponse fields are null when no reading matched the range.
type SummaryResponse struct {
	Min *Rounded `json:"min"`
	Avg *Rounded `json:"avg"`
	Max *Rounded `json:"max"`
}

type DatasetSummaryResponse struct {
	Stations          int    `json:"stations"`
	Measurements      int    `json:"measurements"`
	FirstDate         string `json:"firstDate"`
	LastDate          string `json:"lastDate"`
	MostActiveStation string `json:"mostActiveStation"`
	MostActiveCount   int    `json:"mostActiveCount"`
}

func NewStationResponse(s Station) StationResponse {
	return StationResponse{
		ID:        s.ID,
		Station:   s.Station,
		Name:      s.Name,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Elevation: s.Elevation,
	}
}

func NewTemperatureResponses(points []TemperaturePoint) []TemperatureResponse {
	out := make([]TemperatureResponse, 0, len(points))
	for _, p := range points {
		out = append(out, TemperatureResponse{Date: FormatDate(p.Date), Temperature: Rounded(p.Temperature)})
	}
	return out
}

// NewPrecipitationResponse keys values by ISO date. encoding/json sorts
// map keys, so the output is in date order.
func NewPrecipitationResponse(points []PrecipitationPoint) map[string]*Rounded {
	out := make(map[string]*Rounded, len(points))
	for _, p := range points {
		out[FormatDate(p.Date)] = RoundedPtr(p.Value)
	}
	return out
}

func NewSummaryResponse(s *TemperatureSummary) SummaryResponse {
	if s == nil || s.Count == 0 {
		return SummaryResponse{}
	}
	minV, avgV, maxV := Rounded(s.Min), Rounded(s.Avg), Rounded(s.Max)
	return SummaryResponse{Min: &minV, Avg: &avgV, Max: &maxV}
}

func NewDatasetSummaryResponse(s DatasetSummary) DatasetSummaryResponse {
	return DatasetSummaryResponse{
		Stations:          s.Stations,
		Measurements:      s.Measurements,
		FirstDate:         FormatDate(s.FirstDate),
		LastDate:          FormatDate(s.LastDate),
		MostActiveStation: s.MostActiveStation.Station,
		MostActiveCount:   s.MostActiveStation.Count,
	}
}
