package types

import "time"

type Station struct {
	ID        int64
	Station   string
	Name      string
	Latitude  float64
	Longitude float64
	Elevation float64
}

// Measurement is one day's reading at a station. Precipitation and
// Temperature are nil when the source row has no value.
type Measurement struct {
	ID            int64
	Station       string
	Date          time.Time
	Precipitation *float64
	Temperature   *float64
}

type StationCount struct {
	Station string
	Count   int
}

type TemperaturePoint struct {
	Date        time.Time
	Temperature float64
}

// TemperatureSummary holds unrounded aggregates over non-null temperatures.
type TemperatureSummary struct {
	Min   float64
	Avg   float64
	Max   float64
	Count int
}

type PrecipitationPoint struct {
	Date  time.Time
	Value *float64
}

type DatasetSummary struct {
	Stations          int
	Measurements      int
	FirstDate         time.Time
	LastDate          time.Time
	MostActiveStation StationCount
}
