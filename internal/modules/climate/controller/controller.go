package controller

import (
	"context"
	"net/http"
	"time"

	"climate-server/internal/modules/climate/service"
	"climate-server/internal/modules/climate/types"
)

type ClimateService interface {
	Precipitation(ctx context.Context) ([]types.PrecipitationPoint, error)
	Stations(ctx context.Context) ([]types.Station, error)
	MostActiveTemperatures(ctx context.Context) (service.MostActive, error)
	TemperatureSummaryFrom(ctx context.Context, start time.Time) (types.TemperatureSummary, error)
	TemperatureSummaryBetween(ctx context.Context, start, end time.Time) (types.TemperatureSummary, error)
	Summary(ctx context.Context) (types.DatasetSummary, error)
}

type ClimateController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type climateControllerImpl struct {
	service ClimateService
}

func NewClimateController(service ClimateService) ClimateController {
	return &climateControllerImpl{service: service}
}

func (c *climateControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleIndex)
	mux.HandleFunc("GET "+apiPrefix+"/precipitation", c.handlePrecipitation)
	mux.HandleFunc("GET "+apiPrefix+"/stations", c.handleStations)
	mux.HandleFunc("GET "+apiPrefix+"/tobs", c.handleTobs)
	mux.HandleFunc("GET "+apiPrefix+"/summary", c.handleSummary)
	mux.HandleFunc("GET "+apiPrefix+"/{start}", c.handleTemperatureFrom)
	mux.HandleFunc("GET "+apiPrefix+"/{start}/{end}", c.handleTemperatureBetween)
}
