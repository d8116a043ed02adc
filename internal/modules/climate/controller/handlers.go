package controller

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"climate-server/internal/modules/climate/types"
	"climate-server/internal/modules/climate/views"
	"climate-server/internal/utils"
)

func (c *climateControllerImpl) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data := &views.IndexData{Routes: indexRoutes}
	summary, err := c.service.Summary(r.Context())
	if err != nil {
		slog.Warn("index: dataset summary unavailable", "error", err)
	} else {
		data.Coverage = &views.Coverage{
			Stations:     summary.Stations,
			Measurements: summary.Measurements,
			FirstDate:    types.FormatDate(summary.FirstDate),
			LastDate:     types.FormatDate(summary.LastDate),
		}
	}
	var buf bytes.Buffer
	if err := views.RenderIndex(&buf, data); err != nil {
		slog.Error("index template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("index: write response failed", "error", err)
	}
}

func (c *climateControllerImpl) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	series, err := c.service.Precipitation(r.Context())
	if err != nil {
		writeServiceError(w, "precipitation", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, types.NewPrecipitationResponse(series))
}

func (c *climateControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := c.service.Stations(r.Context())
	if err != nil {
		writeServiceError(w, "stations", err)
		return
	}
	out := make([]types.StationResponse, 0, len(stations))
	for _, s := range stations {
		out = append(out, types.NewStationResponse(s))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (c *climateControllerImpl) handleTobs(w http.ResponseWriter, r *http.Request) {
	active, err := c.service.MostActiveTemperatures(r.Context())
	if err != nil {
		writeServiceError(w, "temperatures", err)
		return
	}
	slog.Debug("most active station", "station", active.Station.Station, "rows", active.Station.Count)
	utils.WriteJSON(w, http.StatusOK, types.NewTemperatureResponses(active.Points))
}

func (c *climateControllerImpl) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := c.service.Summary(r.Context())
	if err != nil {
		writeServiceError(w, "summary", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, types.NewDatasetSummaryResponse(summary))
}

func (c *climateControllerImpl) handleTemperatureFrom(w http.ResponseWriter, r *http.Request) {
	start, err := parseDateParam(r, "start")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := c.service.TemperatureSummaryFrom(r.Context(), start)
	c.writeSummary(w, summary, err)
}

func (c *climateControllerImpl) handleTemperatureBetween(w http.ResponseWriter, r *http.Request) {
	start, err := parseDateParam(r, "start")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseDateParam(r, "end")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if start.After(end) {
		utils.WriteError(w, http.StatusBadRequest, types.NewRangeError(start, end).Error())
		return
	}
	summary, err := c.service.TemperatureSummaryBetween(r.Context(), start, end)
	c.writeSummary(w, summary, err)
}

func (c *climateControllerImpl) writeSummary(w http.ResponseWriter, summary types.TemperatureSummary, err error) {
	if errors.Is(err, types.ErrNoData) {
		utils.WriteJSON(w, http.StatusOK, types.NewSummaryResponse(nil))
		return
	}
	if err != nil {
		writeServiceError(w, "temperature summary", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, types.NewSummaryResponse(&summary))
}
