package controller

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"climate-server/internal/modules/climate/types"
	"climate-server/internal/modules/climate/views"
	"climate-server/internal/utils"
)

const apiPrefix = "/api/v1.0"

var indexRoutes = []views.Route{
	{Path: apiPrefix + "/precipitation", Description: "Daily precipitation for the last 12 months of data, summed over stations"},
	{Path: apiPrefix + "/stations", Description: "All weather stations"},
	{Path: apiPrefix + "/tobs", Description: "Temperatures of the most active station for the last 12 months of data"},
	{Path: apiPrefix + "/<start>", Description: "Min, average and max temperature from start (YYYY-MM-DD) onward"},
	{Path: apiPrefix + "/<start>/<end>", Description: "Min, average and max temperature between start and end inclusive"},
	{Path: apiPrefix + "/summary", Description: "Dataset coverage"},
}

func parseDateParam(r *http.Request, name string) (time.Time, error) {
	return types.ParseDate(r.PathValue(name))
}

// writeServiceError maps service errors onto HTTP statuses. ErrNoData is
// not an error at the HTTP level and must be handled by the caller.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, types.ErrInvalidRange):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, types.ErrNotFound):
		slog.Error(op+": dataset unavailable", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "dataset unavailable")
	default:
		slog.Error(op+" failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load "+op)
	}
}
