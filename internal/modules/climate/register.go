package climate

import (
	"database/sql"
	"net/http"

	"climate-server/internal/modules/climate/controller"
	"climate-server/internal/modules/climate/repository"
	"climate-server/internal/modules/climate/service"
)

// RegisterFeature wires the climate module onto mux and returns its service
// for startup checks and the dataset announcement.
func RegisterFeature(mux *http.ServeMux, db *sql.DB) *service.Service {
	climateRepository := repository.NewRepository(db)
	climateService := service.NewService(climateRepository)
	climateController := controller.NewClimateController(climateService)
	climateController.RegisterRoutes(mux)
	return climateService
}
