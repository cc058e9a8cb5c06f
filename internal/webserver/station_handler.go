package webserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/logger"
	"github.com/mdouchement/monitoraedes/internal/database"
	"github.com/mdouchement/monitoraedes/internal/webserver/serializer"
	"github.com/mdouchement/monitoraedes/internal/webserver/service"
	"github.com/mdouchement/monitoraedes/internal/webserver/weberror"
)

type station struct {
	logger logger.Logger
	db     database.Client
}

func (h *station) Locations(c echo.Context) error {
	c.Set("handler_method", "station.Locations")

	stations, err := h.db.ListStations()
	if err != nil {
		return weberror.New(http.StatusInternalServerError, err.Error())
	}

	detections, err := h.db.AllDetections()
	if err != nil {
		return weberror.New(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"raspberry_locations": serializer.StationSummaries(service.SummarizeStations(stations, detections)),
	})
}
