package webserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/logger"
	"github.com/mdouchement/monitoraedes/internal/database"
	"github.com/mdouchement/monitoraedes/internal/storage"
	"github.com/mdouchement/monitoraedes/internal/webserver/service"
	"github.com/mdouchement/monitoraedes/internal/webserver/weberror"
	"github.com/pkg/errors"
)

type admin struct {
	logger  logger.Logger
	db      database.Client
	storage storage.Backend
}

func (h *admin) Delete(c echo.Context) error {
	c.Set("handler_method", "admin.Delete")

	req := service.PurgeRequest{
		RaspberryID: c.QueryParam("raspberry_id"),
		StartDate:   c.QueryParam("start_date"),
		EndDate:     c.QueryParam("end_date"),
	}

	result, err := service.NewPurger(h.db, h.storage).Purge(req)
	if errors.Cause(err) == service.ErrInvalidDate {
		return weberror.New(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return weberror.Newf(http.StatusInternalServerError, "Error deleting data: %s", err)
	}

	//

	var message string
	switch result.Scope {
	case service.PurgeScopeDates:
		message = fmt.Sprintf("Deleted data between %s and %s", req.StartDate, req.EndDate)
	case service.PurgeScopeStation:
		message = "Deleted data for " + req.RaspberryID
	default:
		message = "All data has been deleted"
	}
	h.logger.Info(message)

	return c.JSON(http.StatusOK, echo.Map{
		"status":             "success",
		"message":            message,
		"deleted_detections": result.Detections,
		"deleted_stations":   result.Stations,
	})
}
