package webserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/logger"
	"github.com/mdouchement/monitoraedes/internal/database"
	"github.com/mdouchement/monitoraedes/internal/webserver/serializer"
	"github.com/mdouchement/monitoraedes/internal/webserver/service"
	"github.com/mdouchement/monitoraedes/internal/webserver/weberror"
	"github.com/mdouchement/monitoraedes/internal/xpath"
	"github.com/pkg/errors"
)

type detection struct {
	logger   logger.Logger
	db       database.Client
	ingester *service.Ingester
	baseURL  string
}

func (h *detection) Create(c echo.Context) error {
	c.Set("handler_method", "detection.Create")

	report, err := h.report(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return weberror.MissingField("image")
	}

	f, err := fh.Open()
	if err != nil {
		return weberror.New(http.StatusBadRequest, err.Error())
	}
	defer f.Close()

	//

	baseURL := h.baseURL
	if baseURL == "" {
		baseURL = c.Scheme() + "://" + c.Request().Host
	}

	detection, err := h.ingester.Ingest(baseURL, report, service.Image{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Body:        f,
	})
	switch errors.Cause(err) {
	case nil:
	case service.ErrNotAnImage:
		return weberror.New(http.StatusBadRequest, err.Error())
	case service.ErrInvalidRaspberryID:
		return weberror.InvalidField("raspberry_id")
	default:
		h.logger.Errorf("could not process data from %s: %s", report.RaspberryID, err)
		return weberror.Newf(http.StatusInternalServerError, "Error processing data: %s", err)
	}

	//

	h.logger.Infof("Data received from %s: %d detections", report.RaspberryID, report.DetectionCount)
	h.logger.Infof("Image stored: %s", detection.ImageURL)

	return c.JSON(http.StatusOK, echo.Map{
		"status":         "success",
		"message":        "Data received successfully from " + report.RaspberryID,
		"image_filename": detection.ImageFilename,
		"image_url":      detection.ImageURL,
		"detections":     detection.DetectionCount,
	})
}

func (h *detection) report(c echo.Context) (r service.Report, err error) {
	if r.RaspberryID, err = formString(c, "raspberry_id"); err != nil {
		return
	}
	// The identifier is part of the image file names.
	if !xpath.Bare(r.RaspberryID) {
		err = weberror.InvalidField("raspberry_id")
		return
	}
	if r.Name, err = formString(c, "name"); err != nil {
		return
	}
	if r.Location, err = formString(c, "location"); err != nil {
		return
	}
	if r.DetectionCount, err = formInt(c, "detection_count"); err != nil {
		return
	}
	if r.Temperature, err = formFloat(c, "temperature"); err != nil {
		return
	}
	if r.Humidity, err = formFloat(c, "humidity"); err != nil {
		return
	}
	if r.Latitude, err = formFloat(c, "latitude"); err != nil {
		return
	}
	if r.Longitude, err = formFloat(c, "longitude"); err != nil {
		return
	}

	// Older stations do not send their confidence.
	if c.FormValue("confidence") != "" {
		r.Confidence, err = formFloat(c, "confidence")
	}
	return
}

func (h *detection) Latest(c echo.Context) error {
	c.Set("handler_method", "detection.Latest")

	limit, err := queryLimit(c)
	if err != nil {
		return err
	}

	detections, err := h.db.LatestDetections(limit)
	if err != nil {
		return weberror.New(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": serializer.Detections(detections),
	})
}

func (h *detection) Images(c echo.Context) error {
	c.Set("handler_method", "detection.Images")

	limit, err := queryLimit(c)
	if err != nil {
		return err
	}

	id := c.Param("raspberry_id")
	detections, err := h.db.FindDetectionsByStation(id, limit)
	if err != nil {
		return weberror.New(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"raspberry_id": id,
		"images":       serializer.StationImages(detections),
	})
}

func (h *detection) Statistics(c echo.Context) error {
	c.Set("handler_method", "detection.Statistics")

	detections, err := h.db.AllDetections()
	if err != nil {
		return weberror.New(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, serializer.Statistics(service.ComputeStatistics(detections)))
}
