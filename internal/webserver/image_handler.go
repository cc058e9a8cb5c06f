package webserver

import (
	"net/http"
	"path"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/logger"
	"github.com/mdouchement/monitoraedes/internal/database"
	"github.com/mdouchement/monitoraedes/internal/storage"
	"github.com/mdouchement/monitoraedes/internal/webserver/service"
	"github.com/mdouchement/monitoraedes/internal/webserver/weberror"
	"github.com/mdouchement/monitoraedes/internal/xpath"
)

// ImagesPrefix is the route prefix of the static images.
const ImagesPrefix = "images"

type image struct {
	logger  logger.Logger
	db      database.Client
	storage storage.Backend
}

func (h *image) Exists(c echo.Context) error {
	c.Set("handler_method", "image.Exists")

	filename, ok := xpath.Filename(c.Param("filename"))
	if !ok {
		return weberror.New(http.StatusBadRequest, "invalid image filename")
	}

	exist, err := service.NewImageDownloader(h.storage, filename).Exist()
	if err != nil {
		return weberror.New(http.StatusInternalServerError, err.Error())
	}

	var p interface{}
	if exist {
		p = path.Join(ImagesPrefix, filename)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"filename": filename,
		"exists":   exist,
		"path":     p,
	})
}

func (h *image) Download(c echo.Context) error {
	c.Set("handler_method", "image.Download")

	c.Response().Header().Set(echo.HeaderCacheControl, "max-age=3600")
	return h.stream(c)
}

func (h *image) Static(c echo.Context) error {
	c.Set("handler_method", "image.Static")

	return h.stream(c)
}

func (h *image) stream(c echo.Context) error {
	filename, ok := xpath.Filename(c.Param("filename"))
	if !ok {
		return weberror.New(http.StatusBadRequest, "invalid image filename")
	}

	downloader := service.NewImageDownloader(h.storage, filename)

	exist, err := downloader.Exist()
	if err != nil {
		return weberror.New(http.StatusInternalServerError, err.Error())
	}
	if !exist {
		return weberror.New(http.StatusNotFound, "Image not found")
	}

	r, err := downloader.Stream()
	if err != nil {
		return weberror.New(http.StatusInternalServerError, err.Error())
	}
	defer r.Close()

	// Imported and orphan images have no known checksum.
	detection, err := h.db.FindDetectionByImage(filename)
	if err != nil && !h.db.IsNotFound(err) {
		return weberror.New(http.StatusInternalServerError, err.Error())
	}
	if err == nil && detection.ImageChecksum != "" {
		c.Response().Header().Set("Content-Length", strconv.FormatInt(detection.ImageSize, 10))
		c.Response().Header().Set("Etag", detection.ImageChecksum)
	}

	return c.Stream(http.StatusOK, downloader.ContentType(), r)
}
