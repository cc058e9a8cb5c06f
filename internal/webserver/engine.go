package webserver

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mdouchement/logger"
	"github.com/mdouchement/monitoraedes/internal/database"
	"github.com/mdouchement/monitoraedes/internal/storage"
	middlewarepkg "github.com/mdouchement/monitoraedes/internal/webserver/middleware"
	"github.com/mdouchement/monitoraedes/internal/webserver/service"
)

// A Controller is an Iversion Of Control pattern used to init the server package.
type Controller struct {
	Version  string
	Logger   logger.Logger
	Database database.Client
	Storage  storage.Backend
	//
	BaseURL  string
	AdminKey string
	Debug    bool
}

// EchoEngine instantiates the wep server.
func EchoEngine(ctrl Controller) *echo.Echo {
	engine := echo.New()
	engine.HideBanner = true
	engine.HidePort = true

	engine.Use(middleware.Recover())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"*"},
		AllowCredentials: true,
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch,
			http.MethodPost, http.MethodDelete, http.MethodOptions,
		},
	}))
	engine.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		// Images are already compressed.
		Skipper: func(c echo.Context) bool {
			return c.Request().Method == http.MethodGet && isImagePath(c.Request().URL.Path)
		},
	}))
	engine.Use(middlewarepkg.Logger(ctrl.Logger))
	if ctrl.Debug {
		engine.Use(middlewarepkg.Dumpper(ctrl.Logger))
	}

	engine.HTTPErrorHandler = middlewarepkg.NewHTTPErrorHandler(ctrl.Logger)

	//
	//
	//

	router := engine.Group("")

	// Generic handlers
	//
	router.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"message": "Raspberry Pi Data Receiver API",
			"status":  "running",
		})
	})
	router.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"status":    "healthy",
			"timestamp": time.Now().UTC(),
		})
	})
	router.GET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"version": ctrl.Version,
		})
	})

	api := router.Group("/api")

	// Detection
	//
	detection := detection{
		logger:   ctrl.Logger.WithPrefix("[ingest]"),
		db:       ctrl.Database,
		ingester: service.NewIngester(ctrl.Database, ctrl.Storage),
		baseURL:  ctrl.BaseURL,
	}
	api.POST("/raspberry-data", detection.Create)
	api.GET("/raspberry-images/:raspberry_id", detection.Images)
	api.GET("/latest-data", detection.Latest)
	api.GET("/statistics", detection.Statistics)

	// Station
	//
	station := station{
		logger: ctrl.Logger,
		db:     ctrl.Database,
	}
	api.GET("/raspberry-locations", station.Locations)

	// Image
	//
	image := image{
		logger:  ctrl.Logger,
		db:      ctrl.Database,
		storage: ctrl.Storage,
	}
	api.GET("/image-exists/:filename", image.Exists)
	api.GET("/image/:filename", image.Download)
	router.GET("/"+ImagesPrefix+"/:filename", image.Static)

	// Administration
	//
	admin := admin{
		logger:  ctrl.Logger.WithPrefix("[admin]"),
		db:      ctrl.Database,
		storage: ctrl.Storage,
	}
	api.DELETE("/delete-data", admin.Delete, middlewarepkg.AdminKey(ctrl.AdminKey))

	return engine
}

// PrintRoutes prints the Echo engin exposed routes.
func PrintRoutes(e *echo.Echo) {
	ignored := map[string]bool{
		"":   true,
		".":  true,
		"/*": true,
	}

	routes := e.Routes()
	sort.Slice(routes, func(i int, j int) bool {
		return routes[i].Path < routes[j].Path
	})

	fmt.Println("Routes:")
	for _, route := range routes {
		if ignored[route.Path] {
			continue
		}
		fmt.Printf("%6s %s\n", route.Method, route.Path)
	}
}

func isImagePath(p string) bool {
	return strings.HasPrefix(p, "/"+ImagesPrefix+"/") || strings.HasPrefix(p, "/api/image/")
}
