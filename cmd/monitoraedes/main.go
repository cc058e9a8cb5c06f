package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"runtime"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/logger"
	"github.com/mdouchement/monitoraedes/internal/database"
	"github.com/mdouchement/monitoraedes/internal/legacy"
	"github.com/mdouchement/monitoraedes/internal/scheduler"
	"github.com/mdouchement/monitoraedes/internal/storage"
	"github.com/mdouchement/monitoraedes/internal/webserver"
	"github.com/ncw/swift/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const dbname = "monitoraedes.db"

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"

	binding string
	port    string
)

func main() {
	c := &cobra.Command{
		Use:     "monitoraedes",
		Short:   "Aedes traps data receiver",
		Version: fmt.Sprintf("%s - build %.7s @ %s - %s", version, revision, date, runtime.Version()),
		Args:    cobra.ExactArgs(0),
	}
	c.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Version for monitoraedes",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(c.Version)
		},
	})
	c.AddCommand(initCmd)
	c.AddCommand(reindexCmd)
	c.AddCommand(importCmd)

	serverCmd.Flags().StringVarP(&binding, "binding", "b", "0.0.0.0", "Server's binding")
	serverCmd.Flags().StringVarP(&port, "port", "p", "8000", "Server's port")
	c.AddCommand(serverCmd)

	if err := c.Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}

var (
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Init the database and register the reference stations",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			filename := nameWithEnv("DATABASE_PATH", dbname)
			if err := database.StormInit(filename); err != nil {
				return err
			}

			db, err := database.StormOpen(filename)
			if err != nil {
				return errors.Wrap(err, "could not open database")
			}
			defer db.Close()

			n, err := database.Seed(db)
			if err != nil {
				return err
			}

			newLogger().Infof("%d stations registered", n)
			return nil
		},
	}

	//

	reindexCmd = &cobra.Command{
		Use:   "reindex",
		Short: "Reindex the database",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			return database.StormReIndex(nameWithEnv("DATABASE_PATH", dbname))
		},
	}

	//

	importCmd = &cobra.Command{
		Use:   "import <raspberry_data.db>",
		Short: "Import the SQLite database of the former receiver",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			db, err := database.StormOpen(nameWithEnv("DATABASE_PATH", dbname))
			if err != nil {
				return errors.Wrap(err, "could not open database")
			}
			defer db.Close()

			_, err = legacy.Import(args[0], db, newLogger().WithPrefix("[import]"))
			return err
		},
	}

	//

	serverCmd = &cobra.Command{
		Use:   "server",
		Short: "Start server",
		Args:  cobra.ExactArgs(0),
		RunE: func(c *cobra.Command, _ []string) error {
			ctrl := webserver.Controller{
				Version: c.Parent().Version,
				//
				BaseURL:  os.Getenv("BASE_URL"),
				AdminKey: os.Getenv("ADMIN_KEY"),
				Debug:    os.Getenv("DEBUG") != "",
			}

			//

			ctrl.Logger = newLogger()
			if ctrl.AdminKey == "" {
				ctrl.Logger.Warn("ADMIN_KEY is not set, data deletion is disabled")
			}

			//

			db, err := database.StormOpen(nameWithEnv("DATABASE_PATH", dbname))
			if err != nil {
				return errors.Wrap(err, "could not open database")
			}
			defer db.Close()
			ctrl.Database = db

			if _, err = database.Seed(db); err != nil {
				return errors.Wrap(err, "could not register reference stations")
			}

			//

			ctrl.Storage, err = newStorage()
			if err != nil {
				return errors.Wrap(err, "could not open storage")
			}
			ctrl.Logger.Infof("Images stored with %s backend", ctrl.Storage.Name())

			//

			offline, err := time.ParseDuration(envORdefault("OFFLINE_AFTER", "1h"))
			if err != nil {
				return errors.Wrap(err, "OFFLINE_AFTER")
			}

			cron, err := scheduler.Start(scheduler.Controller{
				Logger:        ctrl.Logger,
				Database:      ctrl.Database,
				Storage:       ctrl.Storage,
				Specification: envORdefault("SCHEDULER_SPEC", "@every 1m"),
				OfflineAfter:  offline,
			})
			if err != nil {
				return err
			}
			defer cron.Stop()

			//

			engine := webserver.EchoEngine(ctrl)
			webserver.PrintRoutes(engine)

			listen := fmt.Sprintf("%s:%s", binding, port)
			ctrl.Logger.Infof("Server listening on %s", listen)
			return errors.Wrap(
				serve(engine, listen),
				"could not run server",
			)
		},
	}
)

func serve(engine *echo.Echo, listen string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		errc <- engine.Start(listen)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return engine.Shutdown(ctx)
}

func newLogger() logger.Logger {
	log := logrus.New()
	log.SetFormatter(&logger.LogrusTextFormatter{
		DisableColors:   false,
		ForceColors:     true,
		ForceFormatting: true,
		PrefixRE:        regexp.MustCompile(`^(\[.*?\])\s`),
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if os.Getenv("DEBUG") != "" {
		log.SetLevel(logrus.DebugLevel)
	}
	return logger.WrapLogrus(log)
}

func newStorage() (storage.Backend, error) {
	switch backend := envORdefault("STORAGE_BACKEND", "file_system"); backend {
	case "file_system":
		return storage.NewFileSystem(nameWithEnv("IMAGES_PATH", "images"))
	case "swift":
		conn := &swift.Connection{
			AuthUrl:  os.Getenv("SWIFT_AUTH_URL"),
			UserName: os.Getenv("SWIFT_USERNAME"),
			ApiKey:   os.Getenv("SWIFT_API_KEY"),
			Tenant:   os.Getenv("SWIFT_TENANT"),
			Domain:   os.Getenv("SWIFT_DOMAIN"),
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return storage.NewSwift(ctx, conn, envORdefault("SWIFT_CONTAINER", "images"))
	default:
		return nil, errors.Errorf("unknown STORAGE_BACKEND: %s", backend)
	}
}

func nameWithEnv(env, name string) string {
	p := os.Getenv(env)
	if len(p) == 0 {
		return name
	}
	return filepath.Join(p, name)
}

func envORdefault(name, fallback string) string {
	p := os.Getenv(name)
	if len(p) == 0 {
		return fallback
	}
	return p
}
