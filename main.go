package main

import (
	"context"
	_ "embed"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"formbase/backend/api/route"
	"formbase/backend/common"
	"formbase/backend/library/cleanup"
	"formbase/backend/model"
	"formbase/backend/service"

	"github.com/gin-gonic/gin"
)

//go:embed VERSION
var versionFileContent string

func main() {
	// Set version from embedded file at the very beginning
	common.Version = strings.TrimSpace(versionFileContent)
	flag.Parse()
	if *common.PrintVersion {
		println(common.Version)
		os.Exit(0)
	}
	if *common.PrintHelpFlag {
		common.PrintHelp()
		os.Exit(0)
	}
	common.SetupGinLog()
	common.SysLog("formbase " + common.Version + " started")
	if os.Getenv("GIN_MODE") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	// Initialize Redis
	err := common.InitRedisClient()
	if err != nil {
		common.FatalLog(err)
	}
	// Initialize SQL Database
	err = model.InitDB()
	if err != nil {
		common.FatalLog(err)
	}
	defer func() {
		err := model.CloseDB()
		if err != nil {
			common.FatalLog(err)
		}
	}()

	// Construct the storage backend once and hand it to everything that
	// needs it.
	backend, err := service.InitStorageBackend(context.Background())
	if err != nil {
		common.FatalLog(err)
	}

	// One-shot local-to-S3 migration, before the server accepts traffic.
	service.MigrateOnStart(backend)

	// Background cleanup of orphaned uploads.
	var scheduler *cleanup.Scheduler
	if common.CleanupEnabled {
		scheduler = cleanup.NewScheduler(backend, cleanup.Config{
			Enabled:  true,
			Interval: time.Duration(common.CleanupIntervalHours) * time.Hour,
			MinAge:   time.Duration(common.CleanupMinAgeDays) * 24 * time.Hour,
			DryRun:   common.CleanupDryRun,
		})
		scheduler.Start()
	}

	// Initialize HTTP server
	server := gin.Default()
	route.SetRouter(server, os.Getenv("FRONTEND_DIST"))

	port := strconv.Itoa(*common.Port)
	common.SysLog("Server listening on port: " + port)

	setupGracefulShutdown(scheduler)

	err = server.Run(":" + port)
	if err != nil {
		log.Fatal("failed to start server: " + err.Error())
	}
}

// setupGracefulShutdown registers signal handlers to ensure clean shutdown
func setupGracefulShutdown(scheduler *cleanup.Scheduler) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		common.SysLog("Shutting down...")

		// Let an in-flight cleanup pass finish rather than interrupting
		// a delete.
		if scheduler != nil {
			scheduler.Stop()
		}
		if err := model.CloseDB(); err != nil {
			common.SysError("error closing database: " + err.Error())
		}
		os.Exit(0)
	}()
}
