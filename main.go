package main

import (
	"time"

	"storefront-app/config"
	"storefront-app/database"
	routes "storefront-app/internal/app/http"
	"storefront-app/internal/domain/revisions"
	"storefront-app/internal/platform/logger"
	"storefront-app/internal/realtime"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// gin.SetMode(gin.ReleaseMode) uncomment only in production
	config.LoadEnv()

	log, err := logger.New("dev")
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	database.InitDB()

	hub := realtime.NewHub(log)
	realtime.Init(hub)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.CORS_ORIGIN},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, hub)

	if config.REVISION_SWEEP_MINUTES > 0 {
		go retentionSweep(log)
	}

	r.Run(":" + config.PORT)
}

// retentionSweep periodically trims every page's revision log to the
// configured cap. Cleanup is idempotent, so overlapping with the
// opportunistic per-write cleanup is harmless.
func retentionSweep(log *logger.Logger) {
	interval := time.Duration(config.REVISION_SWEEP_MINUTES) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		deleted, err := revisions.CleanupAll(database.DB, config.RevisionKeep())
		if err != nil {
			log.Error("retention sweep failed", "error", err)
			continue
		}
		if deleted > 0 {
			log.Info("retention sweep done", "deleted", deleted)
		}
	}
}
