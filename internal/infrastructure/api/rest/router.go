// Package rest implements spec.md §6's HTTP surface over gin: one
// handler file per resource group, errors.go translating application
// errors into the wire-level APIError, and an additive /ws/:jobId
// progress stream.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/uptrace/bun"

	"github.com/distsudoku/master/internal/application/coordinator"
	"github.com/distsudoku/master/internal/infrastructure/logger"
	"github.com/distsudoku/master/internal/infrastructure/storage"
)

// NewRouter builds the gin engine and registers every route. db is
// nil when the master runs with the in-memory solution sink; when set
// (the bun/Postgres-backed sink), /healthz and /metrics also report on
// its connection.
func NewRouter(coord *coordinator.Coordinator, log *logger.Logger, db *bun.DB) *gin.Engine {
	if log == nil {
		log = logger.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	solveH := NewSolveHandlers(coord, log)
	workerH := NewWorkerHandlers(coord, log)
	queryH := NewQueryHandlers(coord, log)
	wsH := NewWSHandlers(coord, log)

	r.POST("/solve", solveH.HandleSolve)

	r.GET("/queue", workerH.HandlePullSubJob)
	r.POST("/result", workerH.HandleSubmitResult)
	r.POST("/heartbeat", workerH.HandleHeartbeat)

	r.GET("/grid/:jobId", queryH.HandleGetGrid)
	r.GET("/result/:jobId", queryH.HandleGetResult)
	r.GET("/FinalsolvedResults", queryH.HandleFinalSolvedResults)
	r.GET("/totalJobs", queryH.HandleTotalJobs)

	r.GET("/ws/:jobId", wsH.HandleProgress)

	r.GET("/healthz", func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := storage.Ping(ctx, db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/metrics", func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"database": "in-memory"})
			return
		}
		dbStats := storage.Stats(db)
		c.JSON(http.StatusOK, gin.H{"database": gin.H{
			"open_connections": dbStats.OpenConnections,
			"in_use":           dbStats.InUse,
			"idle":             dbStats.Idle,
			"max_open_conns":   dbStats.MaxOpenConnections,
		}})
	})

	return r
}
