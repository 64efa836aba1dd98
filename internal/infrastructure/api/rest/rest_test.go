package rest

import (
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/distsudoku/master/internal/application/aggregator"
	"github.com/distsudoku/master/internal/application/coordinator"
	"github.com/distsudoku/master/internal/application/dispatcher/memory"
	"github.com/distsudoku/master/internal/domain/registry"
	"github.com/distsudoku/master/internal/infrastructure/logger"
	"github.com/distsudoku/master/internal/infrastructure/storage"
)

// setupTestRouter wires a Coordinator over an in-memory dispatcher and
// sink and returns a full gin engine, mirroring the teacher's
// setupXHandlersTest helpers.
func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	reg := registry.NewRegistry()
	disp := memory.New()
	sink := storage.NewMemorySink()
	log := logger.New(logger.Config{Level: "error", Format: "text"})
	agg := aggregator.New(reg, disp, sink, aggregator.DefaultConfig(), log)
	coord := coordinator.New(reg, disp, agg, sink, log)

	return NewRouter(coord, log, nil)
}
