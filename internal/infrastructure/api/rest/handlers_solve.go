package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/distsudoku/master/internal/application/coordinator"
	"github.com/distsudoku/master/internal/domain/partition"
	"github.com/distsudoku/master/internal/infrastructure/logger"
)

// SolveHandlers serves POST /solve.
type SolveHandlers struct {
	coord *coordinator.Coordinator
	log   *logger.Logger
}

// NewSolveHandlers creates a new SolveHandlers.
func NewSolveHandlers(coord *coordinator.Coordinator, log *logger.Logger) *SolveHandlers {
	return &SolveHandlers{coord: coord, log: log}
}

// HandleSolve implements POST /solve: intake a board, returning a job
// id and "processing" immediately, or a completed result when the
// board was already solved by the intake propagation pass.
func (h *SolveHandlers) HandleSolve(c *gin.Context) {
	var req solveRequest
	if !bindJSON(c, &req) {
		return
	}

	in := coordinator.SolveInput{
		Board:    req.Board,
		Strategy: partition.Strategy(req.Strategy),
	}

	out, err := h.coord.Solve(c.Request.Context(), in)
	if err != nil {
		h.log.Error("solve failed", "request_id", GetRequestID(c), "err", err)
		respondAPIErrorWithRequestID(c, err)
		return
	}

	respondJSON(c, http.StatusAccepted, toSolveResponse(out))
}
