package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/distsudoku/master/internal/application/coordinator"
	"github.com/distsudoku/master/internal/infrastructure/logger"
)

// WorkerHandlers serves the worker-facing surface: GET /queue,
// POST /result, POST /heartbeat.
type WorkerHandlers struct {
	coord *coordinator.Coordinator
	log   *logger.Logger
}

// NewWorkerHandlers creates a new WorkerHandlers.
func NewWorkerHandlers(coord *coordinator.Coordinator, log *logger.Logger) *WorkerHandlers {
	return &WorkerHandlers{coord: coord, log: log}
}

// HandlePullSubJob implements GET /queue?workerId=....
func (h *WorkerHandlers) HandlePullSubJob(c *gin.Context) {
	workerID, ok := getQuery(c, "workerId")
	if !ok {
		return
	}

	sj, err := h.coord.PullSubJob(c.Request.Context(), workerID)
	if err != nil {
		respondAPIErrorWithRequestID(c, err)
		return
	}

	respondJSON(c, http.StatusOK, subJobResponse(sj))
}

// HandleSubmitResult implements POST /result.
func (h *WorkerHandlers) HandleSubmitResult(c *gin.Context) {
	var req submitResultRequest
	if !bindJSON(c, &req) {
		return
	}

	out, err := h.coord.SubmitResult(c.Request.Context(), req.toInput())
	if err != nil {
		h.log.Error("submit result failed", "request_id", GetRequestID(c), "sub_job_id", req.SubJobID, "err", err)
		respondAPIErrorWithRequestID(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toSubmitResultResponse(out))
}

// HandleHeartbeat implements POST /heartbeat.
func (h *WorkerHandlers) HandleHeartbeat(c *gin.Context) {
	var req heartbeatRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.coord.Heartbeat(c.Request.Context(), req.WorkerID); err != nil {
		respondAPIErrorWithRequestID(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
