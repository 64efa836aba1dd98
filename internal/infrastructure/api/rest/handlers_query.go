package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/distsudoku/master/internal/application/coordinator"
	"github.com/distsudoku/master/internal/infrastructure/logger"
)

// QueryHandlers serves the read-only job-introspection surface:
// GET /grid/:jobId, GET /result/:jobId, GET /FinalsolvedResults, and
// GET /totalJobs.
type QueryHandlers struct {
	coord *coordinator.Coordinator
	log   *logger.Logger
}

// NewQueryHandlers creates a new QueryHandlers.
func NewQueryHandlers(coord *coordinator.Coordinator, log *logger.Logger) *QueryHandlers {
	return &QueryHandlers{coord: coord, log: log}
}

// HandleGetGrid implements GET /grid/:jobId.
func (h *QueryHandlers) HandleGetGrid(c *gin.Context) {
	jobID, ok := getParam(c, "jobId")
	if !ok {
		return
	}

	out, err := h.coord.GetGrid(c.Request.Context(), jobID)
	if err != nil {
		respondAPIErrorWithRequestID(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toGridResponse(out))
}

// HandleGetResult implements GET /result/:jobId.
func (h *QueryHandlers) HandleGetResult(c *gin.Context) {
	jobID, ok := getParam(c, "jobId")
	if !ok {
		return
	}
	h.respondResult(c, jobID)
}

// HandleFinalSolvedResults implements GET /FinalsolvedResults?jobId=...,
// the query-param alias spec.md §6 also names for GetResult.
func (h *QueryHandlers) HandleFinalSolvedResults(c *gin.Context) {
	jobID, ok := getQuery(c, "jobId")
	if !ok {
		return
	}
	h.respondResult(c, jobID)
}

func (h *QueryHandlers) respondResult(c *gin.Context, jobID string) {
	out, err := h.coord.GetResult(c.Request.Context(), jobID)
	if err != nil {
		respondAPIErrorWithRequestID(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toResultResponse(out))
}

// HandleTotalJobs implements GET /totalJobs.
func (h *QueryHandlers) HandleTotalJobs(c *gin.Context) {
	n := h.coord.TotalJobs(c.Request.Context())
	respondJSON(c, http.StatusOK, totalJobsResponse{TotalJobs: n})
}
