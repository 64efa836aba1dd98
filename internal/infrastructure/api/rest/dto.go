package rest

import (
	"github.com/distsudoku/master/internal/application/coordinator"
	"github.com/distsudoku/master/internal/domain/partition"
)

// solveRequest is POST /solve's body.
type solveRequest struct {
	Board    [][]int `json:"board" binding:"required"`
	Strategy string  `json:"strategy,omitempty"`
}

// solveResponse is POST /solve's 2xx body.
type solveResponse struct {
	JobID        string  `json:"jobId"`
	Status       string  `json:"status"`
	PartialBoard [][]int `json:"partialBoard,omitempty"`
	SolvedBoard  [][]int `json:"solvedBoard,omitempty"`
}

func toSolveResponse(out coordinator.SolveOutput) solveResponse {
	return solveResponse{
		JobID:        out.JobID,
		Status:       out.Status,
		PartialBoard: out.PartialBoard,
		SolvedBoard:  out.SolvedBoard,
	}
}

// subJobResponse is GET /queue's 2xx body — the partition.SubJob
// wire shape is the contract itself, so it is returned as-is.
type subJobResponse = partition.SubJob

// submitResultRequest is POST /result's body.
type submitResultRequest struct {
	SubJobID   string `json:"id" binding:"required"`
	Values     []int  `json:"values"`
	SureMask   []bool `json:"sureMask"`
	Iteration  int    `json:"iteration"`
	Unsolvable bool   `json:"unsolvable"`
}

func (r submitResultRequest) toInput() coordinator.SubmitResultInput {
	return coordinator.SubmitResultInput{
		SubJobID:   r.SubJobID,
		Values:     r.Values,
		SureMask:   r.SureMask,
		Iteration:  r.Iteration,
		Unsolvable: r.Unsolvable,
	}
}

// submitResultResponse is POST /result's 2xx body.
type submitResultResponse struct {
	SubJobID string `json:"id"`
	Status   string `json:"status"`
}

func toSubmitResultResponse(out coordinator.SubmitResultOutput) submitResultResponse {
	return submitResultResponse{SubJobID: out.SubJobID, Status: out.Status}
}

// heartbeatRequest is POST /heartbeat's body.
type heartbeatRequest struct {
	WorkerID string `json:"workerId" binding:"required"`
}

// gridResponse is GET /grid/:jobId's 2xx body.
type gridResponse struct {
	JobID        string  `json:"jobId"`
	PartialBoard [][]int `json:"partialBoard"`
}

func toGridResponse(out coordinator.GetGridOutput) gridResponse {
	return gridResponse{JobID: out.JobID, PartialBoard: out.PartialBoard}
}

// resultResponse is GET /result/:jobId's 2xx body.
type resultResponse struct {
	JobID       string  `json:"jobId"`
	Status      string  `json:"status"`
	SolvedBoard [][]int `json:"solvedBoard,omitempty"`
	Progress    int     `json:"progress,omitempty"`
}

func toResultResponse(out coordinator.GetResultOutput) resultResponse {
	return resultResponse{
		JobID:       out.JobID,
		Status:      out.Status,
		SolvedBoard: out.SolvedBoard,
		Progress:    out.Progress,
	}
}

// totalJobsResponse is GET /totalJobs's 2xx body.
type totalJobsResponse struct {
	TotalJobs int `json:"totalJobs"`
}
