package rest

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distsudoku/master/testutil"
)

func TestHandlePullSubJob_MissingWorkerID(t *testing.T) {
	router := setupTestRouter(t)

	w := testutil.MakeRequest(t, router, http.MethodGet, "/queue", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlePullSubJob_EmptyQueue(t *testing.T) {
	router := setupTestRouter(t)

	w := testutil.MakeRequest(t, router, http.MethodGet, "/queue?workerId=worker-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleHeartbeat_MissingWorkerID(t *testing.T) {
	router := setupTestRouter(t)

	w := testutil.MakeRequest(t, router, http.MethodPost, "/heartbeat", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleHeartbeat_OK(t *testing.T) {
	router := setupTestRouter(t)

	w := testutil.MakeRequest(t, router, http.MethodPost, "/heartbeat", map[string]any{"workerId": "worker-1"})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

// TestFullPullSubmitRoundTrip drives the "deadly rectangle" fixture
// through /solve, /queue, and /result over HTTP: resolving one of its
// two coupled blocks forces the other via column uniqueness, the
// same scenario proven in coordinator_test.go.
func TestFullPullSubmitRoundTrip(t *testing.T) {
	router := setupTestRouter(t)

	solveReq := map[string]any{
		"board": [][]int{
			{1, 2, 0, 0},
			{3, 4, 1, 2},
			{2, 1, 0, 0},
			{4, 3, 2, 1},
		},
		"strategy": "BLOCK",
	}
	w := testutil.MakeRequest(t, router, http.MethodPost, "/solve", solveReq)
	require.Equal(t, http.StatusAccepted, w.Code)
	jobID, ok := decodeData(t, w.Body.Bytes())["jobId"].(string)
	require.True(t, ok)
	require.NotEmpty(t, jobID)

	// block(0,1): cells (0,2),(0,3),(1,2),(1,3) -> values [0,0,1,2].
	w = testutil.MakeRequest(t, router, http.MethodGet, "/queue?workerId=worker-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sj1 := decodeData(t, w.Body.Bytes())
	require.Equal(t, []any{float64(0), float64(0), float64(1), float64(2)}, sj1["board"])

	// block(1,1): cells (2,2),(2,3),(3,2),(3,3) -> values [0,0,2,1].
	w = testutil.MakeRequest(t, router, http.MethodGet, "/queue?workerId=worker-2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resultReq := map[string]any{
		"id":        sj1["id"],
		"values":    []int{4, 3, 1, 2},
		"sureMask":  []bool{true, true, true, true},
		"iteration": sj1["iteration"],
	}
	w = testutil.MakeRequest(t, router, http.MethodPost, "/result", resultReq)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "received", decodeData(t, w.Body.Bytes())["status"])

	w = testutil.MakeRequest(t, router, http.MethodGet, "/result/"+jobID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w.Body.Bytes())
	assert.Equal(t, "completed", data["status"], "resolving one coupled block forces the other via column uniqueness")
	assert.NotNil(t, data["solvedBoard"])
}
