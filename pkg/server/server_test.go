package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jqnatividad/qsv-stats/pkg/store/memory"
)

func newTestServer() *Server {
	return New(memory.New(), nil)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(raw)
	} else {
		payload = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, payload)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestIngestAndStats(t *testing.T) {
	router := newTestServer().Router()

	rr := doJSON(t, router, http.MethodPost, "/api/v1/datasets/orders/samples", IngestRequest{
		Columns: map[string][]float64{"price": {3, 5, 7, 9}},
		Nulls:   map[string]int{"price": 1},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var ingest IngestResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ingest))
	require.Equal(t, 5, ingest.Samples)

	rr = doJSON(t, router, http.MethodGet, "/api/v1/datasets/orders/stats", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var stats StatsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	require.Len(t, stats.Columns, 1)

	price := stats.Columns[0]
	require.Equal(t, "price", price.Column)
	require.Equal(t, 4, price.Count)
	require.Equal(t, 1, price.Nulls)
	require.NotNil(t, price.Median)
	require.Equal(t, 6.0, *price.Median)
	require.NotNil(t, price.Q1)
	require.Equal(t, 4.0, *price.Q1)
	require.Equal(t, 8.0, *price.Q3)
}

func TestIngestRejectsEmptyPayload(t *testing.T) {
	router := newTestServer().Router()

	rr := doJSON(t, router, http.MethodPost, "/api/v1/datasets/d/samples", IngestRequest{})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Contains(t, resp["message"], "no samples")
}

func TestStatsUnknownDataset(t *testing.T) {
	router := newTestServer().Router()

	rr := doJSON(t, router, http.MethodGet, "/api/v1/datasets/ghost/stats", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMergeDatasets(t *testing.T) {
	router := newTestServer().Router()

	rr := doJSON(t, router, http.MethodPost, "/api/v1/datasets/part1/samples", IngestRequest{
		Columns: map[string][]float64{"v": {3, 5}},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = doJSON(t, router, http.MethodPost, "/api/v1/datasets/part2/samples", IngestRequest{
		Columns: map[string][]float64{"v": {7, 9}},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, router, http.MethodPost, "/api/v1/datasets/part1/merge", MergeRequest{Source: "part2"})
	require.Equal(t, http.StatusOK, rr.Code)

	// The source dataset is gone, the target holds the union.
	rr = doJSON(t, router, http.MethodGet, "/api/v1/datasets/part2/stats", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/api/v1/datasets/part1/stats", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var stats StatsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	require.Equal(t, 4, stats.Columns[0].Count)
	require.Equal(t, 6.0, *stats.Columns[0].Median)
}

func TestMergeRejectsSelfAndMissing(t *testing.T) {
	router := newTestServer().Router()

	rr := doJSON(t, router, http.MethodPost, "/api/v1/datasets/d/merge", MergeRequest{Source: "d"})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, router, http.MethodPost, "/api/v1/datasets/d/merge", MergeRequest{Source: "ghost"})
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSnapshotSaveRestore(t *testing.T) {
	srv := newTestServer()
	router := srv.Router()

	rr := doJSON(t, router, http.MethodPost, "/api/v1/datasets/d/samples", IngestRequest{
		Columns: map[string][]float64{"v": {2, 4, 8, 8}},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, router, http.MethodPost, "/api/v1/datasets/d/snapshot", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	// Drop the live dataset, then restore from the snapshot.
	rr = doJSON(t, router, http.MethodDelete, "/api/v1/datasets/d", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = doJSON(t, router, http.MethodGet, "/api/v1/datasets/d/stats", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, router, http.MethodPost, "/api/v1/datasets/d/restore", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/api/v1/datasets/d/stats", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var stats StatsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	require.Equal(t, 4, stats.Columns[0].Count)
	require.NotNil(t, stats.Columns[0].Mode)
	require.Equal(t, 8.0, *stats.Columns[0].Mode)

	// Restoring into live state merges like any other partition.
	rr = doJSON(t, router, http.MethodPost, "/api/v1/datasets/d/restore", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = doJSON(t, router, http.MethodGet, "/api/v1/datasets/d/stats", nil)
	var doubled StatsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doubled))
	require.Equal(t, 8, doubled.Columns[0].Count)
}

func TestRestoreMissingSnapshot(t *testing.T) {
	router := newTestServer().Router()

	rr := doJSON(t, router, http.MethodPost, "/api/v1/datasets/ghost/restore", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListDatasetsAndSnapshots(t *testing.T) {
	router := newTestServer().Router()

	rr := doJSON(t, router, http.MethodPost, "/api/v1/datasets/b/samples", IngestRequest{
		Columns: map[string][]float64{"v": {1}},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = doJSON(t, router, http.MethodPost, "/api/v1/datasets/a/samples", IngestRequest{
		Columns: map[string][]float64{"v": {1}},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = doJSON(t, router, http.MethodPost, "/api/v1/datasets/a/snapshot", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/api/v1/datasets", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string][]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, []string{"a", "b"}, resp["datasets"])
	require.Equal(t, []string{"a"}, resp["snapshots"])
}

func TestHealth(t *testing.T) {
	router := newTestServer().Router()
	rr := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
}
