package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	calls int
	err   error
}

func (f *fakeEnqueuer) EnqueueGLIntegrityScan(ctx context.Context) (*asynq.TaskInfo, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mountHandler(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)
	return r
}

func TestHealthWithoutInspectorReportsEmptyQueue(t *testing.T) {
	srv := mountHandler(NewHandler(nil, nil, testLogger()))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"queue":"default","pending":0}`, rec.Body.String())
}

func TestTriggerScanEnqueuesTask(t *testing.T) {
	enq := &fakeEnqueuer{}
	srv := mountHandler(NewHandler(nil, enq, testLogger()))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/integrity-scan", nil))

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, 1, enq.calls)
	require.JSONEq(t, `{"task_id":"task-1","queue":"default"}`, rec.Body.String())
}

func TestTriggerScanFailsWhenQueueUnavailable(t *testing.T) {
	enq := &fakeEnqueuer{err: errors.New("redis down")}
	srv := mountHandler(NewHandler(nil, enq, testLogger()))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/integrity-scan", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	srv = mountHandler(NewHandler(nil, nil, testLogger()))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/integrity-scan", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
