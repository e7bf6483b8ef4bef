package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/entityadmin/internal/jobs"
)

type stubWarmer struct {
	calls  int
	counts map[string]int
	err    error
}

func (s *stubWarmer) Warm(ctx context.Context) (map[string]int, error) {
	s.calls++
	return s.counts, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewLookupWarmupTaskDefaultsReason(t *testing.T) {
	task, err := NewLookupWarmupTask("  ")
	require.NoError(t, err)
	assert.Equal(t, TaskLookupWarmup, task.Type())

	var payload LookupWarmupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "scheduled", payload.Reason)
}

func TestLookupWarmupJobHandle(t *testing.T) {
	warmer := &stubWarmer{counts: map[string]int{"currencies": 3, "countries": 2}}
	job := NewLookupWarmupJob(warmer, discardLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewLookupWarmupTask("manual")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 1, warmer.calls)
}

func TestLookupWarmupJobPropagatesFailure(t *testing.T) {
	boom := errors.New("sql api down")
	warmer := &stubWarmer{err: boom}
	job := NewLookupWarmupJob(warmer, discardLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewLookupWarmupTask("")
	require.NoError(t, err)
	require.ErrorIs(t, job.Handle(context.Background(), task), boom)
}

func TestLookupWarmupJobSkipsRetryOnBadPayload(t *testing.T) {
	warmer := &stubWarmer{}
	job := NewLookupWarmupJob(warmer, discardLogger(), nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskLookupWarmup, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
	assert.Zero(t, warmer.calls)
}

func TestLookupWarmupJobNotConfigured(t *testing.T) {
	var job *LookupWarmupJob
	require.Error(t, job.Handle(context.Background(), asynq.NewTask(TaskLookupWarmup, nil)))
}

func TestHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, discardLogger()).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body queueHealth
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, QueueDefault, body.Queue)
	assert.Zero(t, body.Pending)
}
