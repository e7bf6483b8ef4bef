package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/entityadmin/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Warmer reloads lookup lists; *lookup.Service implements it.
type Warmer interface {
	Warm(ctx context.Context) (map[string]int, error)
}

// LookupWarmupJob invalidates and reloads the lookup caches.
type LookupWarmupJob struct {
	Lookups Warmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Timeout time.Duration
}

// NewLookupWarmupJob wires dependencies for the warmup handler.
func NewLookupWarmupJob(lookups Warmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *LookupWarmupJob {
	return &LookupWarmupJob{Lookups: lookups, Logger: logger, Metrics: metrics, Timeout: 30 * time.Second}
}

// Handle processes lookup warmup tasks.
func (j *LookupWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Lookups == nil {
		return errors.New("lookup warmup: handler not configured")
	}
	var payload LookupWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Reason == "" {
		payload.Reason = "scheduled"
	}

	tracker := j.metrics().Track(TaskLookupWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("reason", payload.Reason))
	logger.Info("starting lookup warmup")
	start := time.Now()

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	counts, err := j.Lookups.Warm(ctx)
	for src, n := range counts {
		j.metrics().AddWarmed(src, n)
	}
	if err != nil {
		resultErr = err
		logger.Error("warm lookups", slog.Any("error", err))
		return resultErr
	}

	logger.Info("completed lookup warmup",
		slog.Int("currencies", counts["currencies"]),
		slog.Int("countries", counts["countries"]),
		slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *LookupWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLookupWarmup))
	}
	return slog.Default().With(slog.String("job", TaskLookupWarmup))
}

func (j *LookupWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
