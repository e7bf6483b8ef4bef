package jobs

import (
	"encoding/json"
	"strings"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLookupWarmup refreshes the cached lookup lists.
	TaskLookupWarmup = "lookup:warmup"
)

// LookupWarmupPayload describes why a warmup was requested.
type LookupWarmupPayload struct {
	Reason string `json:"reason"`
}

// NewLookupWarmupTask constructs an Asynq task. An empty reason defaults to
// "scheduled".
func NewLookupWarmupTask(reason string) (*asynq.Task, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "scheduled"
	}
	data, err := json.Marshal(LookupWarmupPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLookupWarmup, data, asynq.Queue(QueueDefault)), nil
}
