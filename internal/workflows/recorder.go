package workflows

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/pkg/logging"
)

// WorkflowStarter is the part of client.Client used by Recorder.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// Recorder implements ports.HistoryRecorder by starting RecordHistoryWorkflow.
// It returns once the workflow is accepted, not when the row is written.
type Recorder struct {
	starter   WorkflowStarter
	taskQueue string
}

// NewRecorder creates a Recorder that schedules work on taskQueue.
func NewRecorder(starter WorkflowStarter, taskQueue string) *Recorder {
	return &Recorder{starter: starter, taskQueue: taskQueue}
}

// Record schedules entry for durable storage.
func (r *Recorder) Record(ctx context.Context, entry *domain.HistoryEntry) error {
	if entry.UserID == "" || entry.Source == "" || entry.Destination == "" {
		return fmt.Errorf("%w: user, source and destination are required", domain.ErrInvalidInput)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	opts := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("history-%s-%d", entry.UserID, entry.CreatedAt.UnixNano()),
		TaskQueue: r.taskQueue,
	}
	input := HistoryInput{
		UserID:      entry.UserID,
		Source:      entry.Source,
		Destination: entry.Destination,
		SearchedAt:  entry.CreatedAt,
	}
	if _, err := r.starter.ExecuteWorkflow(ctx, opts, RecordHistoryWorkflow, input); err != nil {
		return fmt.Errorf("start history workflow: %w", err)
	}

	logging.FromContext(ctx).Debug("history workflow started", "workflow_id", opts.ID)
	return nil
}
