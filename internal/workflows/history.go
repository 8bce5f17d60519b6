package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// HistoryInput is the input for the history workflow.
type HistoryInput struct {
	UserID      string
	Source      string
	Destination string
	SearchedAt  time.Time
}

// RecordHistoryWorkflow durably stores a navigation search. The insert is
// retried with backoff so a database outage does not lose history.
func RecordHistoryWorkflow(ctx workflow.Context, input HistoryInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Recording search history", "userID", input.UserID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2,
			MaximumInterval:        time.Minute,
			MaximumAttempts:        10,
			NonRetryableErrorTypes: []string{ErrTypeInvalidEntry},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var id string
	if err := workflow.ExecuteActivity(ctx, "SaveHistory", input).Get(ctx, &id); err != nil {
		logger.Warn("history not recorded", "error", err)
		return err
	}

	logger.Info("History recorded", "id", id)
	return nil
}
