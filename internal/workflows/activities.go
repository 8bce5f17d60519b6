package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
)

// ErrTypeInvalidEntry marks entries that no retry can fix.
const ErrTypeInvalidEntry = "InvalidHistoryEntry"

// HistoryActivities holds the activity implementations for the history workflow.
type HistoryActivities struct {
	History ports.HistoryRepository
}

// SaveHistory inserts the entry and returns its ID.
func (a *HistoryActivities) SaveHistory(ctx context.Context, input HistoryInput) (string, error) {
	if input.UserID == "" || input.Source == "" || input.Destination == "" {
		return "", temporal.NewNonRetryableApplicationError(
			"user, source and destination are required", ErrTypeInvalidEntry, domain.ErrInvalidInput)
	}

	entry := &domain.HistoryEntry{
		UserID:      input.UserID,
		Source:      input.Source,
		Destination: input.Destination,
		CreatedAt:   input.SearchedAt,
	}
	if err := a.History.Insert(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return "", temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidEntry, err)
		}
		return "", fmt.Errorf("insert history: %w", err)
	}
	return entry.ID, nil
}
