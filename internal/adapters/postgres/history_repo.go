package postgres

import (
	"context"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// HistoryRepo implements ports.HistoryRepository.
type HistoryRepo struct {
	db *DB
}

func NewHistoryRepo(db *DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

func (r *HistoryRepo) Insert(ctx context.Context, entry *domain.HistoryEntry) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO search_history (user_id, source, destination, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text
	`, entry.UserID, entry.Source, entry.Destination, entry.CreatedAt).Scan(&entry.ID)
}

// ListByUser returns the user's entries in insertion order.
func (r *HistoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id::text, user_id, source, destination, created_at
		FROM search_history
		WHERE user_id = $1
		ORDER BY created_at, id
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.HistoryEntry{}
	for rows.Next() {
		var e domain.HistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Source, &e.Destination, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
