package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// runTTL bounds how long an idle user's generation counter is kept.
const runTTL = 24 * time.Hour

// RunStore implements ports.RunStore with a per-user INCR counter, so every
// API instance agrees on which navigation run is the latest.
type RunStore struct {
	client valkey.Client
	prefix string
}

// New creates a new Valkey-backed run store.
func New(addr string) (*RunStore, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &RunStore{client: client, prefix: "nav:run:"}, nil
}

func (s *RunStore) key(userID string) string {
	return s.prefix + userID
}

// Next bumps and returns the user's run generation.
func (s *RunStore) Next(ctx context.Context, userID string) (int64, error) {
	key := s.key(userID)
	results := s.client.DoMulti(ctx,
		s.client.B().Incr().Key(key).Build(),
		s.client.B().Expire().Key(key).Seconds(int64(runTTL/time.Second)).Build(),
	)
	id, err := results[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if err := results[1].Error(); err != nil {
		return 0, fmt.Errorf("expire %s: %w", key, err)
	}
	return id, nil
}

// Current returns the latest generation, or 0 when none was allocated.
func (s *RunStore) Current(ctx context.Context, userID string) (int64, error) {
	key := s.key(userID)
	id, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).AsInt64()
	if valkey.IsValkeyNil(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", key, err)
	}
	return id, nil
}

// Ping checks connectivity.
func (s *RunStore) Ping(ctx context.Context) error {
	return s.client.Do(ctx, s.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (s *RunStore) Close() {
	s.client.Close()
}
