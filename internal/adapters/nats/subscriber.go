package natsadapter

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// Subscriber fans NATS messages out to in-process handlers. It backs the
// WebSocket relay, where each client holds its own subscriptions.
type Subscriber struct {
	conn *nats.Conn
}

// NewSubscriber connects to url.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Subscriber{conn: conn}, nil
}

// Subscribe delivers every message on subject to fn until the returned
// unsubscribe func is called.
func (s *Subscriber) Subscribe(subject string, fn func(data []byte)) (func(), error) {
	sub, err := s.conn.Subscribe(subject, func(msg *nats.Msg) {
		fn(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// IsConnected reports whether the underlying connection is up.
func (s *Subscriber) IsConnected() bool {
	return s.conn.IsConnected()
}

// Close drains and closes the connection.
func (s *Subscriber) Close() {
	_ = s.conn.Drain()
}
