package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	natsadapter "github.com/samirrijal/saferoute/internal/adapters/nats"
)

// wsMessage is sent from client to subscribe/unsubscribe to navigation feeds.
type wsMessage struct {
	Action string `json:"action"` // "subscribe" | "unsubscribe"
	User   string `json:"user"`   // user filter (optional, "" = all users)
}

// subjectFor maps a user filter onto a navigation subject.
func subjectFor(user string) string {
	if user == "" {
		return natsadapter.NavigationSubjects
	}
	return natsadapter.NavigationSubject(user)
}

// WebSocketHandler returns a handler that relays completed navigation events
// to connected clients.
// Clients send JSON: {"action":"subscribe","user":"u-123"}
// The ?user= query selects the initial feed; without it every navigation is relayed.
func WebSocketHandler(events EventStream) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		var mu sync.Mutex
		subs := make(map[string]func()) // subject -> unsubscribe

		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		relay := func(data []byte) {
			_ = writeJSON(json.RawMessage(data))
		}

		defaultSubject := subjectFor(c.Query("user"))
		unsub, err := events.Subscribe(defaultSubject, relay)
		if err != nil {
			slog.Error("ws default subscribe failed", "subject", defaultSubject, "error", err)
			return
		}
		subs[defaultSubject] = unsub

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			subject := subjectFor(m.User)

			switch m.Action {
			case "subscribe":
				if _, exists := subs[subject]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				unsub, err := events.Subscribe(subject, relay)
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs[subject] = unsub
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				if unsub, exists := subs[subject]; exists {
					unsub()
					delete(subs, subject)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		for _, unsub := range subs {
			unsub()
		}
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
