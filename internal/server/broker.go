package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Delta is a state change published to session subscribers after the
// mutating call has already returned the new state synchronously. Delivery
// is best effort, at most once; clients resync via the state endpoint.
type Delta struct {
	Type        string `json:"type"`
	RoundNumber int    `json:"roundNumber,omitempty"`
	ClueID      string `json:"clueId,omitempty"`
	TeamID      string `json:"teamId,omitempty"`
	TeamName    string `json:"teamName,omitempty"`
	Category    string `json:"category,omitempty"`
	Points      int    `json:"points,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Delta types.
const (
	DeltaTeamJoined    = "team_joined"
	DeltaGameStarted   = "game_started"
	DeltaClueRevealed  = "clue_revealed"
	DeltaWarrantResult = "warrant_result"
	DeltaRoundAdvanced = "round_advanced"
	DeltaGamePaused    = "game_paused"
	DeltaGameResumed   = "game_resumed"
	DeltaGameCompleted = "game_completed"
)

// envelope wraps a delta on the Redis wire so an instance can skip the
// messages it published itself.
type envelope struct {
	Origin string `json:"origin"`
	Delta  Delta  `json:"delta"`
}

const redisChannel = "geochase:deltas"

// Broker is an in-process pub/sub for SSE deltas, keyed by session ID.
// With a Redis client configured it also mirrors every delta to a shared
// channel so other instances can serve the same session's streams.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[chan []byte]struct{}
	rdb    *redis.Client
	origin string
	logger *slog.Logger
}

func NewBroker(rdb *redis.Client, logger *slog.Logger) *Broker {
	return &Broker{
		subs:   make(map[string]map[chan []byte]struct{}),
		rdb:    rdb,
		origin: newID(),
		logger: logger,
	}
}

// Subscribe returns a channel receiving JSON-encoded deltas for a session.
func (b *Broker) Subscribe(sessionID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan []byte]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the session's subscribers.
func (b *Broker) Unsubscribe(sessionID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[sessionID], ch)
	if len(b.subs[sessionID]) == 0 {
		delete(b.subs, sessionID)
	}
	b.mu.Unlock()
}

// Publish fans a delta out to the session's local subscribers and mirrors
// it to Redis when configured.
func (b *Broker) Publish(ctx context.Context, sessionID string, d Delta) {
	data, _ := json.Marshal(d)
	b.deliver(sessionID, data)

	if b.rdb != nil {
		wire, _ := json.Marshal(redisMessage{Session: sessionID, Envelope: envelope{Origin: b.origin, Delta: d}})
		if err := b.rdb.Publish(ctx, redisChannel, wire).Err(); err != nil {
			b.logger.Warn("redis publish failed", "session_id", sessionID, "error", err)
		}
	}
}

type redisMessage struct {
	Session  string   `json:"session"`
	Envelope envelope `json:"envelope"`
}

func (b *Broker) deliver(sessionID string, data []byte) {
	b.mu.RLock()
	for ch := range b.subs[sessionID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}

// Relay forwards deltas published by other instances into the local
// subscriber set. It blocks until ctx is done.
func (b *Broker) Relay(ctx context.Context) {
	if b.rdb == nil {
		<-ctx.Done()
		return
	}

	sub := b.rdb.Subscribe(ctx, redisChannel)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			var m redisMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				continue
			}
			if m.Envelope.Origin == b.origin {
				continue // already delivered locally
			}
			data, _ := json.Marshal(m.Envelope.Delta)
			b.deliver(m.Session, data)
		}
	}
}
