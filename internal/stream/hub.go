package stream

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Event is one change pushed to a session's subscribers.
type Event struct {
	Type      string `json:"type"`
	WorkoutID string `json:"workoutId,omitempty"`
	HTML      string `json:"html,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// envelope tags relayed events with the publishing hub so a hub skips its
// own messages when they come back from Redis.
type envelope struct {
	Origin string          `json:"origin"`
	Event  json.RawMessage `json:"event"`
}

type Hub struct {
	id      string
	redis   *redis.Client
	log     *zap.Logger
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	cancel  context.CancelFunc
	done    chan struct{}
}

type Client struct {
	SessionID string
	Send      chan []byte
}

func NewHub(redisClient *redis.Client, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		id:      uuid.NewString(),
		redis:   redisClient,
		log:     log,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancel = cancel
		h.done = make(chan struct{})
		pubsub := redisClient.PSubscribe(ctx, channelPattern)
		go h.subscribeRedis(ctx, pubsub)
	}
	return h
}

func (h *Hub) Register(sessionID string) *Client {
	client := &Client{
		SessionID: sessionID,
		Send:      make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = map[*Client]struct{}{}
	}
	h.clients[sessionID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessionClients, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	if _, ok := sessionClients[client]; !ok {
		return
	}
	delete(sessionClients, client)
	if len(sessionClients) == 0 {
		delete(h.clients, client.SessionID)
	}
	close(client.Send)
}

// Subscribers reports how many clients listen on a session.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// Publish delivers ev to the session's local clients and relays it through
// Redis when configured.
func (h *Hub) Publish(sessionID string, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("encode event", zap.String("session", sessionID), zap.String("type", ev.Type), zap.Error(err))
		return
	}
	h.deliver(sessionID, payload)

	if h.redis == nil {
		return
	}
	msg, _ := json.Marshal(envelope{Origin: h.id, Event: payload})
	if err := h.redis.Publish(context.Background(), redisChannel(sessionID), msg).Err(); err != nil {
		h.log.Warn("redis publish error", zap.String("session", sessionID), zap.Error(err))
	}
}

func (h *Hub) deliver(sessionID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[sessionID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis(ctx context.Context, pubsub *redis.PubSub) {
	defer close(h.done)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.log.Warn("drop malformed relay message", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			if env.Origin == h.id {
				continue
			}
			h.deliver(sessionIDFromChannel(msg.Channel), env.Event)
		}
	}
}

// Close stops the Redis relay.
func (h *Hub) Close() {
	if h.cancel == nil {
		return
	}
	h.cancel()
	<-h.done
}

const (
	channelPrefix  = "mapty:"
	channelSuffix  = ":events"
	channelPattern = channelPrefix + "*" + channelSuffix
)

func redisChannel(sessionID string) string {
	return channelPrefix + sessionID + channelSuffix
}

func sessionIDFromChannel(ch string) string {
	if len(ch) <= len(channelPrefix)+len(channelSuffix) ||
		!strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
