package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"

	pkgredis "github.com/sure-link/core/internal/pkg/redis"
)

func NewHub(rc *pkgredis.Client, logger *zap.Logger) *Hub {
	sio := socketio.NewServer(nil, nil)
	return &Hub{
		clients:    make(map[string]*socketio.Socket),
		broadcast:  make(chan Message, 256),
		register:   make(chan clientMeta, 256),
		unregister: make(chan clientMeta, 256),
		instanceID: uuid.NewString(),
		rc:         rc,
		logger:     logger.Named("Gateway"),
		sio:        sio,
	}
}

// Run starts the hub loop and Redis subscriber.
func (h *Hub) Run(ctx context.Context) {
	go h.subscribeRedis(ctx)

	for {
		select {
		case <-ctx.Done():
			h.sio.Close(nil)
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case msg := <-h.broadcast:
			h.deliver(msg)
			msg.Origin = h.instanceID
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if err := h.rc.Publish(ctx, redisChanBroadcast, string(data)); err != nil {
				h.logger.Warn("gateway publish failed", zap.Error(err))
			}
		}
	}
}

func (h *Hub) registerClient(c clientMeta) {
	h.mu.Lock()
	if _, ok := h.clients[c.sid]; ok {
		h.mu.Unlock()
		return
	}
	h.clients[c.sid] = c.socket
	currentOnline := len(h.clients)
	h.mu.Unlock()

	h.Broadcast(eventOnlineCount, currentOnline)
	h.updateDailyOnlineStats(currentOnline)
}

func (h *Hub) unregisterClient(c clientMeta) {
	h.mu.Lock()
	if _, ok := h.clients[c.sid]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.sid)
	currentOnline := len(h.clients)
	h.mu.Unlock()

	h.Broadcast(eventOnlineCount, currentOnline)
}

func (h *Hub) updateDailyOnlineStats(currentOnline int) {
	if currentOnline < 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	dateKey := shortDateKey(time.Now())

	maxOnline := 0
	currentMax, err := h.rc.Raw().HGet(ctx, redisKeyMaxOnlineCount, dateKey).Result()
	switch {
	case err == nil:
		if parsed, parseErr := strconv.Atoi(strings.TrimSpace(currentMax)); parseErr == nil {
			maxOnline = parsed
		}
	case err == redis.Nil:
		// no-op
	default:
		h.logger.Warn("gateway get max online failed", zap.Error(err))
	}

	if currentOnline > maxOnline {
		if err := h.rc.Raw().HSet(ctx, redisKeyMaxOnlineCount, dateKey, currentOnline).Err(); err != nil {
			h.logger.Warn("gateway set max online failed", zap.Error(err))
		}
	}

	if err := h.rc.Raw().HIncrBy(ctx, redisKeyMaxOnlineCountTotal, dateKey, 1).Err(); err != nil {
		h.logger.Warn("gateway incr online total failed", zap.Error(err))
	}
}

func shortDateKey(t time.Time) string {
	return t.Format("1-2-06")
}

// Broadcast sends an event to every connected client on every instance.
func (h *Hub) Broadcast(event string, payload interface{}) {
	h.broadcast <- Message{Event: event, Payload: payload}
}

// ToClient emits directly to one locally connected client. Returns false
// when the client is not connected to this instance.
func (h *Hub) ToClient(sid, event string, payload interface{}) bool {
	h.mu.RLock()
	client, ok := h.clients[sid]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	if err := client.Emit(event, payload); err != nil {
		h.logger.Warn("gateway emit failed", zap.String("sid", sid), zap.String("event", event), zap.Error(err))
		return false
	}
	return true
}

// OnlineCount returns the number of clients connected to this instance.
func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Handler returns the socket.io HTTP handler mounted at /socket.io.
func (h *Hub) Handler() http.Handler {
	return h.sio.ServeHandler(nil)
}
