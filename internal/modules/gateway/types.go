package gateway

import (
	"sync"

	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"

	pkgredis "github.com/sure-link/core/internal/pkg/redis"
)

// Inbound socket events.
const (
	eventUpdateLocation      = "updateLocation"
	eventChatMessage         = "chatMessage"
	eventGetNearbyUsers      = "getNearbyUsers"
	eventGetEncounterHistory = "getEncounterHistory"
	eventGetEncounterStats   = "getEncounterStats"
	eventGetHeatmapData      = "getHeatmapData"
	eventGetDailyStats       = "getDailyStats"
)

// Outbound socket events.
const (
	eventUpdateUsers      = "updateUsers"
	eventOnlineCount      = "onlineCount"
	eventEncounter        = "encounter"
	eventChatHistory      = "chatHistory"
	eventNearbyUsers      = "nearbyUsers"
	eventEncounterHistory = "encounterHistory"
	eventEncounterStats   = "encounterStats"
	eventHeatmapData      = "heatmapData"
	eventDailyStats       = "dailyStats"
	eventError            = "error"
)

const (
	namespaceRoot = "/"

	redisChanBroadcast = "surelink:gateway:broadcast"

	redisKeyMaxOnlineCount      = "surelink:max_online_count"
	redisKeyMaxOnlineCountTotal = "surelink:max_online_count:total"
)

// Message is the envelope used by hub broadcasts and Redis fan-out. Origin
// carries the publishing instance id so a node can skip its own relayed
// messages.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	Origin  string      `json:"origin,omitempty"`
}

type clientMeta struct {
	sid    string
	socket *socketio.Socket
}

// Hub owns the socket.io server, tracks connected clients and fans
// broadcasts out to every instance through Redis pub/sub.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*socketio.Socket

	broadcast  chan Message
	register   chan clientMeta
	unregister chan clientMeta

	instanceID string
	rc         *pkgredis.Client
	logger     *zap.Logger
	sio        *socketio.Server
	co         *Coordinator
}
