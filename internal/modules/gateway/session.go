package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sure-link/core/internal/models"
	"github.com/sure-link/core/internal/modules/chat"
	"github.com/sure-link/core/internal/modules/encounter"
	"github.com/sure-link/core/internal/modules/geo"
	"github.com/sure-link/core/internal/modules/presence"
	"github.com/sure-link/core/internal/modules/ratelimit"
	"github.com/sure-link/core/internal/pkg/taskqueue"
)

var (
	errInvalidLocation = errors.New("無効な位置情報です")
	errQueryFailed     = errors.New("データの取得に失敗しました")
	errTooManyRequests = errors.New("リクエストが速すぎます。少しお待ちください。")
)

// Emitter abstracts socket delivery so the coordinator can be tested
// without a live socket.io server. *Hub satisfies it.
type Emitter interface {
	Broadcast(event string, payload interface{})
	ToClient(sid, event string, payload interface{}) bool
	OnlineCount() int
}

// ChatStore persists chat messages.
type ChatStore interface {
	SaveMessage(username, text string) (*models.MessageModel, error)
	GetHistory(limit int) ([]chat.HistoryItem, error)
}

// EncounterStore persists encounters and answers history queries.
type EncounterStore interface {
	Save(rec encounter.Record) error
	History(sid string, limit int) ([]encounter.HistoryItem, error)
	GetStats(sid string) (encounter.Stats, error)
	Heatmap(sid string) ([]encounter.HeatPoint, error)
	DailyStats(sid string, days int) ([]encounter.DailyCount, error)
}

// CoordinatorConfig carries the per-event rate policies and query limits.
type CoordinatorConfig struct {
	ChatPolicy       ratelimit.Policy
	LocationPolicy   ratelimit.Policy
	GeneralPolicy    ratelimit.Policy
	ChatHistoryLimit int
	NearbyRadius     float64
}

// Coordinator drives one socket event from rate gate to broadcast: it
// validates payloads, mutates presence, runs encounter detection and hands
// persistence off to the task queue. It holds no per-connection state of
// its own.
type Coordinator struct {
	emitter    Emitter
	presence   *presence.Store
	detector   *encounter.Detector
	limiter    *ratelimit.Limiter
	chatStore  ChatStore
	encounters EncounterStore
	queue      *taskqueue.Queue
	cfg        CoordinatorConfig
	logger     *zap.Logger
}

func NewCoordinator(
	emitter Emitter,
	store *presence.Store,
	detector *encounter.Detector,
	limiter *ratelimit.Limiter,
	chatStore ChatStore,
	encounters EncounterStore,
	queue *taskqueue.Queue,
	cfg CoordinatorConfig,
	logger *zap.Logger,
) *Coordinator {
	if cfg.ChatPolicy.Max == 0 {
		cfg.ChatPolicy = ratelimit.Chat
	}
	if cfg.LocationPolicy.Max == 0 {
		cfg.LocationPolicy = ratelimit.Location
	}
	if cfg.GeneralPolicy.Max == 0 {
		cfg.GeneralPolicy = ratelimit.General
	}
	if cfg.ChatHistoryLimit <= 0 {
		cfg.ChatHistoryLimit = 50
	}
	if cfg.NearbyRadius <= 0 {
		cfg.NearbyRadius = 1000
	}
	return &Coordinator{
		emitter:    emitter,
		presence:   store,
		detector:   detector,
		limiter:    limiter,
		chatStore:  chatStore,
		encounters: encounters,
		queue:      queue,
		cfg:        cfg,
		logger:     logger.Named("Coordinator"),
	}
}

// HandleConnect replays recent chat to the new connection. The online count
// broadcast is the hub's registration concern.
func (co *Coordinator) HandleConnect(sid string) {
	co.queue.Enqueue("chat_history_replay", func(ctx context.Context) error {
		history, err := co.chatStore.GetHistory(co.cfg.ChatHistoryLimit)
		if err != nil {
			return err
		}
		co.emitter.ToClient(sid, eventChatHistory, history)
		return nil
	})
}

// HandleLocationUpdate is the hot path: rate gate, validate, upsert,
// broadcast the roster, then detect and announce encounters.
func (co *Coordinator) HandleLocationUpdate(sid string, raw interface{}) {
	if !co.limiter.Allow(sid, eventUpdateLocation, co.cfg.LocationPolicy) {
		// Position floods are dropped without feedback; the next allowed
		// update carries the fresh position anyway.
		co.logger.Debug("location update dropped", zap.String("sid", sid))
		return
	}

	pos, nickname, err := parseLocationPayload(raw)
	if err != nil {
		co.sendError(sid, err)
		return
	}

	current, err := co.presence.Upsert(sid, pos, nickname)
	if err != nil {
		co.sendError(sid, errInvalidLocation)
		return
	}

	co.emitter.Broadcast(eventUpdateUsers, presencePayload(co.presence.Snapshot()))

	for _, m := range co.detector.Detect(sid) {
		co.emitter.ToClient(sid, eventEncounter, encounterNotice(m.Nickname, m.Distance))
		co.emitter.ToClient(m.SID, eventEncounter, encounterNotice(current.Nickname, m.Distance))

		rec := encounter.Record{
			User1SID:      sid,
			User1Nickname: current.Nickname,
			User2SID:      m.SID,
			User2Nickname: m.Nickname,
			Distance:      m.Distance,
			Latitude:      current.Position.Lat,
			Longitude:     current.Position.Lng,
		}
		co.queue.Enqueue("encounter_save", func(ctx context.Context) error {
			return co.encounters.Save(rec)
		})
	}
}

// HandleChatMessage validates, sanitizes and broadcasts one message, then
// hands persistence to the task queue.
func (co *Coordinator) HandleChatMessage(sid string, raw interface{}) {
	if !co.limiter.Allow(sid, eventChatMessage, co.cfg.ChatPolicy) {
		co.sendError(sid, chat.ErrRateLimited)
		return
	}

	msg, ok := parseChatPayload(raw)
	if !ok {
		co.sendError(sid, chat.ErrInvalidFormat)
		return
	}
	if err := chat.Validate(msg); err != nil {
		co.sendError(sid, err)
		return
	}
	clean := chat.Sanitize(msg)

	co.emitter.Broadcast(eventChatMessage, map[string]interface{}{
		"user":      clean.User,
		"text":      clean.Text,
		"id":        clean.ID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})

	co.queue.Enqueue("chat_save", func(ctx context.Context) error {
		_, err := co.chatStore.SaveMessage(clean.User, clean.Text)
		return err
	})
}

// HandleNearbyQuery answers an on-demand proximity lookup without touching
// the encounter ledger.
func (co *Coordinator) HandleNearbyQuery(sid string, raw interface{}) {
	if !co.allowGeneral(sid, eventGetNearbyUsers) {
		return
	}
	radius := co.cfg.NearbyRadius
	if v, ok := numFromAny(mapFromAny(raw)["radius"]); ok && v > 0 {
		radius = v
	}
	users := co.detector.Nearby(sid, radius)
	if users == nil {
		// clients expect an array, not null
		users = []encounter.NearbyUser{}
	}
	co.emitter.ToClient(sid, eventNearbyUsers, users)
}

func (co *Coordinator) HandleEncounterHistory(sid string, raw interface{}) {
	if !co.allowGeneral(sid, eventGetEncounterHistory) {
		return
	}
	limit := 50
	if v, ok := numFromAny(mapFromAny(raw)["limit"]); ok && v > 0 {
		limit = int(v)
	}
	items, err := co.encounters.History(sid, limit)
	if err != nil {
		co.logger.Warn("encounter history query failed", zap.String("sid", sid), zap.Error(err))
		co.sendError(sid, errQueryFailed)
		return
	}
	co.emitter.ToClient(sid, eventEncounterHistory, map[string]interface{}{"encounters": items})
}

func (co *Coordinator) HandleEncounterStats(sid string) {
	if !co.allowGeneral(sid, eventGetEncounterStats) {
		return
	}
	stats, err := co.encounters.GetStats(sid)
	if err != nil {
		co.logger.Warn("encounter stats query failed", zap.String("sid", sid), zap.Error(err))
		co.sendError(sid, errQueryFailed)
		return
	}
	co.emitter.ToClient(sid, eventEncounterStats, stats)
}

func (co *Coordinator) HandleHeatmap(sid string) {
	if !co.allowGeneral(sid, eventGetHeatmapData) {
		return
	}
	points, err := co.encounters.Heatmap(sid)
	if err != nil {
		co.logger.Warn("heatmap query failed", zap.String("sid", sid), zap.Error(err))
		co.sendError(sid, errQueryFailed)
		return
	}
	co.emitter.ToClient(sid, eventHeatmapData, map[string]interface{}{"points": points})
}

func (co *Coordinator) HandleDailyStats(sid string, raw interface{}) {
	if !co.allowGeneral(sid, eventGetDailyStats) {
		return
	}
	days := 30
	if v, ok := numFromAny(mapFromAny(raw)["days"]); ok && v > 0 {
		days = int(v)
	}
	counts, err := co.encounters.DailyStats(sid, days)
	if err != nil {
		co.logger.Warn("daily stats query failed", zap.String("sid", sid), zap.Error(err))
		co.sendError(sid, errQueryFailed)
		return
	}
	co.emitter.ToClient(sid, eventDailyStats, map[string]interface{}{"daily": counts})
}

// HandleDisconnect tears down per-connection state. Safe to call more than
// once for the same sid.
func (co *Coordinator) HandleDisconnect(sid string) {
	co.limiter.Reset(sid)
	co.presence.Remove(sid)
	co.emitter.Broadcast(eventUpdateUsers, presencePayload(co.presence.Snapshot()))
}

// EvictStale drops connections whose last update is older than maxAge and
// rebroadcasts the roster when anything was removed. Runs on a cron
// interval.
func (co *Coordinator) EvictStale(maxAge time.Duration) int {
	evicted := co.presence.EvictStale(maxAge)
	if evicted > 0 {
		co.emitter.Broadcast(eventUpdateUsers, presencePayload(co.presence.Snapshot()))
	}
	return evicted
}

func (co *Coordinator) allowGeneral(sid, event string) bool {
	if co.limiter.Allow(sid, event, co.cfg.GeneralPolicy) {
		return true
	}
	co.sendError(sid, errTooManyRequests)
	return false
}

func (co *Coordinator) sendError(sid string, err error) {
	co.emitter.ToClient(sid, eventError, map[string]interface{}{"message": err.Error()})
}

// guard wraps a socket handler so a panic takes down neither the
// connection nor the server.
func (co *Coordinator) guard(sid, event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			co.logger.Error("handler panicked",
				zap.String("sid", sid),
				zap.String("event", event),
				zap.Any("panic", r),
			)
			co.sendError(sid, errors.New("サーバーエラーが発生しました"))
		}
	}()
	fn()
}

func presencePayload(snapshot map[string]presence.UserPresence) map[string]interface{} {
	out := make(map[string]interface{}, len(snapshot))
	for sid, p := range snapshot {
		out[sid] = map[string]interface{}{
			"lat":        p.Position.Lat,
			"lng":        p.Position.Lng,
			"nickname":   p.Nickname,
			"lastUpdate": p.LastUpdated.UTC().Format(time.RFC3339),
		}
	}
	return out
}

func encounterNotice(nickname string, distance float64) map[string]interface{} {
	return map[string]interface{}{
		"user":      nickname,
		"distance":  math.Round(distance*10) / 10,
		"message":   nickname + "さんとすれ違いました！（" + geo.FormatDistance(distance) + "）",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
}

func parseLocationPayload(raw interface{}) (geo.Position, string, error) {
	m := mapFromAny(raw)
	lat, latOK := numFromAny(m["lat"])
	lng, lngOK := numFromAny(m["lng"])
	if !latOK || !lngOK {
		return geo.Position{}, "", errInvalidLocation
	}
	return geo.Position{Lat: lat, Lng: lng}, strFromAny(m["nickname"]), nil
}

func parseChatPayload(raw interface{}) (*chat.IncomingMessage, bool) {
	m := mapFromAny(raw)
	if len(m) == 0 {
		return nil, false
	}
	return &chat.IncomingMessage{
		User: strFromAny(m["user"]),
		Text: strFromAny(m["text"]),
		ID:   strFromAny(m["id"]),
	}, true
}

func mapFromAny(v interface{}) map[string]interface{} {
	switch typed := v.(type) {
	case nil:
		return map[string]interface{}{}
	case map[string]interface{}:
		return typed
	default:
		data, err := json.Marshal(typed)
		if err != nil {
			return map[string]interface{}{}
		}
		out := map[string]interface{}{}
		if err := json.Unmarshal(data, &out); err != nil {
			return map[string]interface{}{}
		}
		return out
	}
}

func strFromAny(v interface{}) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func numFromAny(v interface{}) (float64, bool) {
	switch typed := v.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case json.Number:
		f, err := typed.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
