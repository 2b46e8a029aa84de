package gateway

import (
	socketio "github.com/zishang520/socket.io/v2/socket"
)

// Bind attaches the coordinator and registers the root namespace handlers.
// Must be called before Run.
func (h *Hub) Bind(co *Coordinator) {
	h.co = co
	h.registerNamespaces()
}

func (h *Hub) registerNamespaces() {
	ns := h.sio.Of(namespaceRoot, nil)
	_ = ns.On("connection", func(args ...any) {
		client, ok := args[0].(*socketio.Socket)
		if !ok {
			return
		}
		sid := string(client.Id())

		h.register <- clientMeta{sid: sid, socket: client}
		h.co.guard(sid, "connection", func() {
			h.co.HandleConnect(sid)
		})

		_ = client.On(eventUpdateLocation, func(eventArgs ...any) {
			h.co.guard(sid, eventUpdateLocation, func() {
				h.co.HandleLocationUpdate(sid, firstArg(eventArgs))
			})
		})
		_ = client.On(eventChatMessage, func(eventArgs ...any) {
			h.co.guard(sid, eventChatMessage, func() {
				h.co.HandleChatMessage(sid, firstArg(eventArgs))
			})
		})
		_ = client.On(eventGetNearbyUsers, func(eventArgs ...any) {
			h.co.guard(sid, eventGetNearbyUsers, func() {
				h.co.HandleNearbyQuery(sid, firstArg(eventArgs))
			})
		})
		_ = client.On(eventGetEncounterHistory, func(eventArgs ...any) {
			h.co.guard(sid, eventGetEncounterHistory, func() {
				h.co.HandleEncounterHistory(sid, firstArg(eventArgs))
			})
		})
		_ = client.On(eventGetEncounterStats, func(_ ...any) {
			h.co.guard(sid, eventGetEncounterStats, func() {
				h.co.HandleEncounterStats(sid)
			})
		})
		_ = client.On(eventGetHeatmapData, func(_ ...any) {
			h.co.guard(sid, eventGetHeatmapData, func() {
				h.co.HandleHeatmap(sid)
			})
		})
		_ = client.On(eventGetDailyStats, func(eventArgs ...any) {
			h.co.guard(sid, eventGetDailyStats, func() {
				h.co.HandleDailyStats(sid, firstArg(eventArgs))
			})
		})

		_ = client.On("disconnect", func(_ ...any) {
			h.co.guard(sid, "disconnect", func() {
				h.co.HandleDisconnect(sid)
			})
			h.unregister <- clientMeta{sid: sid}
		})
	})
}

func firstArg(args []any) interface{} {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}
