package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quotechat/backend/realtime"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the CORS layer for the REST surface; the
	// browser clients we serve connect from the configured frontend.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessagePayload is the inbound shape of a new_message event.
type wsMessagePayload struct {
	ChatID  string `json:"chatId"`
	Message string `json:"message"`
	Sender  string `json:"sender"`
}

// HandleWebSocket upgrades the connection and serves chat events until the
// client goes away.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", slog.Any("err", err))
		return
	}
	realtime.ServeClient(h.deps.Hub, ws, h.handleClientEvent)
}

// handleClientEvent dispatches one inbound event from a connected client.
// Runs on the client's read pump; anything slow is pushed onto a goroutine
// or a timer so the pump keeps draining.
func (h *Handlers) handleClientEvent(c *realtime.Client, ev realtime.Envelope) {
	switch ev.Event {
	case realtime.EventJoinChat:
		var chatID string
		if err := json.Unmarshal(ev.Data, &chatID); err != nil || chatID == "" {
			slog.Warn("join_chat with bad payload", slog.String("client", c.ID()))
			return
		}
		h.deps.Hub.Join(c, chatID)

	case realtime.EventToggleAutoSend:
		var enabled bool
		if err := json.Unmarshal(ev.Data, &enabled); err != nil {
			slog.Warn("toggle_auto_send with bad payload", slog.String("client", c.ID()))
			return
		}
		// Only a real transition earns a status event, and only the client
		// that toggled gets it.
		if h.deps.Scheduler.SetEnabled(enabled) {
			c.SendEvent(realtime.EventAutoSendStatus, enabled)
		}

	case realtime.EventNewMessage:
		var p wsMessagePayload
		if err := json.Unmarshal(ev.Data, &p); err != nil || p.ChatID == "" {
			slog.Warn("new_message with bad payload", slog.String("client", c.ID()))
			return
		}
		sender := p.Sender
		if sender == "" {
			sender = h.deps.Cfg.UserSender
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(h.ctx), 10*time.Second)
			defer cancel()
			if _, err := h.deps.Responder.HandleUserMessage(ctx, p.ChatID, sender, p.Message); err != nil {
				slog.Warn("websocket message rejected", slog.String("client", c.ID()), slog.Any("err", err))
			}
		}()

	default:
		slog.Debug("unknown event, ignoring", slog.String("event", ev.Event), slog.String("client", c.ID()))
	}
}
