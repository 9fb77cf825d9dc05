// Package autoreply persists user messages and schedules the delayed bot
// reply that answers each one.
package autoreply

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/quotechat/backend/realtime"
	"github.com/quotechat/backend/store"
	"github.com/quotechat/backend/telemetry"
)

// Store is the slice of the chat repository the responder needs.
type Store interface {
	AppendMessage(ctx context.Context, chatID, sender, content string) (*store.Message, error)
}

// Quotes supplies reply content. Implementations never fail; they fall back
// to a canned line instead.
type Quotes interface {
	Random(ctx context.Context) string
}

// Broadcaster delivers events to subscribed clients.
type Broadcaster interface {
	EmitToRoom(room, event string, data any)
}

// Responder handles an incoming user message: persist it, broadcast it, then
// answer it with a quote after a fixed delay. Each message gets its own
// timer, so replies to rapid-fire messages overlap and each one lands delay
// seconds after its trigger.
type Responder struct {
	store  Store
	quotes Quotes
	hub    Broadcaster
	sender string
	delay  time.Duration
}

// New builds a Responder that replies as sender after the given delay.
func New(st Store, quotes Quotes, hub Broadcaster, sender string, delay time.Duration) *Responder {
	return &Responder{store: st, quotes: quotes, hub: hub, sender: sender, delay: delay}
}

// HandleUserMessage persists the user's message and schedules the bot reply.
// The call acknowledges receipt only; nothing is broadcast until the reply
// lands, so a joined client hears silence for the whole delay. Validation and
// not-found errors from the store pass through unchanged; when they do,
// nothing was persisted and no reply is scheduled.
func (r *Responder) HandleUserMessage(ctx context.Context, chatID, sender, content string) (*store.Message, error) {
	msg, err := r.store.AppendMessage(ctx, chatID, sender, content)
	if err != nil {
		return nil, err
	}
	telemetry.MessagesSent.Inc()

	telemetry.AutoRepliesScheduled.Inc()
	time.AfterFunc(r.delay, func() {
		r.reply(chatID)
	})
	return msg, nil
}

// reply runs on its own timer goroutine, detached from the request context.
func (r *Responder) reply(chatID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	content := r.quotes.Random(ctx)
	msg, err := r.store.AppendMessage(ctx, chatID, r.sender, content)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Chat deleted between trigger and fire. Drop quietly.
			telemetry.AutoRepliesDropped.Inc()
			slog.Info("auto-reply dropped, chat gone", "chat_id", chatID)
			return
		}
		telemetry.AutoRepliesDropped.Inc()
		slog.Error("auto-reply persist failed", "chat_id", chatID, "err", err)
		return
	}
	telemetry.AutoRepliesDelivered.Inc()
	telemetry.MessagesSent.Inc()
	r.hub.EmitToRoom(chatID, realtime.EventNewMessage, realtime.NewMessagePayload{ChatID: chatID, Message: *msg})
}
