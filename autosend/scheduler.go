// Package autosend runs the global broadcast scheduler. While enabled it
// posts a prefixed quote into one randomly chosen chat on a fixed interval
// and notifies every connected client about the delivery.
package autosend

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/quotechat/backend/realtime"
	"github.com/quotechat/backend/store"
	"github.com/quotechat/backend/telemetry"
)

// Store is the slice of the chat repository the scheduler needs.
type Store interface {
	Random(ctx context.Context) (*store.Chat, error)
	AppendMessage(ctx context.Context, chatID, sender, content string) (*store.Message, error)
}

// Quotes supplies broadcast content.
type Quotes interface {
	Random(ctx context.Context) string
}

// Broadcaster delivers events to clients.
type Broadcaster interface {
	EmitToRoom(room, event string, data any)
	EmitToAll(event string, data any)
}

// Heartbeat records when the scheduler last delivered, for operators poking
// at the database. May be nil.
type Heartbeat func(ctx context.Context, at time.Time)

// Scheduler is the togglable broadcast loop. There is exactly one per
// process; every client toggles the same instance. The cancel func is
// non-nil exactly while the loop runs.
type Scheduler struct {
	store  Store
	quotes Quotes
	hub    Broadcaster
	beat   Heartbeat

	sender string
	prefix string
	every  time.Duration

	base context.Context

	mu      sync.Mutex
	enabled bool
	cancel  context.CancelFunc
}

// New builds a disabled Scheduler. The loop, once enabled, runs until
// disabled again or until base is cancelled at shutdown.
func New(base context.Context, st Store, quotes Quotes, hub Broadcaster, sender, prefix string, every time.Duration, beat Heartbeat) *Scheduler {
	return &Scheduler{
		base:   base,
		store:  st,
		quotes: quotes,
		hub:    hub,
		beat:   beat,
		sender: sender,
		prefix: prefix,
		every:  every,
	}
}

// Enabled reports whether the loop is currently running.
func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetEnabled turns the loop on or off and reports whether the state actually
// changed. Setting the current state again is a no-op so repeated toggles
// from reconnecting clients never stack a second loop.
func (s *Scheduler) SetEnabled(enabled bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if enabled == s.enabled {
		return false
	}
	if enabled {
		ctx, cancel := context.WithCancel(s.base)
		s.cancel = cancel
		go s.run(ctx)
		slog.Info("auto-send enabled", "interval", s.every)
	} else {
		s.cancel()
		s.cancel = nil
		slog.Info("auto-send disabled")
	}
	s.enabled = enabled
	telemetry.UpdateAutoSendGauge(enabled)
	return true
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick delivers one broadcast. Any failure skips this tick and leaves the
// loop running; a tick where nothing was persisted emits nothing.
func (s *Scheduler) tick(ctx context.Context) {
	telemetry.AutoSendTicks.Inc()

	chat, err := s.store.Random(ctx)
	if err != nil {
		telemetry.AutoSendSkips.Inc()
		if errors.Is(err, store.ErrNotFound) {
			slog.Debug("auto-send tick skipped, no chats")
		} else {
			slog.Error("auto-send chat selection failed", "err", err)
		}
		return
	}

	content := s.prefix + s.quotes.Random(ctx)
	msg, err := s.store.AppendMessage(ctx, chat.ID, s.sender, content)
	if err != nil {
		telemetry.AutoSendSkips.Inc()
		slog.Error("auto-send persist failed", "chat_id", chat.ID, "err", err)
		return
	}
	telemetry.MessagesSent.Inc()

	s.hub.EmitToRoom(chat.ID, realtime.EventNewMessage, realtime.NewMessagePayload{ChatID: chat.ID, Message: *msg})
	s.hub.EmitToAll(realtime.EventNotification, realtime.NotificationPayload{
		FirstName: chat.FirstName,
		LastName:  chat.LastName,
	})
	slog.Debug("auto-send delivered", "chat_id", chat.ID)

	if s.beat != nil {
		s.beat(ctx, time.Now())
	}
}
