package autosend_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/quotechat/backend/autosend"
	"github.com/quotechat/backend/realtime"
	"github.com/quotechat/backend/store"
)

type fakeStore struct {
	mu       sync.Mutex
	chat     *store.Chat
	appended []store.Message
}

func (f *fakeStore) Random(ctx context.Context) (*store.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chat == nil {
		return nil, store.ErrNotFound
	}
	c := *f.chat
	return &c, nil
}

func (f *fakeStore) AppendMessage(ctx context.Context, chatID, sender, content string) (*store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := store.Message{ID: "m", Sender: sender, Content: content, Timestamp: time.Now()}
	f.appended = append(f.appended, m)
	return &m, nil
}

func (f *fakeStore) messages() []store.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.Message(nil), f.appended...)
}

type fakeQuotes struct{}

func (fakeQuotes) Random(ctx context.Context) string { return `"tick" - Clock` }

type emitted struct {
	room, event string
	data        any
}

type fakeHub struct {
	mu     sync.Mutex
	events []emitted
	notify chan struct{}
}

func newFakeHub() *fakeHub { return &fakeHub{notify: make(chan struct{}, 64)} }

func (f *fakeHub) record(e emitted) {
	f.mu.Lock()
	f.events = append(f.events, e)
	f.mu.Unlock()
	f.notify <- struct{}{}
}

func (f *fakeHub) EmitToRoom(room, event string, data any) { f.record(emitted{room, event, data}) }
func (f *fakeHub) EmitToAll(event string, data any)        { f.record(emitted{"", event, data}) }

func (f *fakeHub) emittedEvents() []emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]emitted(nil), f.events...)
}

func waitEmits(t *testing.T, h *fakeHub, n int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-h.notify:
		case <-deadline:
			t.Fatalf("timed out waiting for emit %d of %d", i+1, n)
		}
	}
}

func newScheduler(t *testing.T, st *fakeStore, hub *fakeHub, every time.Duration) *autosend.Scheduler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return autosend.New(ctx, st, fakeQuotes{}, hub, "System Bot", "(Auto-send) ", every, nil)
}

func TestSetEnabledReportsTransitions(t *testing.T) {
	s := newScheduler(t, &fakeStore{}, newFakeHub(), time.Hour)

	if s.Enabled() {
		t.Fatal("scheduler must start disabled")
	}
	if !s.SetEnabled(true) {
		t.Error("enable from disabled should report a change")
	}
	if s.SetEnabled(true) {
		t.Error("enable while enabled should be a no-op")
	}
	if !s.Enabled() {
		t.Error("scheduler should be enabled")
	}
	if !s.SetEnabled(false) {
		t.Error("disable from enabled should report a change")
	}
	if s.SetEnabled(false) {
		t.Error("disable while disabled should be a no-op")
	}
}

func TestTickDeliversToRoomAndNotifiesAll(t *testing.T) {
	st := &fakeStore{chat: &store.Chat{ID: "chat-1", FirstName: "Ada", LastName: "Lovelace"}}
	hub := newFakeHub()
	s := newScheduler(t, st, hub, 10*time.Millisecond)

	s.SetEnabled(true)
	defer s.SetEnabled(false)
	// One tick produces a room emit and a global notification.
	waitEmits(t, hub, 2)

	events := hub.emittedEvents()
	if events[0].event != realtime.EventNewMessage || events[0].room != "chat-1" {
		t.Errorf("first emit: %+v", events[0])
	}
	if events[1].event != realtime.EventNotification || events[1].room != "" {
		t.Errorf("second emit: %+v", events[1])
	}
	note, ok := events[1].data.(realtime.NotificationPayload)
	if !ok || note.FirstName != "Ada" || note.LastName != "Lovelace" {
		t.Errorf("notification payload: %+v", events[1].data)
	}

	msgs := st.messages()
	if len(msgs) == 0 {
		t.Fatal("nothing persisted")
	}
	if msgs[0].Sender != "System Bot" {
		t.Errorf("sender %q, want System Bot", msgs[0].Sender)
	}
	if !strings.HasPrefix(msgs[0].Content, "(Auto-send) ") {
		t.Errorf("content %q lacks the auto-send prefix", msgs[0].Content)
	}
}

func TestEmptyStoreSkipsQuietly(t *testing.T) {
	st := &fakeStore{}
	hub := newFakeHub()
	s := newScheduler(t, st, hub, 5*time.Millisecond)

	s.SetEnabled(true)
	time.Sleep(40 * time.Millisecond)
	if !s.Enabled() {
		t.Fatal("skipped ticks must not disable the loop")
	}
	s.SetEnabled(false)

	if got := len(hub.emittedEvents()); got != 0 {
		t.Fatalf("emitted %d events with no chats", got)
	}
	if got := len(st.messages()); got != 0 {
		t.Fatalf("persisted %d messages with no chats", got)
	}
}

func TestDisableStopsTicking(t *testing.T) {
	st := &fakeStore{chat: &store.Chat{ID: "chat-1", FirstName: "A", LastName: "B"}}
	hub := newFakeHub()
	s := newScheduler(t, st, hub, 10*time.Millisecond)

	s.SetEnabled(true)
	waitEmits(t, hub, 2)
	s.SetEnabled(false)

	// Drain whatever an in-flight tick produced, then verify silence.
	time.Sleep(50 * time.Millisecond)
	before := len(hub.emittedEvents())
	time.Sleep(50 * time.Millisecond)
	after := len(hub.emittedEvents())
	if after != before {
		t.Fatalf("emits continued after disable: %d -> %d", before, after)
	}
}

func TestShutdownCancelStopsLoop(t *testing.T) {
	st := &fakeStore{chat: &store.Chat{ID: "chat-1", FirstName: "A", LastName: "B"}}
	hub := newFakeHub()
	ctx, cancel := context.WithCancel(context.Background())
	s := autosend.New(ctx, st, fakeQuotes{}, hub, "System Bot", "(Auto-send) ", 10*time.Millisecond, nil)

	s.SetEnabled(true)
	waitEmits(t, hub, 2)
	cancel()

	time.Sleep(50 * time.Millisecond)
	before := len(hub.emittedEvents())
	time.Sleep(50 * time.Millisecond)
	if after := len(hub.emittedEvents()); after != before {
		t.Fatalf("emits continued after shutdown: %d -> %d", before, after)
	}
}

func TestHeartbeatRecordsDelivery(t *testing.T) {
	st := &fakeStore{chat: &store.Chat{ID: "chat-1", FirstName: "A", LastName: "B"}}
	hub := newFakeHub()
	beats := make(chan time.Time, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := autosend.New(ctx, st, fakeQuotes{}, hub, "System Bot", "(Auto-send) ", 10*time.Millisecond,
		func(ctx context.Context, at time.Time) { beats <- at })

	s.SetEnabled(true)
	defer s.SetEnabled(false)
	select {
	case <-beats:
	case <-time.After(2 * time.Second):
		t.Fatal("no heartbeat recorded")
	}
}
