package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/quotechat/backend/store"
	"github.com/quotechat/backend/testutil"
)

func TestCreateAndFind(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := store.New(conn)
	ctx := context.Background()

	c, err := s.Create(ctx, "Ada", "Lovelace")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.ID == "" {
		t.Fatal("expected generated id")
	}
	if len(c.Messages) != 0 {
		t.Fatalf("new chat should have no messages, got %d", len(c.Messages))
	}

	got, err := s.FindByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.FirstName != "Ada" || got.LastName != "Lovelace" {
		t.Fatalf("unexpected chat: %+v", got)
	}
	if got.Messages == nil {
		t.Fatal("Messages must be non-nil even when empty")
	}
}

func TestCreateRejectsMissingNames(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := store.New(conn)

	for _, tc := range []struct{ first, last string }{
		{"", "Lovelace"},
		{"Ada", ""},
		{"  ", "  "},
	} {
		if _, err := s.Create(context.Background(), tc.first, tc.last); !errors.Is(err, store.ErrMissingName) {
			t.Errorf("Create(%q,%q): got %v, want ErrMissingName", tc.first, tc.last, err)
		}
	}
}

func TestAppendMessageOrderAndTouch(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := store.New(conn)
	ctx := context.Background()

	c, err := s.Create(ctx, "Grace", "Hopper")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	before := c.UpdatedAt

	for _, content := range []string{"first", "second", "third"} {
		if _, err := s.AppendMessage(ctx, c.ID, "User", content); err != nil {
			t.Fatalf("AppendMessage(%q): %v", content, err)
		}
	}

	got, err := s.FindByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(got.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(got.Messages))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got.Messages[i].Content != want {
			t.Errorf("message %d: got %q, want %q", i, got.Messages[i].Content, want)
		}
	}
	if !got.UpdatedAt.After(before) {
		t.Error("append should advance chat updated_at")
	}
}

func TestAppendMessageValidation(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := store.New(conn)
	ctx := context.Background()

	c, err := s.Create(ctx, "Alan", "Turing")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.AppendMessage(ctx, c.ID, "User", "   "); !errors.Is(err, store.ErrEmptyContent) {
		t.Errorf("empty content: got %v, want ErrEmptyContent", err)
	}
	if _, err := s.AppendMessage(ctx, "ffffffff-0000-0000-0000-000000000000", "User", "hi"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown chat: got %v, want ErrNotFound", err)
	}
}

func TestFindAllSortsByRecency(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := store.New(conn)
	ctx := context.Background()

	a, _ := s.Create(ctx, "First", "Chat")
	b, _ := s.Create(ctx, "Second", "Chat")
	if _, err := s.AppendMessage(ctx, a.ID, "User", "bump"); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	chats, err := s.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("got %d chats, want 2", len(chats))
	}
	if chats[0].ID != a.ID || chats[1].ID != b.ID {
		t.Errorf("wrong order: got [%s %s], want [%s %s]", chats[0].ID, chats[1].ID, a.ID, b.ID)
	}
	if len(chats[0].Messages) != 1 {
		t.Errorf("messages not embedded in FindAll: got %d", len(chats[0].Messages))
	}
}

func TestUpdateMetadataAndDelete(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := store.New(conn)
	ctx := context.Background()

	c, err := s.Create(ctx, "Old", "Name")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.AppendMessage(ctx, c.ID, "User", "keep me"); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	updated, err := s.UpdateMetadata(ctx, c.ID, "New", "Name")
	if err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	if updated.FirstName != "New" {
		t.Errorf("got first name %q, want New", updated.FirstName)
	}
	if len(updated.Messages) != 1 {
		t.Error("rename must not touch messages")
	}

	if _, err := s.UpdateMetadata(ctx, "ffffffff-0000-0000-0000-000000000000", "A", "B"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("rename unknown chat: got %v, want ErrNotFound", err)
	}

	if err := s.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, c.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM messages WHERE chat_id=$1`, c.ID).Scan(&count); err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if count != 0 {
		t.Errorf("messages survived chat delete: %d", count)
	}
}

func TestUpdateMessageContent(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := store.New(conn)
	ctx := context.Background()

	c, _ := s.Create(ctx, "Edit", "Me")
	m, err := s.AppendMessage(ctx, c.ID, "User", "typo")
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	got, err := s.UpdateMessageContent(ctx, c.ID, m.ID, "fixed")
	if err != nil {
		t.Fatalf("UpdateMessageContent: %v", err)
	}
	if got.Messages[0].Content != "fixed" {
		t.Errorf("got %q, want fixed", got.Messages[0].Content)
	}
	if got.Messages[0].Sender != "User" || got.Messages[0].ID != m.ID {
		t.Error("edit must only change content")
	}

	if _, err := s.UpdateMessageContent(ctx, c.ID, m.ID, ""); !errors.Is(err, store.ErrEmptyContent) {
		t.Errorf("empty edit: got %v, want ErrEmptyContent", err)
	}
	if _, err := s.UpdateMessageContent(ctx, c.ID, "ffffffff-0000-0000-0000-000000000000", "x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown message: got %v, want ErrNotFound", err)
	}
}

func TestRandom(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := store.New(conn)
	ctx := context.Background()

	if _, err := s.Random(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Random on empty table: got %v, want ErrNotFound", err)
	}

	ids := map[string]bool{}
	for i := 0; i < 3; i++ {
		c, err := s.Create(ctx, "Chat", "Partner")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids[c.ID] = true
	}
	c, err := s.Random(ctx)
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	if !ids[c.ID] {
		t.Errorf("Random returned unknown chat %s", c.ID)
	}
}
