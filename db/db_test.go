package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/quotechat/backend/db"
	"github.com/quotechat/backend/testutil"
)

func TestKVRoundTrip(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()

	if v, err := db.GetKV(ctx, conn, "missing"); err != nil || v != "" {
		t.Fatalf("missing key: got (%q, %v), want empty", v, err)
	}

	if err := db.SetKV(ctx, conn, "autosend:last_tick", "2026-01-01T00:00:00Z"); err != nil {
		t.Fatalf("SetKV: %v", err)
	}
	v, err := db.GetKV(ctx, conn, "autosend:last_tick")
	if err != nil || v != "2026-01-01T00:00:00Z" {
		t.Fatalf("GetKV: got (%q, %v)", v, err)
	}

	// Upsert replaces the prior value.
	if err := db.SetKV(ctx, conn, "autosend:last_tick", "2026-02-01T00:00:00Z"); err != nil {
		t.Fatalf("SetKV update: %v", err)
	}
	v, _ = db.GetKV(ctx, conn, "autosend:last_tick")
	if v != "2026-02-01T00:00:00Z" {
		t.Fatalf("update not applied: %q", v)
	}
}

func TestOAuthTokenRoundTrip(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()

	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	if err := db.UpsertOAuthToken(ctx, conn, "google", "access-1", "refresh-1", expiry, "openid email"); err != nil {
		t.Fatalf("UpsertOAuthToken: %v", err)
	}

	access, refresh, exp, scope, err := db.GetOAuthToken(ctx, conn, "google")
	if err != nil {
		t.Fatalf("GetOAuthToken: %v", err)
	}
	if access != "access-1" || refresh != "refresh-1" || scope != "openid email" {
		t.Fatalf("unexpected token row: %q %q %q", access, refresh, scope)
	}
	if !exp.Equal(expiry) {
		t.Errorf("expiry %v, want %v", exp, expiry)
	}

	// Upsert overwrites in place.
	if err := db.UpsertOAuthToken(ctx, conn, "google", "access-2", "refresh-2", expiry, "openid"); err != nil {
		t.Fatalf("UpsertOAuthToken update: %v", err)
	}
	access, refresh, _, _, err = db.GetOAuthToken(ctx, conn, "google")
	if err != nil || access != "access-2" || refresh != "refresh-2" {
		t.Fatalf("update not applied: %q %q %v", access, refresh, err)
	}
}

func TestGetOAuthTokenMissingProvider(t *testing.T) {
	conn := testutil.SetupTestDB(t)

	access, refresh, exp, scope, err := db.GetOAuthToken(context.Background(), conn, "nope")
	if err != nil {
		t.Fatalf("missing provider should not error: %v", err)
	}
	if access != "" || refresh != "" || scope != "" || !exp.IsZero() {
		t.Fatalf("missing provider should return zero values")
	}
}
