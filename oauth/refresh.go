// Package oauth keeps persisted provider tokens fresh. A background
// goroutine wakes on a jittered interval, checks the stored expiry, and
// refreshes the token when it falls inside the renewal window. Tokens are
// read and written through the db helpers so they stay encrypted at rest.
package oauth

import (
	"context"
	"database/sql"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/oauth2"

	"github.com/quotechat/backend/db"
)

// RefreshFunc performs the provider-specific refresh and returns the new
// access token, refresh token, expiry, and scope.
type RefreshFunc func(ctx context.Context, refreshToken string) (string, string, time.Time, string, error)

// GoogleRefreshFunc builds a RefreshFunc on top of an oauth2 config's token
// source. Google does not rotate refresh tokens on renewal, so the stored
// one is kept when the response omits it.
func GoogleRefreshFunc(cfg *oauth2.Config) RefreshFunc {
	return func(ctx context.Context, refreshToken string) (string, string, time.Time, string, error) {
		src := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
		tok, err := src.Token()
		if err != nil {
			return "", "", time.Time{}, "", err
		}
		return tok.AccessToken, tok.RefreshToken, tok.Expiry, "", nil
	}
}

// StartRefresher launches the refresh loop for one provider row. interval is
// how often to wake and check, window is the remaining-lifetime threshold
// that triggers a refresh. The loop exits when ctx is cancelled.
func StartRefresher(ctx context.Context, dbx *sql.DB, provider string, interval, window time.Duration, fn RefreshFunc) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	// Randomize the initial delay to spread load across instances.
	initialJitter := time.Duration(rand.Int63n(int64(interval / 2)))
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(initialJitter):
		}
		for {
			// Per-iteration jitter of up to 20% either way.
			jitterRange := int64(interval / 5)
			jitter := time.Duration(rand.Int63n(jitterRange*2) - jitterRange)
			nextSleep := interval + jitter
			if nextSleep < interval/2 {
				nextSleep = interval / 2
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(nextSleep):
			}
			refreshOnce(ctx, dbx, provider, window, fn)
		}
	}()
}

func refreshOnce(ctx context.Context, dbx *sql.DB, provider string, window time.Duration, fn RefreshFunc) {
	_, rt, exp, scope, err := db.GetOAuthToken(ctx, dbx, provider)
	if err != nil || rt == "" {
		return
	}
	if time.Until(exp) > window {
		return
	}
	ctx2, cancel := context.WithTimeout(ctx, 15*time.Second)
	newAT, newRT, newExp, newScope, err := fn(ctx2, rt)
	cancel()
	if err != nil {
		slog.Warn("token refresh failed", slog.String("provider", provider), slog.Any("err", err))
		return
	}
	if newRT == "" {
		newRT = rt
	}
	if newScope == "" {
		newScope = scope
	}
	if err := db.UpsertOAuthToken(ctx, dbx, provider, newAT, newRT, newExp, newScope); err != nil {
		slog.Warn("token persist failed", slog.String("provider", provider), slog.Any("err", err))
		return
	}
	slog.Info("token refreshed", slog.String("provider", provider))
}
