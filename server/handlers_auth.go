package server

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	dbpkg "github.com/quotechat/backend/db"
)

// googleEndpoint avoids pulling the whole Google API surface in for two URLs.
var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// googleOAuthConfig builds the oauth2 config from environment-loaded creds.
func (h *Handlers) googleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.deps.Cfg.GoogleClientID,
		ClientSecret: h.deps.Cfg.GoogleClientSecret,
		RedirectURL:  h.deps.Cfg.GoogleRedirectURI,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     googleEndpoint,
	}
}

// HandleGoogleOAuthStart initiates the Google sign-in flow.
func (h *Handlers) HandleGoogleOAuthStart(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Cfg.ValidateOAuthReady(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		writeError(w, http.StatusInternalServerError, "state gen error")
		return
	}
	st := hex.EncodeToString(b)
	h.addOAuthState(st, time.Now().Add(10*time.Minute))
	authURL := h.googleOAuthConfig().AuthCodeURL(st, oauth2.AccessTypeOffline)
	http.Redirect(w, r, authURL, http.StatusFound)
}

type googleUserinfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// HandleGoogleOAuthCallback finishes the sign-in flow: validates state,
// exchanges the code, records the user, and stores tokens encrypted.
func (h *Handlers) HandleGoogleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	st := r.URL.Query().Get("state")
	if code == "" || st == "" {
		writeError(w, http.StatusBadRequest, "missing code/state")
		return
	}
	if !h.consumeOAuthState(st) {
		writeError(w, http.StatusBadRequest, "invalid state")
		return
	}
	ctx := r.Context()
	oc := h.googleOAuthConfig()
	tok, err := oc.Exchange(ctx, code)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	info, err := fetchGoogleUserinfo(oc, tok, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	_, err = h.deps.DB.ExecContext(ctx, `INSERT INTO users (id, provider, provider_id, display_name, email, created_at)
		VALUES ($1,'google',$2,$3,$4,NOW())
		ON CONFLICT(provider_id) DO UPDATE SET display_name=EXCLUDED.display_name, email=EXCLUDED.email`,
		uuid.New().String(), info.ID, info.Name, info.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := dbpkg.UpsertOAuthToken(ctx, h.deps.DB, "google", tok.AccessToken, tok.RefreshToken, tok.Expiry, "openid email profile"); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"email":  info.Email,
		"name":   info.Name,
	})
}

func fetchGoogleUserinfo(oc *oauth2.Config, tok *oauth2.Token, r *http.Request) (*googleUserinfo, error) {
	client := oc.Client(r.Context(), tok)
	resp, err := client.Get(googleUserinfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, err
	}
	var info googleUserinfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
