package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Lucasrsv1/spotify-sm-module/internal/auth"
	"github.com/Lucasrsv1/spotify-sm-module/internal/command"
)

const stateCookieName = "oauth_state"

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	auth    *auth.Authenticator
	service *command.Service
	logger  *log.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authenticator *auth.Authenticator, service *command.Service, logger *log.Logger) *Handlers {
	return &Handlers{
		auth:    authenticator,
		service: service,
		logger:  logger,
	}
}

// Login initiates the Spotify OAuth flow (GET /api/v1/login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300, // 5 minutes
	})

	http.Redirect(w, r, h.auth.AuthURL(state), http.StatusTemporaryRedirect)
}

// Callback handles the OAuth callback from Spotify
// (GET /api/v1/login/callback).
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil {
		http.Error(w, "Missing state cookie", http.StatusBadRequest)
		return
	}

	state := r.URL.Query().Get("state")
	if state != stateCookie.Value {
		http.Error(w, "State mismatch", http.StatusBadRequest)
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		http.Error(w, fmt.Sprintf("Spotify auth error: %s", errMsg), http.StatusBadRequest)
		return
	}

	client, err := h.auth.Exchange(r.Context(), state, r)
	if err != nil {
		h.logger.Error("token exchange failed", "err", err)
		http.Error(w, "Failed to get token", http.StatusInternalServerError)
		return
	}

	if err := h.service.Login(r.Context(), client); err != nil {
		h.logger.Error("login failed", "err", err)
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "Done. You can now close this window.")
}

// Logout drops the session and the cached token (POST /api/v1/logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout()
	if err := h.auth.Forget(); err != nil {
		h.logger.Warn("failed to remove cached token", "err", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusResponse struct {
	Authenticated bool   `json:"authenticated"`
	User          string `json:"user,omitempty"`
}

// Status reports whether a user is logged in (GET /api/v1/status).
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{}
	if name, ok := h.service.CurrentUser(); ok {
		resp.Authenticated = true
		resp.User = name
	}
	respondJSON(w, http.StatusOK, resp)
}

// Play handles a play voice command (POST /api/v1/play). The response body
// is either a ranked disambiguation list, when more than one candidate
// survived, or a plain boolean reporting whether playback was dispatched.
func (h *Handlers) Play(w http.ResponseWriter, r *http.Request) {
	var cmd command.PlayCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp := h.service.HandlePlay(r.Context(), cmd)
	if len(resp.Options) > 0 {
		respondJSON(w, http.StatusOK, resp.Options)
		return
	}
	respondJSON(w, http.StatusOK, resp.Played)
}

// Playlists lists the user's playlists with the active selection and scan
// order (GET /api/v1/playlists).
func (h *Handlers) Playlists(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Playlists())
}

type activeRequest struct {
	IDs []string `json:"ids"`
}

type orderResponse struct {
	Order []string `json:"order"`
}

// SetActivePlaylists replaces the searchable playlist selection
// (PUT /api/v1/playlists/active).
func (h *Handlers) SetActivePlaylists(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	order := h.service.SetActivePlaylists(req.IDs)
	respondJSON(w, http.StatusOK, orderResponse{Order: order})
}

type orderRequest struct {
	Order []string `json:"order"`
}

// SetPlaylistOrder replaces the scan priority order
// (PUT /api/v1/playlists/order).
func (h *Handlers) SetPlaylistOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	order := h.service.SetPlaylistOrder(req.Order)
	respondJSON(w, http.StatusOK, orderResponse{Order: order})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
