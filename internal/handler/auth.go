package handler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/relive/relive/internal/config"
	"github.com/relive/relive/internal/ctxkeys"
	"github.com/relive/relive/internal/model"
	"github.com/relive/relive/internal/service"
	"github.com/relive/relive/internal/ui"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

const oauthStateCookie = "oauth_state"

type AuthHandler struct {
	authService       *service.AuthService
	googleOAuthConfig *oauth2.Config
	githubOAuthConfig *oauth2.Config
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		googleOAuthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.AppURL + "/auth/google/callback",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		githubOAuthConfig: &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.AppURL + "/auth/github/callback",
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type sessionResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.startSession(w, r, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		slog.Warn("login failed", "error", err, "email", req.Email)
		respondError(w, r, err)
		return
	}

	slog.Info("user logged in", "user_id", user.ID)
	h.startSession(w, r, http.StatusOK, user)
}

// startSession issues a JWT, sets it as the auth cookie and returns it for API clients.
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, status int, user *model.User) {
	token, err := h.authService.GenerateJWT(user)
	if err != nil {
		respondError(w, r, fmt.Errorf("failed to generate JWT: %w", err))
		return
	}

	h.authService.SetJWTCookie(w, token, time.Now().Add(h.authService.JWTExpiry()))
	ui.JSON(w, status, sessionResponse{User: user, Token: token})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearJWTCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.authService.SendPasswordReset(r.Context(), req.Email)
	if err != nil {
		if service.IsValidation(err) {
			respondError(w, r, err)
			return
		}
		// Same answer either way so addresses can't be enumerated
		slog.Warn("password reset request failed", "error", err)
	}

	ui.JSON(w, http.StatusAccepted, map[string]string{
		"message": "If an account exists for that address, a reset link is on its way.",
	})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.ResetPassword(r.Context(), req.Token, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	slog.Info("password reset", "user_id", user.ID)
	h.startSession(w, r, http.StatusOK, user)
}

func (h *AuthHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	h.beginOAuth(w, r, h.googleOAuthConfig)
}

func (h *AuthHandler) GitHubAuth(w http.ResponseWriter, r *http.Request) {
	h.beginOAuth(w, r, h.githubOAuthConfig)
}

// beginOAuth stores a random state in a short-lived cookie and redirects to the provider.
func (h *AuthHandler) beginOAuth(w http.ResponseWriter, r *http.Request, oauthCfg *oauth2.Config) {
	if oauthCfg.ClientID == "" {
		ui.Error(w, http.StatusNotFound, "this sign-in method is not configured")
		return
	}

	state, err := generateOAuthState()
	if err != nil {
		respondError(w, r, err)
		return
	}

	cfg := ctxkeys.Config(r.Context())
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg != nil && cfg.CookieSecure(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})

	http.Redirect(w, r, oauthCfg.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback handles the OAuth callback from Google
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	client, ok := h.exchange(w, r, h.googleOAuthConfig, "google")
	if !ok {
		return
	}

	var userInfo struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	err := fetchJSON(client, "https://www.googleapis.com/oauth2/v2/userinfo", &userInfo)
	if err != nil {
		slog.Error("failed to get google user info", "error", err)
		oauthFailed(w, r)
		return
	}

	h.finishOAuth(w, r, userInfo.Email, userInfo.Name, "google")
}

// GitHubCallback handles the OAuth callback from GitHub
func (h *AuthHandler) GitHubCallback(w http.ResponseWriter, r *http.Request) {
	client, ok := h.exchange(w, r, h.githubOAuthConfig, "github")
	if !ok {
		return
	}

	var userInfo struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Login string `json:"login"`
	}
	err := fetchJSON(client, "https://api.github.com/user", &userInfo)
	if err != nil {
		slog.Error("failed to get github user info", "error", err)
		oauthFailed(w, r)
		return
	}

	// Private addresses are only listed on /user/emails
	if userInfo.Email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		err = fetchJSON(client, "https://api.github.com/user/emails", &emails)
		if err != nil {
			slog.Error("failed to get github user emails", "error", err)
			oauthFailed(w, r)
			return
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				userInfo.Email = e.Email
				break
			}
		}
	}

	name := userInfo.Name
	if name == "" {
		name = userInfo.Login
	}
	h.finishOAuth(w, r, userInfo.Email, name, "github")
}

// exchange validates the state cookie and trades the code for an authenticated client.
func (h *AuthHandler) exchange(w http.ResponseWriter, r *http.Request, oauthCfg *oauth2.Config, provider string) (*http.Client, bool) {
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || cookie.Value != state {
		slog.Warn("oauth state validation failed", "provider", provider, "error", err)
		oauthFailed(w, r)
		return nil, false
	}

	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("oauth callback missing code", "provider", provider)
		oauthFailed(w, r)
		return nil, false
	}

	token, err := oauthCfg.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("oauth token exchange failed", "provider", provider, "error", err)
		oauthFailed(w, r)
		return nil, false
	}

	return oauthCfg.Client(r.Context(), token), true
}

func (h *AuthHandler) finishOAuth(w http.ResponseWriter, r *http.Request, email, name, provider string) {
	if strings.TrimSpace(email) == "" {
		slog.Warn("oauth provider returned no email", "provider", provider)
		oauthFailed(w, r)
		return
	}

	user, err := h.authService.AuthenticateOAuth(r.Context(), email, name, provider)
	if err != nil {
		slog.Error("oauth authentication failed", "error", err, "provider", provider)
		oauthFailed(w, r)
		return
	}

	token, err := h.authService.GenerateJWT(user)
	if err != nil {
		slog.Error("failed to generate JWT", "error", err, "user_id", user.ID)
		oauthFailed(w, r)
		return
	}

	h.authService.SetJWTCookie(w, token, time.Now().Add(h.authService.JWTExpiry()))
	slog.Info("user logged in with oauth", "user_id", user.ID, "provider", provider)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func oauthFailed(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/?auth_error=oauth", http.StatusSeeOther)
}

func fetchJSON(client *http.Client, url string, v any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// generateOAuthState creates a random state token for OAuth CSRF protection
func generateOAuthState() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
