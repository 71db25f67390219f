package middleware

import (
	"net/http"
	"strings"

	"github.com/relive/relive/internal/ctxkeys"
	"github.com/relive/relive/internal/service"
	"github.com/relive/relive/internal/ui"
)

// AuthMiddleware checks for a JWT in the Authorization header or the auth
// cookie and adds the user to the context if valid
func AuthMiddleware(authService *service.AuthService, userService *service.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, bearer := bearerToken(r)
			if !bearer {
				cookie, err := r.Cookie(service.AuthCookieName)
				if err != nil {
					// No cookie, continue without auth
					next.ServeHTTP(w, r)
					return
				}
				token = cookie.Value
			}

			// reject drops a bad cookie; bearer clients manage their own tokens
			reject := func() {
				if !bearer {
					authService.ClearJWTCookie(w)
				}
				next.ServeHTTP(w, r)
			}

			claims, err := authService.VerifyJWT(token)
			if err != nil {
				reject()
				return
			}

			userID, ok := claims["user_id"].(string)
			if !ok {
				reject()
				return
			}

			user, err := userService.ByID(r.Context(), userID)
			if err != nil {
				reject()
				return
			}

			// Security: Remove password hash from context
			user.PasswordHash = nil

			ctx := ctxkeys.WithUser(r.Context(), user)
			if bearer {
				ctx = ctxkeys.WithBearerAuth(ctx)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// RequireAuth ensures the user is authenticated. API requests get a JSON 401,
// pages are redirected home.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxkeys.User(r.Context())
		if user == nil {
			if isAPIRequest(r) {
				ui.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	}
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
