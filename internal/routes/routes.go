package routes

import (
	"net/http"

	"github.com/relive/relive/internal/app"
	"github.com/relive/relive/internal/handler"
	"github.com/relive/relive/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	home := handler.NewHomeHandler(app.Cfg.AppName, app.DB)
	auth := handler.NewAuthHandler(app.AuthService, app.Cfg)
	account := handler.NewAccountHandler(app.AuthService, app.UserService)
	memory := handler.NewMemoryHandler(app.MemoryService)
	upload := handler.NewUploadHandler(app.FileService, app.MaxUploadSize())
	tag := handler.NewTagHandler(app.TagService)
	views := handler.NewViewHandler(app.DashboardService, app.TimelineService, app.GalleryService, app.StatsService)
	export := handler.NewExportHandler(app.ExportService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /{$}", home.HomePage)
	mux.HandleFunc("GET /healthz", home.Health)

	// Auth (rate limited)
	rateLimiter := middleware.RateLimitAuth()

	mux.HandleFunc("POST /auth/signup", rateLimiter(auth.Signup))
	mux.HandleFunc("POST /auth/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /auth/logout", auth.Logout)
	mux.HandleFunc("POST /auth/forgot-password", rateLimiter(auth.ForgotPassword))
	mux.HandleFunc("POST /auth/reset-password", rateLimiter(auth.ResetPassword))

	// OAuth
	mux.HandleFunc("GET /auth/google", rateLimiter(auth.GoogleAuth))
	mux.HandleFunc("GET /auth/google/callback", rateLimiter(auth.GoogleCallback))
	mux.HandleFunc("GET /auth/github", rateLimiter(auth.GitHubAuth))
	mux.HandleFunc("GET /auth/github/callback", rateLimiter(auth.GitHubCallback))

	// ============================================================================
	// PROTECTED ROUTES
	// ============================================================================

	// Account
	mux.HandleFunc("GET /api/me", middleware.RequireAuth(account.Me))
	mux.HandleFunc("PATCH /api/me", middleware.RequireAuth(account.Update))
	mux.HandleFunc("DELETE /api/me", middleware.RequireAuth(account.Delete))

	// Memories
	mux.HandleFunc("GET /api/memories", middleware.RequireAuth(memory.List))
	mux.HandleFunc("POST /api/memories", middleware.RequireAuth(memory.Create))
	mux.HandleFunc("GET /api/memories/{id}", middleware.RequireAuth(memory.Get))
	mux.HandleFunc("PUT /api/memories/{id}", middleware.RequireAuth(memory.Update))
	mux.HandleFunc("DELETE /api/memories/{id}", middleware.RequireAuth(memory.Delete))

	// Uploads
	uploadLimiter := middleware.RateLimitUploads()
	mux.HandleFunc("POST /api/uploads", middleware.RequireAuth(uploadLimiter(upload.Upload)))
	mux.HandleFunc("GET /uploads/{id}", middleware.RequireAuth(upload.Serve))

	// Tags
	mux.HandleFunc("GET /api/tags", middleware.RequireAuth(tag.List))
	mux.HandleFunc("POST /api/tags", middleware.RequireAuth(tag.Create))

	// Views
	mux.HandleFunc("GET /api/dashboard", middleware.RequireAuth(views.Dashboard))
	mux.HandleFunc("GET /api/timeline", middleware.RequireAuth(views.Timeline))
	mux.HandleFunc("GET /api/gallery", middleware.RequireAuth(views.Gallery))
	mux.HandleFunc("GET /api/stats", middleware.RequireAuth(views.Stats))

	// Export
	mux.HandleFunc("GET /api/export", middleware.RequireAuth(export.Export))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", home.NotFound)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Config(app.Cfg), // Config must be first (needed by SecurityHeaders for S3 endpoint)
		middleware.NonceMiddleware, // Generate CSP nonce for each request (must be before SecurityHeaders)
		middleware.SecurityHeaders,
		middleware.RequestLogging,
		middleware.CSRFProtection,
		middleware.AuthMiddleware(app.AuthService, app.UserService),
	)

	return handler
}
