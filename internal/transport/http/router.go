package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"vidtube/internal/handler"
	"vidtube/internal/httputil"
	"vidtube/internal/logging"
	authmw "vidtube/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	VideoHandler        *handler.VideoHandler
	CommentHandler      *handler.CommentHandler
	TweetHandler        *handler.TweetHandler
	LikeHandler         *handler.LikeHandler
	SubscriptionHandler *handler.SubscriptionHandler
	PlaylistHandler     *handler.PlaylistHandler
	DashboardHandler    *handler.DashboardHandler
	HealthHandler       *handler.HealthHandler
	JWTSecret           string
	CORSOrigins         []string
	// TrustProxy rewrites RemoteAddr from forwarding headers.
	TrustProxy bool
	// RateLimiter throttles mutating requests when set.
	RateLimiter *authmw.RateLimiter
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(logging.RequestLogger)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(authmw.CORS(cfg.CORSOrigins))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Health check endpoint (useful for deployment/monitoring)
	if cfg.HealthHandler != nil {
		r.Get("/healthcheck", cfg.HealthHandler.Check)
	}

	requireAuth := authmw.AuthMiddleware(cfg.JWTSecret)
	optionalAuth := authmw.OptionalAuthMiddleware(cfg.JWTSecret)

	r.Route("/users", func(r chi.Router) {
		// Public routes - no authentication required
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/refresh-token", cfg.AuthHandler.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/logout", cfg.AuthHandler.Logout)
			r.Post("/logout-all", cfg.AuthHandler.LogoutAll)
			r.Post("/change-password", cfg.AuthHandler.ChangePassword)
			r.Get("/current-user", cfg.AuthHandler.CurrentUser)
			r.Patch("/update-account", cfg.UserHandler.UpdateAccount)
			r.Patch("/avatar", cfg.UserHandler.UpdateAvatar)
			r.Patch("/cover-image", cfg.UserHandler.UpdateCoverImage)
			r.Get("/c/{userName}", cfg.UserHandler.ChannelProfile)
			r.Get("/history", cfg.UserHandler.WatchHistory)
		})
	})

	r.Route("/videos", func(r chi.Router) {
		r.With(optionalAuth).Get("/", cfg.VideoHandler.List)
		r.With(optionalAuth).Get("/{videoId}", cfg.VideoHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", cfg.VideoHandler.Publish)
			r.Patch("/{videoId}", cfg.VideoHandler.Update)
			r.Delete("/{videoId}", cfg.VideoHandler.Delete)
			r.Patch("/toggle/publish/{videoId}", cfg.VideoHandler.TogglePublish)
		})
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Route("/comments", func(r chi.Router) {
			r.Get("/{videoId}", cfg.CommentHandler.List)
			r.Post("/{videoId}", cfg.CommentHandler.Add)
			r.Patch("/c/{commentId}", cfg.CommentHandler.Update)
			r.Delete("/c/{commentId}", cfg.CommentHandler.Delete)
		})

		r.Route("/likes", func(r chi.Router) {
			r.Post("/toggle/v/{videoId}", cfg.LikeHandler.ToggleVideoLike)
			r.Post("/toggle/c/{commentId}", cfg.LikeHandler.ToggleCommentLike)
			r.Post("/toggle/t/{tweetId}", cfg.LikeHandler.ToggleTweetLike)
			r.Get("/videos", cfg.LikeHandler.LikedVideos)
		})

		r.Route("/tweets", func(r chi.Router) {
			r.Post("/", cfg.TweetHandler.Create)
			r.Get("/user/{userId}", cfg.TweetHandler.ListByUser)
			r.Patch("/{tweetId}", cfg.TweetHandler.Update)
			r.Delete("/{tweetId}", cfg.TweetHandler.Delete)
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Post("/c/{channelId}", cfg.SubscriptionHandler.Toggle)
			r.Get("/c/{channelId}", cfg.SubscriptionHandler.Subscribers)
			r.Get("/u/{subscriberId}", cfg.SubscriptionHandler.SubscribedChannels)
		})

		r.Route("/playlist", func(r chi.Router) {
			r.Post("/", cfg.PlaylistHandler.Create)
			r.Get("/user/{userId}", cfg.PlaylistHandler.ListByUser)
			r.Patch("/add/{videoId}/{playlistId}", cfg.PlaylistHandler.AddVideo)
			r.Patch("/remove/{videoId}/{playlistId}", cfg.PlaylistHandler.RemoveVideo)
			r.Get("/{playlistId}", cfg.PlaylistHandler.Get)
			r.Patch("/{playlistId}", cfg.PlaylistHandler.Update)
			r.Delete("/{playlistId}", cfg.PlaylistHandler.Delete)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/stats", cfg.DashboardHandler.Stats)
			r.Get("/videos", cfg.DashboardHandler.Videos)
		})
	})

	return r
}
