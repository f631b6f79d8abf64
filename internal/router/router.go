// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/streamtube/internal/config"
	"github.com/iliyamo/streamtube/internal/handler"
	"github.com/iliyamo/streamtube/internal/middleware"
)

// Handlers bundles every handler the router registers.
type Handlers struct {
	Auth   *handler.AuthHandler
	Users  *handler.UserHandler
	Videos *handler.VideoHandler
	Tweets *handler.TweetHandler

	Comments      *handler.CommentHandler
	Likes         *handler.LikeHandler
	Subscriptions *handler.SubscriptionHandler
}

// Register wires all routes onto the Echo instance.
//
// Route groups:
//   - /healthz                unauthenticated liveness probe
//   - /v1/auth/*              session lifecycle, rate limited
//   - public browse routes    OptionalJWT (anonymous allowed) + response cache
//   - protected /v1 routes    JWTAuth required
func Register(e *echo.Echo, h Handlers, accessSecret string, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	// Session lifecycle.  The rate limiter fronts the whole group so
	// credential stuffing and refresh hammering are throttled per key.
	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	authGroup := e.Group("/v1/auth", rl)
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)

	// Public browse routes.  OptionalJWT resolves an identity when a valid
	// access token is present but lets anonymous requests through; the
	// Redis cache fronts the listing endpoints.
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	optional := middleware.OptionalJWT(accessSecret)
	e.GET("/v1/videos", h.Videos.ListPublic, optional, cache)
	e.GET("/v1/videos/:id", h.Videos.Get, optional)
	e.GET("/v1/videos/:id/comments", h.Comments.ListByVideo, optional, cache)
	e.GET("/v1/users/:id/videos", h.Videos.ListByOwner, optional)
	e.GET("/v1/users/:id/tweets", h.Tweets.ListByUser, optional, cache)
	e.GET("/v1/channel/:userName", h.Users.Channel, optional, cache)

	// Everything below requires a live access token.
	auth := e.Group("/v1", middleware.JWTAuth(accessSecret))

	auth.POST("/auth/logout", h.Auth.Logout)
	auth.POST("/change-password", h.Auth.ChangePassword)
	auth.GET("/profile", h.Auth.Profile)
	auth.POST("/update-account", h.Users.UpdateAccount)
	auth.POST("/update-avatar", h.Users.UpdateAvatar)
	auth.POST("/update-cover", h.Users.UpdateCover)
	auth.GET("/history", h.Users.WatchHistory)

	auth.POST("/videos", h.Videos.Upload)
	auth.PATCH("/videos/:id", h.Videos.Update)
	auth.DELETE("/videos/:id", h.Videos.Delete)
	auth.POST("/videos/:id/comments", h.Comments.Create)
	auth.DELETE("/comments/:id", h.Comments.Delete)

	auth.POST("/tweets", h.Tweets.Create)
	auth.PATCH("/tweets/:id", h.Tweets.Update)
	auth.DELETE("/tweets/:id", h.Tweets.Delete)

	auth.POST("/videos/:id/like", h.Likes.ToggleVideo)
	auth.POST("/comments/:id/like", h.Likes.ToggleComment)
	auth.POST("/tweets/:id/like", h.Likes.ToggleTweet)
	auth.GET("/likes/videos", h.Likes.ListLikedVideos)

	auth.POST("/channels/:id/subscribe", h.Subscriptions.Toggle)
}
