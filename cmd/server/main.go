package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/streamtube/internal/auth"
	"github.com/iliyamo/streamtube/internal/config"
	"github.com/iliyamo/streamtube/internal/database"
	"github.com/iliyamo/streamtube/internal/handler"
	"github.com/iliyamo/streamtube/internal/queue"
	"github.com/iliyamo/streamtube/internal/repository"
	"github.com/iliyamo/streamtube/internal/router"
	"github.com/iliyamo/streamtube/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis backs the response cache and the rate limiter.  nil means the
	// server runs without either.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; caching and rate limiting disabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	media, err := storage.NewMediaStore(ctx, config.LoadMediaConfig())
	cancel()
	if err != nil {
		log.Fatalf("media store: %v", err)
	}
	if !media.Enabled() {
		log.Println("media store not configured; uploads will carry empty URLs")
	}

	users := repository.NewUserRepo(db)
	videos := repository.NewVideoRepo(db)
	history := repository.NewHistoryRepo(db)
	tweets := repository.NewTweetRepo(db)
	comments := repository.NewCommentRepo(db)
	likes := repository.NewLikeRepo(db)
	subs := repository.NewSubscriptionRepo(db)

	sessions := auth.NewService(
		users,
		cfg.AccessSecret,
		cfg.RefreshSecret,
		time.Duration(cfg.AccessTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour,
		cfg.BcryptCost,
	)

	h := router.Handlers{
		Auth:          handler.NewAuthHandler(cfg, users, sessions, media),
		Users:         handler.NewUserHandler(users, subs, history, media),
		Videos:        handler.NewVideoHandler(videos, users, history, media),
		Tweets:        handler.NewTweetHandler(tweets),
		Comments:      handler.NewCommentHandler(comments),
		Likes:         handler.NewLikeHandler(likes),
		Subscriptions: handler.NewSubscriptionHandler(subs, users),
	}

	// The activity consumer tails broker events into the activity log.  The
	// API stays up when the broker is down; events are then dropped by the
	// publishers.
	go func() {
		if err := queue.StartActivityConsumer(); err != nil {
			log.Printf("activity consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e, h, cfg.AccessSecret, rdb)

	log.Printf("listening on :%s (env=%s)", cfg.Port, cfg.Env)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
