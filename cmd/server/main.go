package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/melkan/community-platform/internal/config"
	"github.com/melkan/community-platform/internal/database"
	"github.com/melkan/community-platform/internal/handler"
	custmw "github.com/melkan/community-platform/internal/middleware"
	"github.com/melkan/community-platform/internal/queue"
	"github.com/melkan/community-platform/internal/repository"
	"github.com/melkan/community-platform/internal/router"
	queue_publisher "github.com/melkan/community-platform/internal/service"
)

func main() {
	// Load a local .env when present; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)

	// Redis is optional: without it the rate limiter is a pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting disabled")
	}
	limiter := custmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	// Background consumer for account lifecycle events.
	go func() {
		if err := queue.StartAccountConsumer(); err != nil {
			log.Printf("account consumer stopped: %v", err)
		}
	}()

	authH := handler.NewAuthHandler(cfg, users)
	authH.Publish = queue_publisher.PublishAccountEvent
	accountH := handler.NewAccountHandler(cfg, users)
	accountH.Publish = queue_publisher.PublishAccountEvent
	adminH := handler.NewAdminHandler(users)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, limiter)
	router.RegisterAccount(e, accountH, cfg.AccessSecret)
	router.RegisterAdmin(e, adminH, cfg.AccessSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
