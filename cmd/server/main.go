// Command server starts the event ticket booking API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/event-ticket-booking/internal/admission"
	"github.com/iliyamo/event-ticket-booking/internal/cache"
	"github.com/iliyamo/event-ticket-booking/internal/config"
	"github.com/iliyamo/event-ticket-booking/internal/database"
	"github.com/iliyamo/event-ticket-booking/internal/handler"
	"github.com/iliyamo/event-ticket-booking/internal/middleware"
	"github.com/iliyamo/event-ticket-booking/internal/queue"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
	"github.com/iliyamo/event-ticket-booking/internal/router"
	"github.com/iliyamo/event-ticket-booking/internal/service"
)

func main() {
	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is advisory everywhere it is used; nil just means the gate
	// fails open, the cache disables and the limiter admits.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; admission gate, listing cache and rate limiter disabled")
	}

	events := repository.NewEventRepo(db)
	bookings := repository.NewBookingRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	store := repository.NewStore(db, events, bookings)

	gate := admission.FromEnv(cfg.AdmissionStrategy, rdb)
	log.Printf("admission strategy: %s", cfg.AdmissionStrategy)

	cacheCfg := config.LoadCacheConfig()
	var listingClient = rdb
	if !cacheCfg.Enabled {
		listingClient = nil
	}
	listings := cache.NewListingCache(listingClient, cacheCfg.TTL)

	svc := service.NewBookingService(store, gate, cfg.MaxBookingAttempts)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	eventH := handler.NewEventHandler(events, gate, listings)
	bookingH := handler.NewBookingHandler(svc, events, listings)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterEvents(e, eventH, cfg.JWTSecret)
	router.RegisterBookings(e, bookingH, cfg.JWTSecret, limiter)

	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
