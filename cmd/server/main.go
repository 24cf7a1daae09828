package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/mentorhive/mentor-booking/internal/config"
	"github.com/mentorhive/mentor-booking/internal/database"
	"github.com/mentorhive/mentor-booking/internal/handler"
	"github.com/mentorhive/mentor-booking/internal/middleware"
	"github.com/mentorhive/mentor-booking/internal/payment"
	"github.com/mentorhive/mentor-booking/internal/queue"
	"github.com/mentorhive/mentor-booking/internal/realtime"
	"github.com/mentorhive/mentor-booking/internal/repository"
	"github.com/mentorhive/mentor-booking/internal/router"
	"github.com/mentorhive/mentor-booking/internal/sweeper"
)

func main() {
	// .env is optional; real deployments set variables in the environment.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	bookings := repository.NewBookingRepo(db)
	chats := repository.NewChatRepo(db)
	messages := repository.NewMessageRepo(db)

	// Realtime hub and payment processor client
	hub := realtime.NewHub()
	rz := payment.NewClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, "")

	// Handlers
	authH := handler.NewAuthHandler(cfg, users, tokens)
	paymentH := handler.NewPaymentHandler(cfg, bookings, chats, rz)
	chatH := handler.NewChatHandler(chats, messages, hub)
	bookingH := handler.NewBookingHandler(cfg, bookings, chats)
	wsH := realtime.NewWSHandler(hub)

	e := echo.New()
	e.HideBanner = true

	// Redis-backed rate limiting; a nil client degrades to pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPayment(e, paymentH, cfg.JWTSecret)
	router.RegisterChat(e, chatH, wsH, cfg.JWTSecret)
	router.RegisterBooking(e, bookingH, cfg.JWTSecret)

	// Background consumer for booking.paid events.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	// Background chat expiry sweep.
	sw := sweeper.New(bookings, chats,
		time.Duration(cfg.ChatTTLHours)*time.Hour,
		time.Duration(cfg.SweepIntervalMin)*time.Minute)
	go sw.Run(context.Background())

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
