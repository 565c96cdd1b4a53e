package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	config "github.com/anjiri1684/studio_booking/configs"
	"github.com/anjiri1684/studio_booking/database"
	"github.com/anjiri1684/studio_booking/handlers"
	"github.com/anjiri1684/studio_booking/jobs"
	"github.com/anjiri1684/studio_booking/middleware"
	"github.com/anjiri1684/studio_booking/models"
	"github.com/anjiri1684/studio_booking/notifications"
	"github.com/anjiri1684/studio_booking/repository"
	"github.com/anjiri1684/studio_booking/routes"
	"github.com/anjiri1684/studio_booking/services"
	"github.com/anjiri1684/studio_booking/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("🔥 Invalid configuration: %v", err)
	}

	db, err := database.ConnectDB(cfg.DatabaseURL, cfg.DBMaxOpen)
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	notifier := notifications.Multi{notifications.LogNotifier{}, hub}
	if email := notifications.NewBrevoService(cfg.BrevoAPIKey, cfg.EmailSender, cfg.EmailSenderName, cfg.AdminNotifyEmail); email != nil {
		notifier = append(notifier, notifications.Async{Next: email})
	}
	if cfg.RabbitURL != "" {
		publisher, err := notifications.NewPublisher(cfg.RabbitURL, cfg.BookingExchange)
		if err != nil {
			log.Printf("⚠️ Booking events will not be published: %v", err)
		} else {
			defer publisher.Close()
			notifier = append(notifier, notifications.Async{Next: publisher})
			log.Println("✅ Publishing booking events to", cfg.BookingExchange)
		}
	}

	loc := cfg.Location()
	store := repository.NewGormStore(db, repository.WithIsolation(sql.LevelSerializable))
	availability := services.NewAvailabilityService(store, services.OpeningHours{Open: cfg.OpenHour, Close: cfg.CloseHour}, notifier)
	verification := services.NewVerificationService(store, notifier, cfg.OTPTTL())
	bookings := services.NewBookingService(store, availability, verification, notifier, services.BookingConfig{
		CustomerInitialStatus: models.BookingStatus(cfg.CustomerInitialStatus),
		AdminInitialStatus:    models.BookingStatus(cfg.AdminInitialStatus),
		Location:              loc,
		Now:                   time.Now,
	})
	loyalty := services.NewLoyaltyService(store, loc, time.Now)

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc("*/5 * * * *", jobs.NewReminderJob(bookings, notifier, loc, time.Now).SendSessionReminders); err != nil {
		log.Fatalf("🔥 Failed to schedule reminders: %v", err)
	}
	if _, err := c.AddFunc("0 9 * * *", jobs.NewCompletionDigestJob(bookings, notifier, loc, time.Now).CheckForUnattendedSessions); err != nil {
		log.Fatalf("🔥 Failed to schedule completion digest: %v", err)
	}
	c.Start()
	defer c.Stop()
	log.Println("✅ Cron jobs for reminders and completion digest scheduled successfully.")

	app := fiber.New(fiber.Config{
		Prefork:       false,
		AppName:       "Studio Booking",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   cfg.StudioTimezone,
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(middleware.Metrics())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to Studio Booking API",
		})
	})

	h := routes.Handlers{
		Availability: handlers.NewAvailabilityHandler(availability),
		Bookings:     handlers.NewBookingHandler(bookings),
		Verification: handlers.NewVerificationHandler(verification),
		Loyalty:      handlers.NewLoyaltyHandler(loyalty, verification),
		Feed:         handlers.NewFeedHandler(hub),
	}
	routes.PublicRoutes(app, h)
	routes.BookingRoutes(app, h)
	routes.VerificationRoutes(app, h)
	routes.AdminRoutes(app, h, cfg.JWTSecret)

	app.Get("/health", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
		}
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("⚠️ Server shutdown: %v", err)
		}
	}()

	log.Printf("✅ Server is running on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
