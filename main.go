package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/amraniy/whatsbot-backend/database"
	"github.com/amraniy/whatsbot-backend/internal/ai"
	"github.com/amraniy/whatsbot-backend/internal/gateway"
	"github.com/amraniy/whatsbot-backend/internal/handlers"
	"github.com/amraniy/whatsbot-backend/internal/jobs"
	"github.com/amraniy/whatsbot-backend/internal/models"
	"github.com/amraniy/whatsbot-backend/internal/routes"
	"github.com/amraniy/whatsbot-backend/internal/services"
	"github.com/amraniy/whatsbot-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found - checking environment variables")
	}

	// Initialize storage
	var store storage.Store

	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.User{},
			&models.Contact{},
			&models.AutoReply{},
			&models.WorkingHours{},
			&models.AISettings{},
			&models.ConversationTurn{},
			&models.Order{},
			&models.Broadcast{},
			&models.BroadcastRecipient{},
			&models.SheetsSettings{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(database.DB)
		log.Println("✅ Using PostgreSQL database storage")
	}
	storage.SetStore(store)

	// Select the WhatsApp gateway
	var gw gateway.Gateway
	var err error
	if os.Getenv("WHATSAPP_GATEWAY") == "twilio" {
		gw, err = gateway.NewTwilioGateway()
		if err != nil {
			log.Fatal("Failed to initialize Twilio gateway:", err)
		}
		log.Println("✅ Twilio WhatsApp gateway initialized")
	} else {
		gw, err = gateway.NewEvolutionGateway()
		if err != nil {
			log.Fatal("Failed to initialize Evolution gateway:", err)
		}
		log.Println("✅ Evolution API gateway initialized")
	}

	// Telegram operator bot (optional)
	notifier, err := services.NewNotifier(store)
	if err != nil {
		log.Printf("⚠️  Telegram notifications disabled: %v", err)
		notifier = nil
	}

	// Dedup ledger: in-memory FIFO by default, redis when configured
	var ledger services.SeenLedger
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatal("Invalid REDIS_URL:", err)
		}
		ledger = services.NewRedisSeenLedger(redis.NewClient(opts), time.Hour)
		log.Println("✅ Using redis-backed dedup ledger")
	} else {
		ledger = services.NewMemorySeenLedger(services.DefaultSeenCap)
		log.Println("✅ Using in-memory dedup ledger")
	}

	// Wire the decision pipeline
	registry := ai.NewRegistry()
	gate := services.NewWorkingHoursGate(store)
	matcher := services.NewKeywordMatcher(store)
	memory := services.NewConversationService(store)
	engine := services.NewAIReplyEngine(registry)
	invoices := services.NewInvoiceService()
	orders := services.NewOrderService(store, gw, notifier, invoices)
	dispatcher := services.NewDispatcher(store, gw, ledger, gate, matcher, memory, engine, orders, notifier)
	excel := services.NewExcelService()
	broadcasts := services.NewBroadcastService(store, gw)

	// Pull-side delivery path
	poller := jobs.NewMessagePoller(store, gw, dispatcher)
	poller.Start()

	// Operator inline-button callbacks
	if notifier != nil {
		go notifier.Listen(orders)
	}

	log.Println("✅ All services initialized")

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "WhatsBot Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Health check endpoint with database status
	app.Get("/", func(c *fiber.Ctx) error {
		response := fiber.Map{
			"service":  "WhatsBot Backend API",
			"version":  "1.0.0",
			"status":   "healthy",
			"storage":  getStorageType(),
			"telegram": notifier != nil,
		}

		if os.Getenv("USE_MEMORY_STORE") != "true" && database.DB != nil {
			sqlDB, err := database.DB.DB()
			dbStatus := "connected"
			if err != nil {
				dbStatus = "error: " + err.Error()
			} else if err := sqlDB.Ping(); err != nil {
				dbStatus = "error: " + err.Error()
			}

			var userCount, contactCount, orderCount, turnCount int64
			database.DB.Model(&models.User{}).Count(&userCount)
			database.DB.Model(&models.Contact{}).Count(&contactCount)
			database.DB.Model(&models.Order{}).Count(&orderCount)
			database.DB.Model(&models.ConversationTurn{}).Count(&turnCount)

			response["database"] = fiber.Map{
				"status":   dbStatus,
				"users":    userCount,
				"contacts": contactCount,
				"orders":   orderCount,
				"turns":    turnCount,
			}
		}

		return c.JSON(response)
	})

	// Health check endpoint for monitoring
	app.Get("/health", func(c *fiber.Ctx) error {
		status := "healthy"
		statusCode := 200

		if os.Getenv("USE_MEMORY_STORE") != "true" && database.DB != nil {
			sqlDB, err := database.DB.DB()
			if err != nil || sqlDB.Ping() != nil {
				status = "unhealthy"
				statusCode = 503
			}
		}

		return c.Status(statusCode).JSON(fiber.Map{
			"status": status,
			"services": fiber.Map{
				"database": status == "healthy",
				"telegram": notifier != nil,
			},
		})
	})

	// Setup routes
	webhookHandler := handlers.NewWebhookHandler(store, dispatcher, notifier)
	orderHandler := handlers.NewOrderHandler(store, excel)
	broadcastHandler := handlers.NewBroadcastHandler(store, broadcasts)
	routes.SetupRoutes(app, webhookHandler, orderHandler, broadcastHandler)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		log.Println("⏹️  Stopping message poller...")
		poller.Stop()
		log.Println("⏹️  Shutting down server...")
		_ = app.Shutdown()
	}()

	// Start server
	log.Println("========================================")
	log.Printf("🚀 WhatsBot Backend starting on port %s", port)
	log.Printf("📊 Storage: %s", getStorageType())
	log.Printf("📱 Gateway: %s", getGatewayType())
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func getStorageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}

func getGatewayType() string {
	if os.Getenv("WHATSAPP_GATEWAY") == "twilio" {
		return "Twilio"
	}
	return "Evolution API"
}
