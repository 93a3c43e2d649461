package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"whatsapp-hub/internal/api"
	"whatsapp-hub/internal/cache"
	rediscache "whatsapp-hub/internal/cache/redis"
	"whatsapp-hub/internal/config"
	"whatsapp-hub/internal/database"
	"whatsapp-hub/internal/store"
	"whatsapp-hub/internal/webhook"
	"whatsapp-hub/internal/whatsapp"
	"whatsapp-hub/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.LoadConfig()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	st := store.New(db)

	var statsCache cache.Cache
	if cfg.RedisAddr != "" {
		redisCache, err := rediscache.NewRedisCache(context.Background(), cfg.RedisAddr)
		if err != nil {
			log.Fatalf("Failed to connect redis: %v", err)
		}
		statsCache = redisCache
	}

	hub := ws.NewHub()
	go hub.Run()

	r := gin.Default()

	// CORS Middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Request ID Middleware
	r.Use(func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	})

	whatsappClient := whatsapp.NewClient(cfg)
	webhookHandler := webhook.NewHandler(cfg, st, hub, logger)
	dashboardHandler := api.NewDashboardHandler(st, statsCache, logger)
	contactHandler := api.NewContactHandler(st)
	whatsappHandler := api.NewWhatsAppHandler(whatsappClient, st, hub, logger)
	broadcastHandler := api.NewBroadcastHandler(whatsappClient, st, logger)

	// Webhook Routes
	r.GET("/webhook", webhookHandler.VerifyWebhook)
	r.POST("/webhook", webhookHandler.HandleMessage)

	// Live event feed for dashboard clients
	r.GET("/ws", func(c *gin.Context) {
		hub.ServeWs(c.Writer, c.Request)
	})

	// Dashboard API Routes
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/stats", dashboardHandler.GetStats)
		apiGroup.GET("/messages", dashboardHandler.GetMessages)
		apiGroup.GET("/messages/:waMessageId", dashboardHandler.GetMessage)
		apiGroup.POST("/send", whatsappHandler.SendText)

		// CRM Routes
		apiGroup.GET("/contacts", contactHandler.GetContacts)
		apiGroup.GET("/contacts/export", contactHandler.ExportContacts)
		apiGroup.GET("/contacts/:waId/messages", contactHandler.GetContactHistory)

		// WhatsApp Direct API Routes
		whatsappGroup := apiGroup.Group("/whatsapp")
		{
			whatsappGroup.POST("/send", whatsappHandler.SendMessage)
			whatsappGroup.POST("/broadcast", broadcastHandler.SendBroadcast)
			whatsappGroup.POST("/media", whatsappHandler.UploadMedia)
			whatsappGroup.GET("/media/:id", whatsappHandler.RetrieveMediaURL)
			whatsappGroup.GET("/media/:id/proxy", whatsappHandler.DownloadMediaProxy)
			whatsappGroup.DELETE("/media/:id", whatsappHandler.DeleteMedia)
			whatsappGroup.GET("/templates", whatsappHandler.GetTemplates)
		}
	}

	logger.Info("server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
