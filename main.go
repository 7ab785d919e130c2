package main

import (
	"context"
	"log"
	"time"

	"budget-tracker/config"
	"budget-tracker/handlers"
	"budget-tracker/middleware"
	"budget-tracker/routes"
	"budget-tracker/services"
	"budget-tracker/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	st, err := store.NewFileStore(cfg.DataFile)
	if err != nil {
		log.Fatal("Failed to open user store:", err)
	}
	log.Printf("✅ User store ready at %s", cfg.DataFile)

	wsHandler := handlers.NewWSHandler()
	updater := services.NewRateUpdater(services.NewRateClient(), st, wsHandler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go updater.Run(ctx)

	router := gin.Default()

	corsConfig := cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           86400,
	}
	router.Use(cors.New(corsConfig))

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("📨 %s %s from %s - %d (%v)", c.Request.Method, c.Request.URL.Path, c.ClientIP(), c.Writer.Status(), time.Since(start))
	})

	router.Use(middleware.RateLimiter(100, time.Minute))

	api := router.Group("/api")
	{
		routes.SetupAuthRoutes(api, st)

		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			routes.SetupDataRoutes(protected, st, wsHandler, updater)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	log.Printf("🚀 Server starting on port %s...", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
