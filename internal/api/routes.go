package api

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/poolhall/backend/internal/api/handlers"
	"github.com/poolhall/backend/internal/config"
	"github.com/poolhall/backend/internal/game"
	"github.com/poolhall/backend/internal/ws"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, mgr *game.GameManager, cfg *config.Config) {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Cache-Control", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.Environment == "production" && cfg.FrontendURL != "" {
		corsCfg.AllowOrigins = []string{cfg.FrontendURL}
	} else {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	router.Use(cors.New(corsCfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			// Aggressive no-cache for development
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] Aggressive no-cache headers enabled for all routes")
	}

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		auth := v1.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db, cfg))
			auth.POST("/login", handlers.Login(db, cfg))
		}

		v1.GET("/me", handlers.AuthMiddleware(cfg), handlers.GetMe(db))

		gameGroup := v1.Group("/game")
		{
			gameGroup.POST("", handlers.AuthMiddleware(cfg), handlers.CreateGame(mgr, db, cfg))
			gameGroup.GET("/:token", handlers.GetGameState(mgr))
			gameGroup.GET("/:token/ws", ws.HandleWebSocket)
		}

		player := v1.Group("/player")
		{
			player.GET(":username/stats", handlers.GetPlayerStats(db))
		}
	}
}
