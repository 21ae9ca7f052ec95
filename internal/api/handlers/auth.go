package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/poolhall/backend/internal/config"
	"github.com/poolhall/backend/internal/models"
)

// Register creates a player account with a bcrypt-hashed password.
func Register(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username    string `json:"username" binding:"required"`
			Password    string `json:"password" binding:"required"`
			DisplayName string `json:"display_name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
			return
		}

		username := strings.ToLower(strings.TrimSpace(req.Username))
		if len(username) < 3 || len(username) > 32 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username must be 3-32 characters"})
			return
		}
		if len(req.Password) < 8 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
			return
		}

		displayName := strings.TrimSpace(req.DisplayName)
		if displayName == "" {
			displayName = username
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[AUTH] bcrypt failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		var playerID int
		err = db.Get(&playerID,
			`INSERT INTO players (username, display_name, password_hash, created_at)
			 VALUES ($1, $2, $3, NOW()) RETURNING id`,
			username, displayName, string(hash))
		if err != nil {
			// unique violation on username is the common case here
			log.Printf("[AUTH] failed to create player %s: %v", username, err)
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}

		token, err := issueToken(cfg, playerID, username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":  token,
			"player": gin.H{"id": playerID, "username": username, "display_name": displayName},
		})
	}
}

// Login verifies credentials and issues a JWT.
func Login(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
			return
		}

		username := strings.ToLower(strings.TrimSpace(req.Username))

		var player models.Player
		if err := db.Get(&player, `SELECT * FROM players WHERE username=$1`, username); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(player.PasswordHash), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token, err := issueToken(cfg, player.ID, player.Username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		if _, err := db.Exec(`UPDATE players SET last_active=NOW() WHERE id=$1`, player.ID); err != nil {
			log.Printf("[AUTH] failed to update last_active for player %d: %v", player.ID, err)
		}

		c.JSON(http.StatusOK, gin.H{
			"token":  token,
			"player": gin.H{"id": player.ID, "username": player.Username, "display_name": player.DisplayName},
		})
	}
}

// AuthMiddleware validates bearer JWT and sets player_id in context
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")

		parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !parsed.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		playerIDf, ok := claims["player_id"].(float64)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set("player_id", int(playerIDf))
		c.Next()
	}
}

// GetMe returns the authenticated player's profile and stats.
func GetMe(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		pidI, ok := c.Get("player_id")
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		pid := pidI.(int)

		var player models.Player
		if err := db.Get(&player, `SELECT * FROM players WHERE id=$1`, pid); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "player not found"})
			return
		}

		winRate := 0.0
		if player.GamesPlayed > 0 {
			winRate = 100.0 * float64(player.GamesWon) / float64(player.GamesPlayed)
		}

		c.JSON(http.StatusOK, gin.H{
			"id":           player.ID,
			"username":     player.Username,
			"display_name": player.DisplayName,
			"games_played": player.GamesPlayed,
			"games_won":    player.GamesWon,
			"win_rate":     winRate,
		})
	}
}

func issueToken(cfg *config.Config, playerID int, username string) (string, error) {
	exp := time.Now().Add(time.Duration(cfg.SessionTimeoutMin) * time.Minute)
	claims := jwt.MapClaims{
		"player_id": playerID,
		"username":  username,
		"exp":       exp.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		log.Printf("[AUTH] failed to sign token: %v", err)
		return "", err
	}
	return signed, nil
}
