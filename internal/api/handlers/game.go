package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/poolhall/backend/internal/config"
	"github.com/poolhall/backend/internal/game"
	"github.com/poolhall/backend/internal/models"
)

// CreateGame seats the authenticated player against an opponent and returns
// join links for both. The opponent may be a registered username or a guest
// display name.
func CreateGame(mgr *game.GameManager, db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		pidI, ok := c.Get("player_id")
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		pid := pidI.(int)

		var req struct {
			OpponentUsername string `json:"opponent_username"`
			OpponentName     string `json:"opponent_name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		var me models.Player
		if err := db.Get(&me, `SELECT * FROM players WHERE id=$1`, pid); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "player not found"})
			return
		}

		oppDBID := 0
		oppName := strings.TrimSpace(req.OpponentName)
		if username := strings.ToLower(strings.TrimSpace(req.OpponentUsername)); username != "" {
			var opp models.Player
			if err := db.Get(&opp, `SELECT * FROM players WHERE username=$1`, username); err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "opponent not found"})
				return
			}
			oppDBID = opp.ID
			oppName = opp.DisplayName
		}
		if oppName == "" {
			oppName = "Guest"
		}

		g := mgr.CreateGame(me.DisplayName, oppName, pid, oppDBID)

		p1 := g.Players[game.SeatOne]
		p2 := g.Players[game.SeatTwo]
		p1Link := cfg.FrontendURL + "/g/" + g.Token + "?pt=" + p1.PlayerToken
		p2Link := cfg.FrontendURL + "/g/" + g.Token + "?pt=" + p2.PlayerToken

		log.Printf("[GAME] created game %s for player %d vs %q", g.ID, pid, oppName)

		c.JSON(http.StatusOK, gin.H{
			"game_id":       g.ID,
			"game_token":    g.Token,
			"player1_id":    p1.ID,
			"player2_id":    p2.ID,
			"player1_link":  p1Link,
			"player2_link":  p2Link,
			"player1_token": p1.PlayerToken,
			"player2_token": p2.PlayerToken,
			"status":        g.Status,
			"message":       "Game created. Share the opponent link to start.",
		})
	}
}

// GetGameState returns current game state for a player
func GetGameState(mgr *game.GameManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		playerToken := c.Query("pt")

		g, err := mgr.GetGameByToken(token)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
			return
		}

		if playerToken == "" {
			// Basic game info without player-specific data
			c.JSON(http.StatusOK, gin.H{
				"game_id":    g.ID,
				"status":     g.Status,
				"created_at": g.CreatedAt,
			})
			return
		}

		player := g.PlayerByToken(playerToken)
		if player == nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid player token"})
			return
		}

		c.JSON(http.StatusOK, g.StateForPlayer(player.ID))
	}
}

// GetPlayerStats returns public statistics for a player
func GetPlayerStats(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := strings.ToLower(c.Param("username"))

		var player models.Player
		if err := db.Get(&player, `SELECT * FROM players WHERE username=$1`, username); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
			return
		}

		winRate := 0.0
		if player.GamesPlayed > 0 {
			winRate = 100.0 * float64(player.GamesWon) / float64(player.GamesPlayed)
		}

		c.JSON(http.StatusOK, gin.H{
			"username":     player.Username,
			"display_name": player.DisplayName,
			"games_played": player.GamesPlayed,
			"games_won":    player.GamesWon,
			"win_rate":     winRate,
		})
	}
}
