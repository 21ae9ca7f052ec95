package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/poolhall/backend/internal/config"
	"github.com/poolhall/backend/internal/game"
)

var (
	manager   *game.GameManager
	rdbClient *redis.Client
	wsConfig  *config.Config
)

// SetManager wires the WS layer to the game registry, Redis and config.
// Must be called before accepting connections.
func SetManager(m *game.GameManager, r *redis.Client, cfg *config.Config) {
	manager = m
	rdbClient = r
	wsConfig = cfg
}

// StartGameEventSubscriber subscribes to the game_events channel and relays
// events published by other processes into the connected game rooms.
func StartGameEventSubscriber(ctx context.Context) {
	if rdbClient == nil {
		log.Println("[WS] Redis client not set; game event subscriber not started")
		return
	}

	pubsub := rdbClient.Subscribe(ctx, "game_events")
	ch := pubsub.Channel()
	go func() {
		log.Println("[WS] game_events subscriber started")
		for msg := range ch {
			var payload map[string]interface{}
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				log.Printf("[WS] invalid event payload: %v", err)
				continue
			}

			typeStr, _ := payload["type"].(string)
			gameToken, _ := payload["game_token"].(string)
			gameID, _ := payload["game_id"].(string)
			if gameID == "" {
				gameID = gameToken
			}

			log.Printf("[WS] event received: type=%s game_id=%s", typeStr, gameID)

			switch typeStr {
			case "game_completed":
				GameHub.BroadcastToGame(gameID, map[string]interface{}{
					"type":     "game_over",
					"winner":   payload["winner"],
					"win_type": payload["win_type"],
				})

			case "session_cancelled":
				GameHub.BroadcastToGame(gameID, map[string]interface{}{
					"type":    "session_cancelled",
					"message": payload["message"],
				})

			default:
				log.Printf("[WS] unknown event type: %s", typeStr)
			}
		}
	}()
}
