package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/poolhall/backend/internal/game"
)

// Pool-specific message data types
type TakeShotData struct {
	Angle        float64 `json:"angle"`
	Power        float64 `json:"power"`
	SideSpin     float64 `json:"side_spin"`
	TopSpin      float64 `json:"top_spin"`
	CalledPocket *int    `json:"called_pocket,omitempty"`
}

type PlaceCueBallData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GameHub is the single hub for all games.
var GameHub *Hub

func init() {
	GameHub = NewHub()
	go runGameHub(GameHub)
}

// HandleWebSocket handles WebSocket connections for pool games.
func HandleWebSocket(c *gin.Context) {
	gameToken := c.Query("token")
	playerToken := c.Query("pt")

	if gameToken == "" || playerToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token and pt required"})
		return
	}
	if manager == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "game manager not ready"})
		return
	}

	g, err := manager.GetGameByToken(gameToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}

	player := g.PlayerByToken(playerToken)
	if player == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid player token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	client := &Client{
		conn:       conn,
		playerID:   player.ID,
		opponentID: g.OpponentID(player.ID),
		gameID:     g.ID,
		gameToken:  gameToken,
		send:       make(chan []byte, 256),
	}

	GameHub.register <- client

	go client.writePump()
	go client.readPump()
}

// runGameHub runs the game hub with pool-specific game logic.
func runGameHub(h *Hub) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()

			isReconnect := false
			if oldClient, exists := h.clients[client.playerID]; exists {
				log.Printf("[WS] Player %s reconnecting - closing old connection", client.playerID)
				if err := oldClient.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced by new connection"), time.Now().Add(5*time.Second)); err != nil {
					log.Printf("Error writing close control to old client %s: %v", oldClient.playerID, err)
				}
				oldClient.conn.Close()
				select {
				case <-oldClient.send:
				default:
					close(oldClient.send)
				}
				delete(h.clients, client.playerID)
				if room, exists := h.gameRooms[oldClient.gameID]; exists {
					delete(room, client.playerID)
				}
				isReconnect = true
			}

			h.clients[client.playerID] = client
			if _, exists := h.gameRooms[client.gameID]; !exists {
				h.gameRooms[client.gameID] = make(map[string]*Client)
			}
			h.gameRooms[client.gameID][client.playerID] = client
			h.mu.Unlock()

			log.Printf("[WS] Player %s connected to game %s", client.playerID, client.gameID)

			g, err := manager.GetGameByToken(client.gameToken)
			if err != nil {
				log.Printf("[WS] Game not found for token %s: %v", client.gameToken, err)
				continue
			}

			client.opponentID = g.OpponentID(client.playerID)
			g.SetPlayerConnected(client.playerID, true)

			state := g.StateForPlayer(client.playerID)
			state["type"] = "game_state"
			h.SendToPlayer(client.playerID, state)

			if client.opponentID != "" {
				oppState := g.StateForPlayer(client.opponentID)
				oppState["type"] = "game_state"
				h.SendToPlayer(client.opponentID, oppState)
			}

			if isReconnect && g.Status == game.StatusInProgress {
				h.BroadcastToGame(client.gameID, map[string]interface{}{
					"type":    "player_connected",
					"player":  client.playerID,
					"message": "Opponent connected",
				})
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[client.playerID]; ok && cur == client {
				delete(h.clients, client.playerID)
				if room, exists := h.gameRooms[client.gameID]; exists {
					delete(room, client.playerID)
					if len(room) == 0 {
						delete(h.gameRooms, client.gameID)
					}
				}

				log.Printf("[WS] Player %s disconnected from game %s", client.playerID, client.gameID)

				if g, err := manager.GetGameByToken(client.gameToken); err == nil {
					g.SetPlayerConnected(client.playerID, false)
					if g.Status == game.StatusInProgress && wsConfig != nil {
						graceSeconds := wsConfig.DisconnectGracePeriodSecs
						h.BroadcastToGame(client.gameID, map[string]interface{}{
							"type":          "player_disconnected",
							"player":        client.playerID,
							"grace_seconds": graceSeconds,
							"message":       fmt.Sprintf("Opponent disconnected. Waiting %d seconds...", graceSeconds),
						})
					}
				}

				select {
				case <-client.send:
				default:
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// readPump reads messages for pool games.
func (c *Client) readPump() {
	defer func() {
		GameHub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error (unexpected) for player %s: %v", c.playerID, err)
			} else {
				log.Printf("WebSocket read error for player %s: %v", c.playerID, err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		c.handleMessage(msg)
	}
}

// handleMessage processes incoming pool game messages.
func (c *Client) handleMessage(msg WSMessage) {
	g, err := manager.GetGameByToken(c.gameToken)
	if err != nil {
		c.sendError("Game not found")
		return
	}

	switch msg.Type {
	case "take_shot":
		var data TakeShotData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid shot data")
			return
		}
		c.handleTakeShot(g, data)

	case "place_cue_ball":
		var data PlaceCueBallData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid placement data")
			return
		}
		c.handlePlaceCueBall(g, data)

	case "get_state":
		state := g.StateForPlayer(c.playerID)
		state["type"] = "game_state"
		d, _ := json.Marshal(state)
		c.send <- d

	case "concede":
		c.handleConcede(g)

	default:
		c.sendError("Unknown message type")
	}
}

// handleTakeShot processes a take_shot message.
func (c *Client) handleTakeShot(g *game.GameSession, data TakeShotData) {
	params := game.ShotParams{
		Angle:        data.Angle,
		Power:        data.Power,
		SideSpin:     data.SideSpin,
		TopSpin:      data.TopSpin,
		CalledPocket: data.CalledPocket,
	}

	// Relay shot params to opponent immediately (before physics simulation)
	// so they can start client-side animation while server computes the result
	GameHub.SendToPlayer(c.opponentID, map[string]interface{}{
		"type":        "shot_relay",
		"player":      c.playerID,
		"shot_params": params,
	})

	outcome, err := g.TakeShot(c.playerID, params)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	// Broadcast the full shot result: keyframes drive the client animation,
	// the summary carries the rules verdict.
	GameHub.BroadcastToGame(c.gameID, map[string]interface{}{
		"type":        "shot_result",
		"player":      c.playerID,
		"shot_number": outcome.ShotNumber,
		"shot_params": params,
		"keyframes":   outcome.Keyframes,
		"summary":     outcome.Summary,
	})

	c.broadcastGameState(g)

	if shooter := playerByID(g, c.playerID); shooter != nil {
		manager.RecordShot(g.SessionID, shooter.DBPlayerID, outcome.ShotNumber, params, outcome.Summary)
	}
	manager.SaveGameToRedis(g)

	if g.Status == game.StatusCompleted {
		GameHub.BroadcastToGame(c.gameID, map[string]interface{}{
			"type":     "game_over",
			"winner":   g.WinnerID,
			"win_type": g.WinType,
		})
		manager.SaveFinalGameState(g)
		manager.PublishGameEvent(map[string]interface{}{
			"type":       "game_completed",
			"game_id":    g.ID,
			"game_token": g.Token,
			"winner":     g.WinnerID,
			"win_type":   g.WinType,
		})
	}
}

// handlePlaceCueBall processes cue ball placement.
func (c *Client) handlePlaceCueBall(g *game.GameSession, data PlaceCueBallData) {
	if err := g.PlaceCueBall(c.playerID, data.X, data.Y); err != nil {
		c.sendError(err.Error())
		return
	}

	GameHub.BroadcastToGame(c.gameID, map[string]interface{}{
		"type":   "ball_placed",
		"player": c.playerID,
		"x":      data.X,
		"y":      data.Y,
	})

	c.broadcastGameState(g)
	manager.SaveGameToRedis(g)
}

// handleConcede processes a concede in a pool game.
func (c *Client) handleConcede(g *game.GameSession) {
	if g.Status != game.StatusInProgress {
		c.sendError("Game is not in progress")
		return
	}

	g.Forfeit(c.playerID, "concede")

	GameHub.BroadcastToGame(c.gameID, map[string]interface{}{
		"type":    "player_conceded",
		"player":  c.playerID,
		"message": "Player conceded",
	})

	c.broadcastGameState(g)
	manager.SaveFinalGameState(g)
}

// broadcastGameState sends personalized state to each player.
func (c *Client) broadcastGameState(g *game.GameSession) {
	for _, p := range g.Players {
		if p == nil {
			continue
		}
		state := g.StateForPlayer(p.ID)
		state["type"] = "game_update"
		GameHub.SendToPlayer(p.ID, state)
	}
}

func playerByID(g *game.GameSession, playerID string) *game.Player {
	for _, p := range g.Players {
		if p != nil && p.ID == playerID {
			return p
		}
	}
	return nil
}
