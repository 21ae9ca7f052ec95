package game

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/poolhall/backend/internal/config"
)

// GameManager is the explicit per-process registry of live sessions. It is
// owned by the transport layer's callers and handed around by reference; the
// simulator and rules engine never reach into it.
type GameManager struct {
	db  *sqlx.DB
	rdb *redis.Client
	cfg *config.Config

	games        map[string]*GameSession // gameID -> session
	byToken      map[string]string       // gameToken -> gameID
	playerToGame map[string]string       // playerID -> gameID
	mu           sync.RWMutex
}

func NewManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *GameManager {
	return &GameManager{
		db:           db,
		rdb:          rdb,
		cfg:          cfg,
		games:        make(map[string]*GameSession),
		byToken:      make(map[string]string),
		playerToGame: make(map[string]string),
	}
}

// CreateGame seats two players, racks the table and registers the session.
func (gm *GameManager) CreateGame(p1Name, p2Name string, p1DBID, p2DBID int) *GameSession {
	gameID := "g_" + randomToken(8)
	gameToken := randomToken(16)

	p1 := &Player{ID: "p1_" + randomToken(4), DisplayName: p1Name, DBPlayerID: p1DBID, PlayerToken: randomToken(16)}
	p2 := &Player{ID: "p2_" + randomToken(4), DisplayName: p2Name, DBPlayerID: p2DBID, PlayerToken: randomToken(16)}

	g := NewGameSession(gameID, gameToken, p1, p2)
	g.Initialize()

	gm.mu.Lock()
	gm.games[gameID] = g
	gm.byToken[gameToken] = gameID
	gm.playerToGame[p1.ID] = gameID
	gm.playerToGame[p2.ID] = gameID
	gm.mu.Unlock()

	if gm.db != nil {
		var sessionID int
		err := gm.db.Get(&sessionID,
			`INSERT INTO game_sessions (game_token, player1_id, player2_id, status, created_at)
			 VALUES ($1, $2, $3, $4, NOW()) RETURNING id`,
			gameToken, nullableID(p1DBID), nullableID(p2DBID), string(StatusInProgress))
		if err != nil {
			log.Printf("[DB] failed to insert game session %s: %v", gameID, err)
		} else {
			g.SessionID = sessionID
		}
	}

	gm.SaveGameToRedis(g)
	log.Printf("[POOL] game created: %s (token=%s)", gameID, gameToken)
	return g
}

func (gm *GameManager) GetGame(gameID string) (*GameSession, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	g, ok := gm.games[gameID]
	if !ok {
		return nil, errors.New("game not found")
	}
	return g, nil
}

func (gm *GameManager) GetGameByToken(token string) (*GameSession, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	id, ok := gm.byToken[token]
	if !ok {
		return nil, errors.New("game not found")
	}
	return gm.games[id], nil
}

// RecordShot appends one shot to the session's move log, shot parameters and
// verdict as JSONB.
func (gm *GameManager) RecordShot(sessionID, playerDBID, shotNumber int, params ShotParams, summary *ShotSummary) {
	if gm.db == nil || sessionID == 0 {
		return
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		log.Printf("[DB] failed to marshal shot params for session %d: %v", sessionID, err)
		return
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		log.Printf("[DB] failed to marshal shot summary for session %d: %v", sessionID, err)
		return
	}

	_, err = gm.db.Exec(
		`INSERT INTO shots (session_id, player_id, shot_number, shot_params, summary, created_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, NOW())`,
		sessionID, nullableID(playerDBID), shotNumber, string(paramsJSON), string(summaryJSON))
	if err != nil {
		log.Printf("[DB] failed to record shot for session %d: %v", sessionID, err)
	}
}

// SaveGameToRedis snapshots the live session for recovery and observability.
func (gm *GameManager) SaveGameToRedis(g *GameSession) {
	if gm.rdb == nil {
		return
	}
	data, err := json.Marshal(map[string]interface{}{
		"id":          g.ID,
		"token":       g.Token,
		"players":     g.Players,
		"state":       g.CurrentState(),
		"status":      g.Status,
		"shot_number": g.ShotNum,
		"winner_id":   g.WinnerID,
		"win_type":    g.WinType,
		"session_id":  g.SessionID,
	})
	if err != nil {
		log.Printf("[REDIS] failed to marshal game %s: %v", g.ID, err)
		return
	}
	ctx := context.Background()
	ttl := time.Duration(gm.cfg.GameExpiryMinutes) * time.Minute
	if err := gm.rdb.SetEx(ctx, "game:"+g.Token+":state", data, ttl).Err(); err != nil {
		log.Printf("[REDIS] failed to save game %s: %v", g.ID, err)
	}
}

// PublishGameEvent fans an event out to the WS layer via pub/sub.
func (gm *GameManager) PublishGameEvent(event map[string]interface{}) {
	if gm.rdb == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[REDIS] failed to marshal game event: %v", err)
		return
	}
	if err := gm.rdb.Publish(context.Background(), "game_events", data).Err(); err != nil {
		log.Printf("[REDIS] failed to publish game event: %v", err)
	}
}

// SaveFinalGameState records the completed game in Postgres and drops the
// session from the registry.
func (gm *GameManager) SaveFinalGameState(g *GameSession) {
	if gm.db != nil && g.SessionID != 0 {
		var winnerDBID interface{}
		for _, p := range g.Players {
			if p.ID == g.WinnerID && p.DBPlayerID > 0 {
				winnerDBID = p.DBPlayerID
			}
		}
		_, err := gm.db.Exec(
			`UPDATE game_sessions SET status=$1, winner_id=$2, win_type=$3, completed_at=NOW() WHERE id=$4`,
			string(g.Status), winnerDBID, g.WinType, g.SessionID)
		if err != nil {
			log.Printf("[DB] failed to save final state for session %d: %v", g.SessionID, err)
		}
		for _, p := range g.Players {
			if p.DBPlayerID <= 0 {
				continue
			}
			won := 0
			if p.ID == g.WinnerID {
				won = 1
			}
			if _, err := gm.db.Exec(
				`UPDATE players SET games_played = games_played + 1, games_won = games_won + $1 WHERE id = $2`,
				won, p.DBPlayerID); err != nil {
				log.Printf("[DB] failed to update player stats for %d: %v", p.DBPlayerID, err)
			}
		}
	}

	gm.SaveGameToRedis(g)

	gm.mu.Lock()
	delete(gm.games, g.ID)
	delete(gm.byToken, g.Token)
	for _, p := range g.Players {
		delete(gm.playerToGame, p.ID)
	}
	gm.mu.Unlock()
}

func randomToken(nBytes int) string {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing is unrecoverable for token generation
		panic(err)
	}
	return hex.EncodeToString(b)
}

func nullableID(id int) interface{} {
	if id <= 0 {
		return nil
	}
	return id
}
