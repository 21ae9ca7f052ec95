package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Player is a registered account.
type Player struct {
	ID           int          `db:"id" json:"id"`
	Username     string       `db:"username" json:"username"`
	DisplayName  string       `db:"display_name" json:"display_name"`
	PasswordHash string       `db:"password_hash" json:"-"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	GamesPlayed  int          `db:"games_played" json:"games_played"`
	GamesWon     int          `db:"games_won" json:"games_won"`
	LastActive   sql.NullTime `db:"last_active" json:"last_active,omitempty"`
}

// GameSession is the persisted record of one game between two players.
type GameSession struct {
	ID          int            `db:"id" json:"id"`
	GameToken   string         `db:"game_token" json:"game_token"`
	Player1ID   sql.NullInt64  `db:"player1_id" json:"player1_id,omitempty"`
	Player2ID   sql.NullInt64  `db:"player2_id" json:"player2_id,omitempty"`
	Status      string         `db:"status" json:"status"`
	WinnerID    sql.NullInt64  `db:"winner_id" json:"winner_id,omitempty"`
	WinType     sql.NullString `db:"win_type" json:"win_type,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	CompletedAt sql.NullTime   `db:"completed_at" json:"completed_at,omitempty"`
}

// Shot is one recorded stroke: the input parameters and the rules verdict,
// both stored as JSONB.
type Shot struct {
	ID         int             `db:"id" json:"id"`
	SessionID  int             `db:"session_id" json:"session_id"`
	PlayerID   sql.NullInt64   `db:"player_id" json:"player_id,omitempty"`
	ShotNumber int             `db:"shot_number" json:"shot_number"`
	ShotParams json.RawMessage `db:"shot_params" json:"shot_params"`
	Summary    json.RawMessage `db:"summary" json:"summary"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
