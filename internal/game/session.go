package game

import (
	"errors"
	"log"
	"sync"
	"time"
)

// GameStatus is the lifecycle of a session, distinct from the rules phase.
type GameStatus string

const (
	StatusWaiting    GameStatus = "WAITING"
	StatusInProgress GameStatus = "IN_PROGRESS"
	StatusCompleted  GameStatus = "COMPLETED"
	StatusCancelled  GameStatus = "CANCELLED"
)

// Player is one seated participant in a game session.
type Player struct {
	ID             string     `json:"id"`
	DisplayName    string     `json:"display_name,omitempty"`
	DBPlayerID     int        `json:"db_player_id,omitempty"`
	PlayerToken    string     `json:"-"`
	Seat           Seat       `json:"seat"`
	Connected      bool       `json:"connected"`
	DisconnectedAt *time.Time `json:"-"`
}

// ShotOutcome bundles everything a single accepted shot produced, for
// broadcast and persistence.
type ShotOutcome struct {
	ShotNumber int          `json:"shot_number"`
	Keyframes  []KeyFrame   `json:"keyframes"`
	Summary    *ShotSummary `json:"summary"`
	State      TableState   `json:"state"`
}

// GameSession owns one live game: two seated players and the authoritative
// TableState. All access goes through the mutex; the simulator and rules
// engine themselves are pure and never see the session.
type GameSession struct {
	ID        string     `json:"id"`
	Token     string     `json:"token"`
	Players   [2]*Player `json:"players"`
	State     TableState `json:"state"`
	Status    GameStatus `json:"status"`
	WinnerID  string     `json:"winner_id,omitempty"`
	WinType   string     `json:"win_type,omitempty"`
	ShotNum   int        `json:"shot_number"`
	SessionID int        `json:"session_id,omitempty"`

	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	LastActivity time.Time  `json:"last_activity"`

	mu sync.RWMutex
}

// NewGameSession seats two players; seat one breaks.
func NewGameSession(id, token string, p1, p2 *Player) *GameSession {
	p1.Seat = SeatOne
	p2.Seat = SeatTwo
	now := time.Now()
	return &GameSession{
		ID:           id,
		Token:        token,
		Players:      [2]*Player{p1, p2},
		Status:       StatusWaiting,
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Initialize racks the balls and starts play. Idempotent.
func (g *GameSession) Initialize() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Status == StatusInProgress {
		return
	}
	g.State = NewTableState()
	g.ShotNum = 0
	now := time.Now()
	g.StartedAt = &now
	g.Status = StatusInProgress
	g.LastActivity = now
	log.Printf("[POOL] game %s initialized, %s breaks", g.ID, g.Players[SeatOne].ID)
}

// TakeShot validates, simulates and scores one shot. Validation failures are
// caller-contract errors (stale state, out-of-turn submission), never fouls.
func (g *GameSession) TakeShot(playerID string, params ShotParams) (*ShotOutcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Status != StatusInProgress {
		return nil, errors.New("game is not in progress")
	}
	seat, ok := g.seatOf(playerID)
	if !ok {
		return nil, errors.New("player is not in this game")
	}
	if g.State.Turn != seat {
		return nil, errors.New("not your turn")
	}
	if g.State.BallInHand {
		return nil, errors.New("place the cue ball first")
	}
	if params.Power < 0 || params.Power > 1 {
		return nil, errors.New("invalid power")
	}
	if params.SideSpin < -1 || params.SideSpin > 1 || params.TopSpin < -1 || params.TopSpin > 1 {
		return nil, errors.New("invalid spin")
	}

	prev := g.State
	res, err := Simulate(prev, params)
	if err != nil {
		return nil, err
	}
	summary := DeriveSummary(prev, res.Facts)
	g.State = ApplyRules(res.FinalState, summary)
	g.ShotNum++
	g.LastActivity = time.Now()

	if summary.GameOver {
		g.Status = StatusCompleted
		g.WinnerID = g.Players[summary.Winner].ID
		g.WinType = "pocket_8"
		if summary.Winner != seat {
			g.WinType = "illegal_8"
		}
		now := time.Now()
		g.CompletedAt = &now
	}

	log.Printf("[POOL] shot #%d by %s: pocketed=%v foul=%q turnChanged=%v gameOver=%v",
		g.ShotNum, playerID, summary.Pocketed, summary.Foul, summary.TurnChanged, summary.GameOver)

	return &ShotOutcome{
		ShotNumber: g.ShotNum,
		Keyframes:  res.Keyframes,
		Summary:    summary,
		State:      g.State,
	}, nil
}

// PlaceCueBall resolves ball-in-hand. The placement is confined to the
// kitchen unless the foul granted placement anywhere.
func (g *GameSession) PlaceCueBall(playerID string, x, y float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	seat, ok := g.seatOf(playerID)
	if !ok {
		return errors.New("player is not in this game")
	}
	if g.State.Turn != seat {
		return errors.New("not your turn")
	}
	if !g.State.BallInHand {
		return errors.New("not ball-in-hand")
	}

	p := NewVec2(x, y)
	if !OnTable(p) {
		return errors.New("position out of bounds")
	}
	if !g.State.BallInHandAnywhere && !InKitchen(p) {
		return errors.New("cue ball must be placed behind the head string")
	}
	for _, b := range g.State.Balls {
		if !b.InPlay || b.ID == CueBallID {
			continue
		}
		if p.DistanceTo(b.Position) < 2*BallRadius {
			return errors.New("overlapping another ball")
		}
	}

	next := g.State.Clone()
	next.Balls[CueBallID] = Ball{ID: CueBallID, Position: p, InPlay: true}
	next.BallInHand = false
	next.BallInHandAnywhere = false
	next.Phase = PhaseAiming
	g.State = next
	g.LastActivity = time.Now()

	log.Printf("[POOL] cue ball placed at (%.3f, %.3f) by %s", x, y, playerID)
	return nil
}

// Forfeit ends the game in the opponent's favor.
func (g *GameSession) Forfeit(losingPlayerID, winType string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Status == StatusCompleted {
		return
	}
	seat, ok := g.seatOf(losingPlayerID)
	if !ok {
		return
	}
	winner := seat.Opponent()
	g.WinnerID = g.Players[winner].ID
	g.WinType = winType
	g.Status = StatusCompleted
	next := g.State.Clone()
	next.Winner = winner
	next.Phase = PhaseFinished
	g.State = next
	now := time.Now()
	g.CompletedAt = &now
}

// StateForPlayer renders the state from one player's perspective.
func (g *GameSession) StateForPlayer(playerID string) map[string]interface{} {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seat, ok := g.seatOf(playerID)
	if !ok {
		seat = SeatOne
	}
	me := g.Players[seat]
	opp := g.Players[seat.Opponent()]

	return map[string]interface{}{
		"game_id":               g.ID,
		"token":                 g.Token,
		"status":                g.Status,
		"my_id":                 me.ID,
		"opponent_id":           opp.ID,
		"my_display_name":       me.DisplayName,
		"opponent_display_name": opp.DisplayName,
		"my_connected":          me.Connected,
		"opponent_connected":    opp.Connected,
		"my_group":              g.State.Groups[seat],
		"opponent_group":        g.State.Groups[seat.Opponent()],
		"balls":                 g.State.Balls,
		"pocketed":              g.State.Pocketed,
		"open_table":            g.State.OpenTable,
		"phase":                 g.State.Phase,
		"my_turn":               g.State.Turn == seat && g.Status == StatusInProgress,
		"ball_in_hand":          g.State.BallInHand,
		"ball_in_hand_anywhere": g.State.BallInHandAnywhere,
		"shot_number":           g.ShotNum,
		"last_summary":          g.State.LastSummary,
		"winner_id":             g.WinnerID,
		"win_type":              g.WinType,
	}
}

// CurrentState returns a deep copy of the authoritative state.
func (g *GameSession) CurrentState() TableState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.State.Clone()
}

func (g *GameSession) SetPlayerConnected(playerID string, connected bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range g.Players {
		if p.ID == playerID {
			p.Connected = connected
			if connected {
				p.DisconnectedAt = nil
			} else {
				now := time.Now()
				p.DisconnectedAt = &now
			}
		}
	}
}

func (g *GameSession) OpponentID(playerID string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if seat, ok := g.seatOf(playerID); ok {
		return g.Players[seat.Opponent()].ID
	}
	return ""
}

func (g *GameSession) PlayerByToken(token string) *Player {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, p := range g.Players {
		if p.PlayerToken == token {
			return p
		}
	}
	return nil
}

func (g *GameSession) seatOf(playerID string) (Seat, bool) {
	for _, p := range g.Players {
		if p.ID == playerID {
			return p.Seat, true
		}
	}
	return SeatNone, false
}
