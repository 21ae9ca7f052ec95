package game

// Seat identifies one of the two players at the table. The rules engine only
// ever deals in seats; mapping seats to connected players is the session's
// concern.
type Seat int

const (
	SeatNone Seat = -1
	SeatOne  Seat = 0
	SeatTwo  Seat = 1
)

func (s Seat) Opponent() Seat {
	switch s {
	case SeatOne:
		return SeatTwo
	case SeatTwo:
		return SeatOne
	}
	return SeatNone
}

// Phase is the per-game rules state machine.
type Phase string

const (
	PhaseAwaitingBreak Phase = "AWAITING_BREAK"
	PhaseAiming        Phase = "AIMING"
	PhaseBallInHand    Phase = "BALL_IN_HAND"
	PhaseFinished      Phase = "FINISHED"
)

// BallGroup is a seat's assigned group of object balls.
type BallGroup string

const (
	GroupNone    BallGroup = ""
	GroupSolids  BallGroup = "SOLIDS"
	GroupStripes BallGroup = "STRIPES"
)

// Spin carries the cue ball's 2D spin state: side (english) and top/back
// (follow/draw) components, normalized -1..1 at the moment of the stroke.
type Spin struct {
	Side float64 `json:"side"`
	Top  float64 `json:"top"`
}

// Ball is the persisted state of a single ball. Balls that are not in play
// keep their last-known position for pocket-animation bookkeeping but take no
// further part in physics.
type Ball struct {
	ID       int     `json:"id"`
	Position Vec2    `json:"position"`
	Velocity Vec2    `json:"velocity"`
	Spin     Spin    `json:"spin"`
	InPlay   bool    `json:"in_play"`
}

// ShotParams is the validated input for a shot. Power is normalized 0..1 and
// mapped to initial speed through a nonlinear curve; spin components are
// normalized -1..1.
type ShotParams struct {
	Angle        float64 `json:"angle"` // radians
	Power        float64 `json:"power"`
	SideSpin     float64 `json:"side_spin"`
	TopSpin      float64 `json:"top_spin"`
	CalledPocket *int    `json:"called_pocket,omitempty"`
}

// Foul classifies an illegal shot. Fouls are successful outcomes, not errors.
type Foul string

const (
	FoulNone           Foul = ""
	FoulScratch        Foul = "SCRATCH"
	FoulNoContact      Foul = "NO_CONTACT"
	FoulNoRail         Foul = "NO_RAIL"
	FoulWrongBallFirst Foul = "WRONG_BALL_FIRST"
	FoulEarly8Pocket   Foul = "EARLY_8_POCKET"
)

// NoContact is the FirstContact sentinel for a shot that struck nothing.
const NoContact = -1

// ShotFacts are the raw physical facts of a completed shot, as observed by
// the simulator. The rules engine derives the full summary from them.
type ShotFacts struct {
	FirstContact     int         `json:"first_contact"` // ball ID, or NoContact
	Pocketed         []int       `json:"pocketed"`      // in pocketing order
	Scratch          bool        `json:"scratch"`
	RailAfterContact bool        `json:"rail_after_contact"`
	PocketIndex      map[int]int `json:"pocket_index"` // ball ID -> pocket ID
}

// ShotSummary is the rules engine's verdict on a shot, kept on the state for
// UI display. It is never mutated after creation except by the documented
// break-respot special case.
type ShotSummary struct {
	FirstContact int         `json:"first_contact"`
	Pocketed     []int       `json:"pocketed"`
	Scratch      bool        `json:"scratch"`
	Foul         Foul        `json:"foul,omitempty"`
	FoulReason   string      `json:"foul_reason,omitempty"`
	TurnChanged  bool        `json:"turn_changed"`
	GameOver     bool        `json:"game_over"`
	Winner       Seat        `json:"winner"`
	PocketIndex  map[int]int `json:"pocket_index,omitempty"`
}

// TableState is the complete persisted game state. It is replaced wholesale
// after every shot rather than mutated in place, so consumers can diff old
// against new for animation.
type TableState struct {
	Balls              [NumBalls]Ball `json:"balls"`
	Pocketed           []int          `json:"pocketed"` // append-only history
	Groups             [2]BallGroup   `json:"groups"`   // indexed by Seat
	OpenTable          bool           `json:"open_table"`
	Turn               Seat           `json:"turn"`
	Phase              Phase          `json:"phase"`
	BallInHand         bool           `json:"ball_in_hand"`
	BallInHandAnywhere bool           `json:"ball_in_hand_anywhere"`
	Winner             Seat           `json:"winner"`
	LastSummary        *ShotSummary   `json:"last_summary,omitempty"`
}

// NewTableState racks the balls and returns the initial state: seat one
// breaks on an open table.
func NewTableState() TableState {
	s := TableState{
		OpenTable: true,
		Turn:      SeatOne,
		Phase:     PhaseAwaitingBreak,
		Winner:    SeatNone,
		Pocketed:  []int{},
	}
	rack := RackPositions()
	for i := 0; i < NumBalls; i++ {
		s.Balls[i] = Ball{ID: i, Position: rack[i], InPlay: true}
	}
	return s
}

// Clone deep-copies the state, including the pocketed history and summary.
func (s TableState) Clone() TableState {
	next := s
	next.Pocketed = append([]int(nil), s.Pocketed...)
	if s.LastSummary != nil {
		sum := *s.LastSummary
		sum.Pocketed = append([]int(nil), s.LastSummary.Pocketed...)
		if s.LastSummary.PocketIndex != nil {
			sum.PocketIndex = make(map[int]int, len(s.LastSummary.PocketIndex))
			for k, v := range s.LastSummary.PocketIndex {
				sum.PocketIndex[k] = v
			}
		}
		next.LastSummary = &sum
	}
	return next
}

// BallGroupOf returns the group a numbered ball belongs to. The cue ball and
// the 8-ball belong to neither group.
func BallGroupOf(id int) BallGroup {
	switch {
	case id >= 1 && id <= 7:
		return GroupSolids
	case id >= 9 && id <= 15:
		return GroupStripes
	}
	return GroupNone
}

func otherGroup(g BallGroup) BallGroup {
	if g == GroupSolids {
		return GroupStripes
	}
	return GroupSolids
}

// GroupCleared reports whether no ball of the given group remains in play.
func (s *TableState) GroupCleared(g BallGroup) bool {
	if g != GroupSolids && g != GroupStripes {
		return false
	}
	for _, b := range s.Balls {
		if b.InPlay && BallGroupOf(b.ID) == g {
			return false
		}
	}
	return true
}

func containsBall(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeBall(ids []int, id int) []int {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
