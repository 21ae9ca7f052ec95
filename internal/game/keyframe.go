package game

// KeyFrameEvent kinds. Events ride on keyframes so the client can trigger
// sounds and visual feedback at the right playback time.
const (
	EventBallBall    = "ball_ball"
	EventBallCushion = "ball_cushion"
	EventBallPocket  = "ball_pocket"
)

// KeyFrameEvent is a discrete collision or pocket event, discriminated by
// Type. TargetID is the other ball for ball_ball and the pocket ID for
// ball_pocket; it is unused for ball_cushion.
type KeyFrameEvent struct {
	Type     string  `json:"type"`
	BallID   int     `json:"ball_id"`
	TargetID int     `json:"target_id,omitempty"`
	Speed    float64 `json:"speed"`
	Position Vec2    `json:"position"`
}

// BallSnapshot is one ball's position and liveness inside a keyframe.
type BallSnapshot struct {
	ID     int     `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	InPlay bool    `json:"in_play"`
}

// KeyFrame is a timestamped snapshot of the whole table, emitted at a fixed
// cadence (not every physics tick) to bound message size. The final resting
// state is always the last keyframe, even off-cadence.
type KeyFrame struct {
	Time   float64                `json:"t"` // seconds since the stroke
	Balls  [NumBalls]BallSnapshot `json:"balls"`
	Events []KeyFrameEvent        `json:"events,omitempty"`
}
