package game

// Physics and table constants for 8-ball pool. Positions are meters in a
// table-local frame with the origin at the head-rail/left-rail corner of the
// playing area. The pocket radii and pull strength are gameplay tuning, not
// derived physics.

const (
	NumBalls    = 16 // 0=cue, 1-7=solids, 8=eight, 9-15=stripes
	CueBallID   = 0
	EightBallID = 8

	// Playing area of a 7-foot table.
	TableWidth  = 2.24
	TableHeight = 1.12
	BallRadius  = 0.028575

	// Fixed-timestep integration.
	TimeStep      = 1.0 / 240.0
	MaxFrames     = 30000 // hard cap, ~125s of simulated time
	SettleFrames  = 10    // consecutive settled frames before the shot ends
	MinVelocity   = 0.02  // m/s; below this a ball is snapped to rest
	KeyframeEvery = 0.033 // seconds between animation keyframes

	// Two-regime cloth friction.
	Gravity             = 9.8
	SlidingFriction     = 0.2
	RollingFriction     = 0.015
	RollTransitionSpeed = 0.6 // m/s; below this a ball transitions to rolling
	SpinDecay           = 0.985

	// Collision response.
	BallRestitution    = 0.95
	CushionRestitution = 0.75
	SeparationEpsilon  = 0.0001
	MinRailSpeed       = 0.05 // cushion impacts slower than this don't count as a rail

	// Shot power curve: speed = power^PowerExponent * MaxShotSpeed.
	PowerExponent = 1.3
	MaxShotSpeed  = 7.0

	// Spin effect strengths.
	ThrowFactor            = 0.12
	FollowDrawFactor       = 0.4
	SideSpinCushionFactor  = 0.25
	SideSpinCushionDamping = 0.5

	// Pocket capture heuristic: inside the mouth radius a ball is pulled
	// toward the pocket center, inside the capture radius it drops.
	PocketMouthRadius   = 0.10
	PocketCaptureRadius = 0.05
	PocketPullAccel     = 3.0

	// Table landmarks.
	HeadStringX = TableWidth * 0.25
	FootSpotX   = TableWidth * 0.75
)
