package game

import "math"

// Pocket is one of the six pockets: four corners plus the midpoints of the
// two long rails.
type Pocket struct {
	ID       int  `json:"id"`
	Position Vec2 `json:"position"`
}

// TablePockets returns the six pocket centers in a fixed order. Pocket IDs
// are stable across the simulator, the rules engine and the client animation.
func TablePockets() [6]Pocket {
	return [6]Pocket{
		{ID: 0, Position: NewVec2(0, 0)},
		{ID: 1, Position: NewVec2(TableWidth/2, 0)},
		{ID: 2, Position: NewVec2(TableWidth, 0)},
		{ID: 3, Position: NewVec2(0, TableHeight)},
		{ID: 4, Position: NewVec2(TableWidth/2, TableHeight)},
		{ID: 5, Position: NewVec2(TableWidth, TableHeight)},
	}
}

// FootSpot is where the apex ball racks and where the 8-ball respots after a
// break pocket.
func FootSpot() Vec2 {
	return NewVec2(FootSpotX, TableHeight/2)
}

// HeadSpot is the default cue ball position behind the head string.
func HeadSpot() Vec2 {
	return NewVec2(HeadStringX, TableHeight/2)
}

// InKitchen reports whether a position lies behind the head string.
func InKitchen(p Vec2) bool {
	return p.X <= HeadStringX
}

// OnTable reports whether a ball centered at p fits inside the cushions.
func OnTable(p Vec2) bool {
	return p.X >= BallRadius && p.X <= TableWidth-BallRadius &&
		p.Y >= BallRadius && p.Y <= TableHeight-BallRadius
}

// RackPositions returns the initial positions for all 16 balls: the standard
// triangle with the apex on the foot spot and the 8-ball in the center of the
// third row. Offsets are fixed (no jitter) so both sides rack identically.
func RackPositions() [NumBalls]Vec2 {
	var pos [NumBalls]Vec2

	fx := FootSpotX
	cy := TableHeight / 2
	dx := 2 * BallRadius * (math.Sqrt(3) / 2) * 1.005 // row spacing, slight gap
	dy := BallRadius * 1.005                          // half the in-row spacing

	// Cue ball on the head spot.
	pos[0] = NewVec2(HeadStringX, cy)

	// Row 1: apex.
	pos[1] = NewVec2(fx, cy)

	// Row 2: one solid, one stripe.
	pos[2] = NewVec2(fx+dx, cy+dy)
	pos[15] = NewVec2(fx+dx, cy-dy)

	// Row 3: 8-ball in the middle.
	pos[8] = NewVec2(fx+2*dx, cy)
	pos[5] = NewVec2(fx+2*dx, cy+2*dy)
	pos[10] = NewVec2(fx+2*dx, cy-2*dy)

	// Row 4.
	pos[7] = NewVec2(fx+3*dx, cy+dy)
	pos[4] = NewVec2(fx+3*dx, cy+3*dy)
	pos[9] = NewVec2(fx+3*dx, cy-dy)
	pos[6] = NewVec2(fx+3*dx, cy-3*dy)

	// Row 5: back corners get one of each group.
	pos[11] = NewVec2(fx+4*dx, cy)
	pos[12] = NewVec2(fx+4*dx, cy+2*dy)
	pos[13] = NewVec2(fx+4*dx, cy-2*dy)
	pos[14] = NewVec2(fx+4*dx, cy+4*dy)
	pos[3] = NewVec2(fx+4*dx, cy-4*dy)

	return pos
}
