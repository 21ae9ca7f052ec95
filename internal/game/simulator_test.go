package game

import (
	"math"
	"testing"
)

// sparseState returns a racked state with every ball lifted off the table
// except the cue ball, which the caller positions.
func sparseState(cueX, cueY float64) TableState {
	s := NewTableState()
	for i := range s.Balls {
		s.Balls[i].InPlay = false
	}
	s.Balls[CueBallID].InPlay = true
	s.Balls[CueBallID].Position = NewVec2(cueX, cueY)
	return s
}

func placeBall(s *TableState, id int, x, y float64) {
	s.Balls[id].InPlay = true
	s.Balls[id].Position = NewVec2(x, y)
}

func countEvents(keyframes []KeyFrame, eventType string) int {
	n := 0
	for _, kf := range keyframes {
		for _, e := range kf.Events {
			if e.Type == eventType {
				n++
			}
		}
	}
	return n
}

func TestSimulateRequiresCueBall(t *testing.T) {
	s := NewTableState()
	s.Balls[CueBallID].InPlay = false

	if _, err := Simulate(s, ShotParams{Power: 0.5}); err == nil {
		t.Fatal("expected error when cue ball is not in play")
	}
}

func TestZeroPowerSettlesImmediately(t *testing.T) {
	s := sparseState(1.0, 0.5)

	res, err := Simulate(s, ShotParams{Power: 0})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	if got := res.FinalState.Balls[CueBallID].Position; got != NewVec2(1.0, 0.5) {
		t.Errorf("cue ball moved on a zero-power shot: %+v", got)
	}
	if len(res.Keyframes) < 2 {
		t.Errorf("expected at least initial + final keyframe, got %d", len(res.Keyframes))
	}
	if res.Facts.FirstContact != NoContact {
		t.Errorf("expected no contact, got %d", res.Facts.FirstContact)
	}
	// The settle debounce should end the shot within a handful of frames.
	last := res.Keyframes[len(res.Keyframes)-1]
	if last.Time > 0.5 {
		t.Errorf("zero-power shot took %.3fs to settle", last.Time)
	}
}

func TestStraightShotHitsTargetBall(t *testing.T) {
	s := sparseState(0.6, TableHeight/2)
	placeBall(&s, 1, 1.2, TableHeight/2)

	res, err := Simulate(s, ShotParams{Angle: 0, Power: 0.7})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	if res.Facts.FirstContact != 1 {
		t.Errorf("first contact = %d, want ball 1", res.Facts.FirstContact)
	}
	if countEvents(res.Keyframes, EventBallBall) == 0 {
		t.Error("expected at least one ball_ball event")
	}
	// A near-full-power straight hit sends the object ball into the far rail.
	if !res.Facts.RailAfterContact {
		t.Error("expected a rail hit after contact")
	}
	moved := res.FinalState.Balls[1].Position.DistanceTo(NewVec2(1.2, TableHeight/2))
	if moved < BallRadius {
		t.Errorf("target ball barely moved: %.4fm", moved)
	}
}

func TestStraightShotIntoPocket(t *testing.T) {
	// Aim the cue ball straight at the bottom-right corner pocket.
	s := sparseState(1.4, 0.8)
	pocket := NewVec2(TableWidth, TableHeight)
	angle := math.Atan2(pocket.Y-0.8, pocket.X-1.4)

	res, err := Simulate(s, ShotParams{Angle: angle, Power: 0.8})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	if !res.Facts.Scratch {
		t.Fatal("expected the cue ball to be pocketed")
	}
	if !containsBall(res.Facts.Pocketed, CueBallID) {
		t.Error("cue ball missing from pocketed list")
	}
	if res.FinalState.Balls[CueBallID].InPlay {
		t.Error("pocketed cue ball still in play")
	}

	found := false
	for _, kf := range res.Keyframes {
		for _, e := range kf.Events {
			if e.Type == EventBallPocket && e.BallID == CueBallID {
				found = true
				if e.Speed <= 0 {
					t.Errorf("pocket event speed = %f, want > 0", e.Speed)
				}
			}
		}
	}
	if !found {
		t.Error("no ball_pocket event recorded")
	}
}

func TestCollisionLosesEnergyAndSeparates(t *testing.T) {
	// Two overlapping balls with the cue ball approaching: resolution must
	// not create energy and must push the pair apart.
	s := sparseState(1.0, 0.5)
	placeBall(&s, 1, 1.0+2*BallRadius-0.002, 0.5)

	sim := newSimulation(s, ShotParams{Angle: 0, Power: 0.5})

	before := sim.balls[0].Velocity.MagnitudeSquared() + sim.balls[1].Velocity.MagnitudeSquared()
	sim.resolveBallCollisions()
	after := sim.balls[0].Velocity.MagnitudeSquared() + sim.balls[1].Velocity.MagnitudeSquared()

	if after > before+1e-9 {
		t.Errorf("kinetic energy increased: before=%.6f after=%.6f", before, after)
	}

	dist := sim.balls[0].Position.DistanceTo(sim.balls[1].Position)
	if dist < 2*BallRadius-1e-9 {
		t.Errorf("balls still overlap after resolution: dist=%.6f", dist)
	}
	if sim.facts.FirstContact != 1 {
		t.Errorf("first contact = %d, want 1", sim.facts.FirstContact)
	}
}

func TestCushionBounceReflects(t *testing.T) {
	// Straight at the middle of the right rail, away from any pocket mouth.
	s := sparseState(1.8, TableHeight/2)

	res, err := Simulate(s, ShotParams{Angle: 0, Power: 0.5})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	if countEvents(res.Keyframes, EventBallCushion) == 0 {
		t.Fatal("expected at least one cushion event")
	}
	if res.Facts.RailAfterContact {
		t.Error("rail-after-contact must not trigger before the first ball contact")
	}
	final := res.FinalState.Balls[CueBallID].Position
	if final.X > TableWidth-BallRadius+1e-9 {
		t.Errorf("cue ball ended inside the cushion: x=%.4f", final.X)
	}
	for _, kf := range res.Keyframes {
		for _, e := range kf.Events {
			if e.Type == EventBallCushion && e.Speed <= 0 {
				t.Errorf("cushion event with non-positive speed: %f", e.Speed)
			}
		}
	}
}

func TestNoPersistentOverlapAfterBreak(t *testing.T) {
	res, err := Simulate(NewTableState(), ShotParams{Angle: 0, Power: 1})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	balls := res.FinalState.Balls
	for i := 0; i < NumBalls; i++ {
		for j := i + 1; j < NumBalls; j++ {
			if !balls[i].InPlay || !balls[j].InPlay {
				continue
			}
			d := balls[i].Position.DistanceTo(balls[j].Position)
			if d < 2*BallRadius-1e-6 {
				t.Errorf("balls %d and %d overlap at rest: dist=%.6f", i, j, d)
			}
		}
	}
}

func TestBreakScattersRack(t *testing.T) {
	rack := RackPositions()
	res, err := Simulate(NewTableState(), ShotParams{Angle: 0, Power: 1})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	if got := countEvents(res.Keyframes, EventBallBall); got < 3 {
		t.Errorf("expected at least 3 ball-ball collisions on the break, got %d", got)
	}

	moved := 0
	for i := 1; i < NumBalls; i++ {
		if res.FinalState.Balls[i].Position.DistanceTo(rack[i]) > BallRadius {
			moved++
		}
	}
	if moved < 3 {
		t.Errorf("expected at least 3 balls displaced by the break, got %d", moved)
	}
	if res.Facts.FirstContact == NoContact {
		t.Error("break shot recorded no first contact")
	}
}

func TestSimulationIsDeterministic(t *testing.T) {
	run := func() [NumBalls]Vec2 {
		res, err := Simulate(NewTableState(), ShotParams{Angle: 0.01, Power: 1, SideSpin: 0.3, TopSpin: -0.2})
		if err != nil {
			t.Fatalf("Simulate: %v", err)
		}
		var out [NumBalls]Vec2
		for i, b := range res.FinalState.Balls {
			out[i] = b.Position
		}
		return out
	}

	first := run()
	second := run()
	for i := 0; i < NumBalls; i++ {
		if first[i] != second[i] {
			t.Errorf("ball %d diverged between identical runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestPocketedListGrowsMonotonically(t *testing.T) {
	s := sparseState(1.4, 0.8)
	s.Pocketed = []int{3, 7}
	pocket := NewVec2(TableWidth, TableHeight)
	angle := math.Atan2(pocket.Y-0.8, pocket.X-1.4)

	res, err := Simulate(s, ShotParams{Angle: angle, Power: 0.8})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	if len(res.FinalState.Pocketed) < len(s.Pocketed) {
		t.Fatal("pocketed list shrank")
	}
	for i, id := range s.Pocketed {
		if res.FinalState.Pocketed[i] != id {
			t.Errorf("pocketed history reordered at %d: %v", i, res.FinalState.Pocketed)
		}
	}
}

func TestFinalKeyframeMatchesFinalState(t *testing.T) {
	s := sparseState(0.6, TableHeight/2)
	placeBall(&s, 5, 1.3, 0.4)

	res, err := Simulate(s, ShotParams{Angle: -0.2, Power: 0.6})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	last := res.Keyframes[len(res.Keyframes)-1]
	for i, snap := range last.Balls {
		b := res.FinalState.Balls[i]
		if snap.X != b.Position.X || snap.Y != b.Position.Y || snap.InPlay != b.InPlay {
			t.Errorf("final keyframe diverges from final state for ball %d", i)
		}
	}

	// Keyframes are cadence-bounded: consecutive on-cadence frames are at
	// least the keyframe interval apart.
	for i := 1; i < len(res.Keyframes)-1; i++ {
		dt := res.Keyframes[i].Time - res.Keyframes[i-1].Time
		if dt < KeyframeEvery-TimeStep {
			t.Errorf("keyframes %d and %d only %.4fs apart", i-1, i, dt)
		}
	}
}

func TestVelocitiesZeroInFinalState(t *testing.T) {
	res, err := Simulate(NewTableState(), ShotParams{Angle: 0, Power: 0.9})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	for _, b := range res.FinalState.Balls {
		if !b.Velocity.IsZero() {
			t.Errorf("ball %d stored with nonzero velocity: %+v", b.ID, b.Velocity)
		}
	}
}
