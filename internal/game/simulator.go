package game

import (
	"errors"
	"math"
)

// SimulationResult is everything a single shot produces: the settled table
// for persistence, keyframes for animation playback, and the raw facts the
// rules engine consumes.
type SimulationResult struct {
	FinalState TableState `json:"final_state"`
	Keyframes  []KeyFrame `json:"keyframes"`
	Facts      ShotFacts  `json:"facts"`
}

// simBall is simulation-scoped ball state. The transient flags never leak
// into the persisted TableState.
type simBall struct {
	Ball
	isRolling bool
}

type simulation struct {
	balls   [NumBalls]*simBall
	pockets [6]Pocket

	elapsed      float64
	lastKeyframe float64
	keyframes    []KeyFrame
	pending      []KeyFrameEvent

	facts          ShotFacts
	cueContactMade bool
}

// Simulate runs a complete shot to rest and returns the result. It fails only
// on a caller-contract violation (cue ball not in play); every gameplay
// outcome, fouls included, is a normal return.
func Simulate(state TableState, params ShotParams) (*SimulationResult, error) {
	if !state.Balls[CueBallID].InPlay {
		return nil, errors.New("cue ball is not in play")
	}

	s := newSimulation(state, params)

	settled := 0
	for frame := 0; frame < MaxFrames; frame++ {
		if s.allSettled() {
			settled++
			if settled >= SettleFrames {
				break
			}
		} else {
			settled = 0
		}

		if s.elapsed-s.lastKeyframe >= KeyframeEvery {
			s.emitKeyframe()
		}

		s.integrate()
		s.resolveBallCollisions()
		s.applyPockets()
		s.resolveCushions()

		s.elapsed += TimeStep
	}

	// Final keyframe always, so the last recorded positions match the true
	// resting state and no event is lost.
	s.emitKeyframe()

	final := state.Clone()
	for i, b := range s.balls {
		final.Balls[i].Position = b.Position
		final.Balls[i].Velocity = Vec2{}
		final.Balls[i].Spin = Spin{}
		final.Balls[i].InPlay = b.InPlay
	}
	final.Pocketed = append(final.Pocketed, s.facts.Pocketed...)

	return &SimulationResult{
		FinalState: final,
		Keyframes:  s.keyframes,
		Facts:      s.facts,
	}, nil
}

func newSimulation(state TableState, params ShotParams) *simulation {
	s := &simulation{
		pockets:      TablePockets(),
		lastKeyframe: -KeyframeEvery, // force a keyframe at t=0
		facts: ShotFacts{
			FirstContact: NoContact,
			Pocketed:     []int{},
			PocketIndex:  make(map[int]int),
		},
	}

	for i := 0; i < NumBalls; i++ {
		b := state.Balls[i]
		b.Velocity = Vec2{}
		b.Spin = Spin{}
		s.balls[i] = &simBall{Ball: b}
	}

	// Low power maps to a disproportionately low speed for finer control.
	speed := math.Pow(clamp(params.Power, 0, 1), PowerExponent) * MaxShotSpeed
	cue := s.balls[CueBallID]
	cue.Velocity = NewVec2(math.Cos(params.Angle)*speed, math.Sin(params.Angle)*speed)
	cue.Spin = Spin{
		Side: clamp(params.SideSpin, -1, 1),
		Top:  clamp(params.TopSpin, -1, 1),
	}

	return s
}

func (s *simulation) allSettled() bool {
	for _, b := range s.balls {
		if b.InPlay && b.Velocity.Magnitude() >= MinVelocity {
			return false
		}
	}
	return true
}

func (s *simulation) emitKeyframe() {
	kf := KeyFrame{Time: s.elapsed, Events: s.pending}
	for i, b := range s.balls {
		kf.Balls[i] = BallSnapshot{ID: b.ID, X: b.Position.X, Y: b.Position.Y, InPlay: b.InPlay}
	}
	s.keyframes = append(s.keyframes, kf)
	s.pending = nil
	s.lastKeyframe = s.elapsed
}

func (s *simulation) addEvent(e KeyFrameEvent) {
	s.pending = append(s.pending, e)
}

// integrate advances positions one step and applies the two-regime friction
// model: sliding above the roll-transition speed, rolling below it. The
// transition is one-way until a cushion or ball impact disrupts the roll.
func (s *simulation) integrate() {
	for _, b := range s.balls {
		if !b.InPlay {
			continue
		}

		b.Position = b.Position.Plus(b.Velocity.Times(TimeStep))

		speed := b.Velocity.Magnitude()
		if speed > 0 {
			if !b.isRolling && speed <= RollTransitionSpeed {
				b.isRolling = true
			}
			decel := SlidingFriction * Gravity * TimeStep
			if b.isRolling {
				decel = RollingFriction * Gravity * TimeStep
			}
			remaining := speed - decel
			if remaining < MinVelocity {
				b.Velocity = Vec2{} // snap to rest, no eternal micro-drift
			} else {
				b.Velocity = b.Velocity.Times(remaining / speed)
			}
		}

		// Cloth friction bleeds off spin regardless of regime.
		b.Spin.Side *= SpinDecay
		b.Spin.Top *= SpinDecay
	}
}

// resolveBallCollisions resolves every overlapping pair as an equal-mass
// collision along the line of centers. Pair iteration is ball-ID ordered so
// simultaneous contacts resolve deterministically.
func (s *simulation) resolveBallCollisions() {
	for i := 0; i < NumBalls; i++ {
		a := s.balls[i]
		if !a.InPlay {
			continue
		}
		for j := i + 1; j < NumBalls; j++ {
			b := s.balls[j]
			if !b.InPlay {
				continue
			}

			delta := b.Position.Minus(a.Position)
			dist := delta.Magnitude()
			if dist >= 2*BallRadius || dist < 1e-12 {
				continue
			}

			n := delta.Times(1 / dist)
			approach := a.Velocity.Minus(b.Velocity).Dot(n)
			if approach <= 0 {
				continue // already separating
			}

			s.collideBalls(a, b, n, dist, approach)
		}
	}
}

func (s *simulation) collideBalls(a, b *simBall, n Vec2, dist, approach float64) {
	aVelBefore := a.Velocity

	// Equal-mass impulse along the contact normal, restitution < 1.
	impulse := (1 + BallRestitution) * approach / 2
	a.Velocity = a.Velocity.Minus(n.Times(impulse))
	b.Velocity = b.Velocity.Plus(n.Times(impulse))

	// Separate by half the penetration each, plus a hair so the pair doesn't
	// re-trigger next frame.
	push := (2*BallRadius-dist)/2 + SeparationEpsilon
	a.Position = a.Position.Minus(n.Times(push))
	b.Position = b.Position.Plus(n.Times(push))

	a.isRolling = false
	b.isRolling = false

	contact := a.Position.Plus(n.Times(BallRadius))
	s.addEvent(KeyFrameEvent{
		Type:     EventBallBall,
		BallID:   a.ID,
		TargetID: b.ID,
		Speed:    approach,
		Position: contact,
	})

	// The cue ball has ID 0, so in ID-ordered pair iteration it is always the
	// first of the pair.
	if !s.cueContactMade && a.ID == CueBallID {
		s.cueContactMade = true
		s.facts.FirstContact = b.ID

		// Throw: side spin deflects the struck ball off the line of centers.
		perp := n.LeftNormal()
		b.Velocity = b.Velocity.Plus(perp.Times(ThrowFactor * a.Spin.Side * approach))

		// Follow/draw: top spin accelerates the cue ball along its travel
		// direction after contact, back spin pulls it back.
		travel := aVelBefore.Normalize()
		if travel.IsZero() {
			travel = n
		}
		a.Velocity = a.Velocity.Plus(travel.Times(FollowDrawFactor * a.Spin.Top * approach))
	}
}

// applyPockets runs before cushions because pocket mouths are gaps in the
// cushion wall. Inside the mouth radius a ball is pulled toward the pocket
// center with a linear falloff; inside the capture radius it drops.
func (s *simulation) applyPockets() {
	for _, b := range s.balls {
		if !b.InPlay {
			continue
		}
		for _, p := range s.pockets {
			d := b.Position.DistanceTo(p.Position)
			if d < PocketCaptureRadius {
				speed := b.Velocity.Magnitude()
				b.InPlay = false
				b.Velocity = Vec2{}
				s.facts.Pocketed = append(s.facts.Pocketed, b.ID)
				s.facts.PocketIndex[b.ID] = p.ID
				if b.ID == CueBallID {
					s.facts.Scratch = true
				}
				s.addEvent(KeyFrameEvent{
					Type:     EventBallPocket,
					BallID:   b.ID,
					TargetID: p.ID,
					Speed:    speed,
					Position: p.Position,
				})
				break
			}
			if d < PocketMouthRadius && d > 1e-12 {
				pull := PocketPullAccel * (1 - d/PocketMouthRadius)
				dir := p.Position.Minus(b.Position).Times(1 / d)
				b.Velocity = b.Velocity.Plus(dir.Times(pull * TimeStep))
			}
		}
	}
}

// nearPocketMouth reports whether a position sits in a pocket's mouth zone,
// where no physical cushion spans the opening.
func (s *simulation) nearPocketMouth(p Vec2) bool {
	for _, pk := range s.pockets {
		if p.DistanceTo(pk.Position) < PocketMouthRadius {
			return true
		}
	}
	return false
}

// resolveCushions reflects balls off the four playing-area edges: clamp to
// the boundary, invert the edge-normal velocity component scaled by the
// cushion restitution, and deflect the tangential component by side spin.
func (s *simulation) resolveCushions() {
	for _, b := range s.balls {
		if !b.InPlay || s.nearPocketMouth(b.Position) {
			continue
		}

		if b.Position.X < BallRadius {
			b.Position.X = BallRadius
			if b.Velocity.X < 0 {
				impact := -b.Velocity.X
				b.Velocity.X = impact * CushionRestitution
				b.Velocity.Y += SideSpinCushionFactor * b.Spin.Side * impact
				s.railImpact(b, impact)
			}
		}
		if b.Position.X > TableWidth-BallRadius {
			b.Position.X = TableWidth - BallRadius
			if b.Velocity.X > 0 {
				impact := b.Velocity.X
				b.Velocity.X = -impact * CushionRestitution
				b.Velocity.Y -= SideSpinCushionFactor * b.Spin.Side * impact
				s.railImpact(b, impact)
			}
		}
		if b.Position.Y < BallRadius {
			b.Position.Y = BallRadius
			if b.Velocity.Y < 0 {
				impact := -b.Velocity.Y
				b.Velocity.Y = impact * CushionRestitution
				b.Velocity.X -= SideSpinCushionFactor * b.Spin.Side * impact
				s.railImpact(b, impact)
			}
		}
		if b.Position.Y > TableHeight-BallRadius {
			b.Position.Y = TableHeight - BallRadius
			if b.Velocity.Y > 0 {
				impact := b.Velocity.Y
				b.Velocity.Y = -impact * CushionRestitution
				b.Velocity.X += SideSpinCushionFactor * b.Spin.Side * impact
				s.railImpact(b, impact)
			}
		}
	}
}

// railImpact records the shared consequences of any cushion hit: the roll
// state is disrupted, side spin is partly spent, and a hard enough hit after
// the cue ball's first contact satisfies the no-rail rule.
func (s *simulation) railImpact(b *simBall, impact float64) {
	b.isRolling = false
	b.Spin.Side *= SideSpinCushionDamping
	s.addEvent(KeyFrameEvent{
		Type:     EventBallCushion,
		BallID:   b.ID,
		Speed:    impact,
		Position: b.Position,
	})
	if impact > MinRailSpeed && s.cueContactMade {
		s.facts.RailAfterContact = true
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
