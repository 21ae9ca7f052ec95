package game

// The rules engine is a pure function of (previous state, shot facts). It
// holds no state of its own and is safe to call from any goroutine.

// DeriveSummary classifies a finished shot against the state the shot was
// taken from. Foul rules are evaluated in priority order; the first match
// wins. The early-8 check runs independently because it changes the game-over
// interpretation even when another foul is primary.
func DeriveSummary(state TableState, facts ShotFacts) *ShotSummary {
	shooter := state.Turn

	sum := &ShotSummary{
		FirstContact: facts.FirstContact,
		Pocketed:     append([]int(nil), facts.Pocketed...),
		Scratch:      facts.Scratch,
		Winner:       SeatNone,
		PocketIndex:  make(map[int]int, len(facts.PocketIndex)),
	}
	for k, v := range facts.PocketIndex {
		sum.PocketIndex[k] = v
	}

	switch {
	case facts.Scratch:
		sum.Foul = FoulScratch
		sum.FoulReason = "cue ball pocketed"
	case facts.FirstContact == NoContact:
		sum.Foul = FoulNoContact
		sum.FoulReason = "cue ball struck no ball"
	case !facts.RailAfterContact && len(facts.Pocketed) == 0:
		// A pocketed ball always satisfies the "something happened" bar.
		sum.Foul = FoulNoRail
		sum.FoulReason = "no ball reached a rail after contact"
	case wrongBallFirst(&state, shooter, facts.FirstContact):
		sum.Foul = FoulWrongBallFirst
		if facts.FirstContact == EightBallID {
			sum.FoulReason = "hit the 8-ball before clearing own group"
		} else {
			sum.FoulReason = "hit an opponent ball first"
		}
	}

	eightPocketed := containsBall(facts.Pocketed, EightBallID)

	// Early 8: the shooter's assigned group still had balls on the table when
	// the 8 dropped. Evaluated against the pre-shot state, so clearing the
	// last group ball and the 8 on the same stroke is still early.
	early8 := eightPocketed &&
		state.Groups[shooter] != GroupNone &&
		!state.GroupCleared(state.Groups[shooter])
	if early8 && sum.Foul == FoulNone {
		sum.Foul = FoulEarly8Pocket
		sum.FoulReason = "8-ball pocketed before clearing own group"
	}

	// Pocketing the 8-ball always ends the game. The shooter wins only with
	// a cleared group and no scratch; an unassigned group counts as uncleared.
	if eightPocketed {
		sum.GameOver = true
		legal := state.Groups[shooter] != GroupNone &&
			state.GroupCleared(state.Groups[shooter]) &&
			!facts.Scratch
		if legal {
			sum.Winner = shooter
		} else {
			sum.Winner = shooter.Opponent()
		}
	}

	objectPocketed := false
	for _, id := range facts.Pocketed {
		if id != CueBallID {
			objectPocketed = true
			break
		}
	}
	sum.TurnChanged = !sum.GameOver && (sum.Foul != FoulNone || !objectPocketed)

	return sum
}

// wrongBallFirst applies only once the table is closed and the shooter has a
// group: the first contact must be that group, or the 8-ball once the group
// is cleared.
func wrongBallFirst(state *TableState, shooter Seat, first int) bool {
	if state.OpenTable {
		return false
	}
	grp := state.Groups[shooter]
	if grp == GroupNone {
		return false
	}
	if first == EightBallID {
		return !state.GroupCleared(grp)
	}
	return BallGroupOf(first) != grp
}

// ApplyRules folds a summary into the simulator's final state and returns the
// replacement TableState. The input state is not mutated; the summary is,
// only for the documented break-respot case.
func ApplyRules(state TableState, sum *ShotSummary) TableState {
	next := state.Clone()
	shooter := next.Turn
	breaking := next.Phase == PhaseAwaitingBreak

	// Break-specific handling of a pocketed 8: a scratch-accompanied break
	// pocket loses outright, otherwise the 8 respots to the foot spot and
	// play continues as if it never dropped.
	if breaking && containsBall(sum.Pocketed, EightBallID) {
		if sum.Scratch {
			sum.GameOver = true
			sum.Winner = shooter.Opponent()
		} else {
			sum.Pocketed = removeBall(sum.Pocketed, EightBallID)
			delete(sum.PocketIndex, EightBallID)
			next.Pocketed = removeBall(next.Pocketed, EightBallID)
			next.Balls[EightBallID].InPlay = true
			next.Balls[EightBallID].Position = FootSpot()
			next.Balls[EightBallID].Velocity = Vec2{}
			sum.GameOver = false
			sum.Winner = SeatNone
			if sum.Foul == FoulEarly8Pocket {
				sum.Foul = FoulNone
				sum.FoulReason = ""
			}
			// Re-derive the turn decision from the amended pocket list.
			objectPocketed := false
			for _, id := range sum.Pocketed {
				if id != CueBallID {
					objectPocketed = true
					break
				}
			}
			sum.TurnChanged = sum.Foul != FoulNone || !objectPocketed
		}
	}

	// Group assignment: once, on the first legal pocket of an open table. If
	// both groups drop in one shot the first-listed ball's group wins the
	// tie-break.
	if next.OpenTable && sum.Foul == FoulNone && !sum.GameOver {
		for _, id := range sum.Pocketed {
			if id == CueBallID || id == EightBallID {
				continue
			}
			grp := BallGroupOf(id)
			next.Groups[shooter] = grp
			next.Groups[shooter.Opponent()] = otherGroup(grp)
			next.OpenTable = false
			break
		}
	}

	switch {
	case sum.GameOver:
		next.Winner = sum.Winner
		next.Phase = PhaseFinished
		next.BallInHand = false
		next.BallInHandAnywhere = false
	case sum.Foul != FoulNone:
		next.Turn = shooter.Opponent()
		next.Phase = PhaseBallInHand
		next.BallInHand = true
		next.BallInHandAnywhere = sum.Scratch || breaking
		if sum.Scratch {
			// Cue ball returns to play awaiting placement.
			next.Balls[CueBallID].InPlay = true
		}
	default:
		if sum.TurnChanged {
			next.Turn = shooter.Opponent()
		}
		next.Phase = PhaseAiming
		next.BallInHand = false
		next.BallInHandAnywhere = false
	}

	next.LastSummary = sum
	return next
}
