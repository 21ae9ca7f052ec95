package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closedTable returns a mid-game state: groups assigned, shooter on seat one.
func closedTable(shooterGroup BallGroup) TableState {
	s := NewTableState()
	s.Phase = PhaseAiming
	s.OpenTable = false
	s.Groups[SeatOne] = shooterGroup
	s.Groups[SeatTwo] = otherGroup(shooterGroup)
	return s
}

func factsWith(first int, pocketed ...int) ShotFacts {
	return ShotFacts{
		FirstContact:     first,
		Pocketed:         pocketed,
		RailAfterContact: true,
		PocketIndex:      map[int]int{},
	}
}

func TestNoContactFoul(t *testing.T) {
	s := NewTableState()
	s.Phase = PhaseAiming

	sum := DeriveSummary(s, ShotFacts{FirstContact: NoContact, PocketIndex: map[int]int{}})

	assert.Equal(t, FoulNoContact, sum.Foul)
	assert.True(t, sum.TurnChanged)
	assert.False(t, sum.GameOver)
}

func TestNoRailFoul(t *testing.T) {
	s := closedTable(GroupSolids)

	facts := ShotFacts{FirstContact: 1, RailAfterContact: false, PocketIndex: map[int]int{}}
	sum := DeriveSummary(s, facts)
	assert.Equal(t, FoulNoRail, sum.Foul)

	// A pocketed ball satisfies the requirement even without a rail.
	facts.Pocketed = []int{1}
	sum = DeriveSummary(s, facts)
	assert.Equal(t, FoulNone, sum.Foul)
	assert.False(t, sum.TurnChanged)
}

func TestWrongBallFirstFoul(t *testing.T) {
	s := closedTable(GroupSolids)

	sum := DeriveSummary(s, factsWith(9))

	assert.Equal(t, FoulWrongBallFirst, sum.Foul)
	assert.True(t, sum.TurnChanged)
}

func TestEightBallFirstBeforeGroupCleared(t *testing.T) {
	s := closedTable(GroupSolids)

	sum := DeriveSummary(s, factsWith(EightBallID))
	assert.Equal(t, FoulWrongBallFirst, sum.Foul)

	// Once the group is cleared the 8-ball is a legal first contact.
	for id := 1; id <= 7; id++ {
		s.Balls[id].InPlay = false
	}
	sum = DeriveSummary(s, factsWith(EightBallID))
	assert.Equal(t, FoulNone, sum.Foul)
}

func TestEarlyEightLoss(t *testing.T) {
	s := closedTable(GroupSolids)

	sum := DeriveSummary(s, factsWith(1, EightBallID))

	assert.Equal(t, FoulEarly8Pocket, sum.Foul)
	assert.True(t, sum.GameOver)
	assert.Equal(t, SeatTwo, sum.Winner)
}

func TestLastGroupBallWithEightIsStillEarly(t *testing.T) {
	s := closedTable(GroupSolids)
	for id := 2; id <= 7; id++ {
		s.Balls[id].InPlay = false
	}

	// Pocketing the final solid and the 8 on the same stroke loses: the group
	// was not cleared before the 8 dropped.
	sum := DeriveSummary(s, factsWith(1, 1, EightBallID))

	assert.Equal(t, FoulEarly8Pocket, sum.Foul)
	assert.True(t, sum.GameOver)
	assert.Equal(t, SeatTwo, sum.Winner)
}

func TestLegalEightWins(t *testing.T) {
	s := closedTable(GroupSolids)
	for id := 1; id <= 7; id++ {
		s.Balls[id].InPlay = false
	}

	sum := DeriveSummary(s, factsWith(EightBallID, EightBallID))

	assert.Equal(t, FoulNone, sum.Foul)
	assert.True(t, sum.GameOver)
	assert.Equal(t, SeatOne, sum.Winner)
	assert.False(t, sum.TurnChanged)
}

func TestScratchOnEightLoses(t *testing.T) {
	s := closedTable(GroupSolids)
	for id := 1; id <= 7; id++ {
		s.Balls[id].InPlay = false
	}

	facts := factsWith(EightBallID, EightBallID, CueBallID)
	facts.Scratch = true
	sum := DeriveSummary(s, facts)

	assert.Equal(t, FoulScratch, sum.Foul)
	assert.True(t, sum.GameOver)
	assert.Equal(t, SeatTwo, sum.Winner)
}

func TestClassificationIsIdempotent(t *testing.T) {
	s := closedTable(GroupStripes)
	facts := factsWith(3, 9, 12)
	facts.Scratch = false

	first := DeriveSummary(s, facts)
	second := DeriveSummary(s, facts)

	require.Equal(t, first, second)
}

func TestGroupAssignmentOnOpenTable(t *testing.T) {
	s := NewTableState()
	s.Phase = PhaseAiming

	sum := DeriveSummary(s, factsWith(3, 3))
	next := ApplyRules(s, sum)

	assert.False(t, next.OpenTable)
	assert.Equal(t, GroupSolids, next.Groups[SeatOne])
	assert.Equal(t, GroupStripes, next.Groups[SeatTwo])
	assert.Equal(t, SeatOne, next.Turn, "legal pocket retains the turn")
	assert.Equal(t, PhaseAiming, next.Phase)
}

func TestGroupAssignmentTieBreak(t *testing.T) {
	s := NewTableState()
	s.Phase = PhaseAiming

	// Both groups dropped in one shot: the first-listed ball decides.
	sum := DeriveSummary(s, factsWith(9, 9, 3))
	next := ApplyRules(s, sum)

	assert.Equal(t, GroupStripes, next.Groups[SeatOne])
	assert.Equal(t, GroupSolids, next.Groups[SeatTwo])
}

func TestNoGroupAssignmentOnFoul(t *testing.T) {
	s := NewTableState()
	s.Phase = PhaseAiming

	facts := factsWith(3, 3, CueBallID)
	facts.Scratch = true
	sum := DeriveSummary(s, facts)
	next := ApplyRules(s, sum)

	assert.True(t, next.OpenTable)
	assert.Equal(t, GroupNone, next.Groups[SeatOne])
}

func TestScratchGivesBallInHandAnywhere(t *testing.T) {
	s := closedTable(GroupSolids)
	finalState := s.Clone()
	finalState.Balls[CueBallID].InPlay = false
	finalState.Pocketed = append(finalState.Pocketed, CueBallID)

	facts := factsWith(1, CueBallID)
	facts.Scratch = true
	sum := DeriveSummary(s, facts)
	next := ApplyRules(finalState, sum)

	assert.Equal(t, FoulScratch, sum.Foul)
	assert.Equal(t, SeatTwo, next.Turn)
	assert.Equal(t, PhaseBallInHand, next.Phase)
	assert.True(t, next.BallInHand)
	assert.True(t, next.BallInHandAnywhere)
	assert.True(t, next.Balls[CueBallID].InPlay, "cue ball returns to play awaiting placement")
}

func TestNonScratchFoulIsKitchenOnly(t *testing.T) {
	s := closedTable(GroupSolids)

	sum := DeriveSummary(s, ShotFacts{FirstContact: 1, PocketIndex: map[int]int{}})
	next := ApplyRules(s, sum)

	assert.Equal(t, FoulNoRail, sum.Foul)
	assert.True(t, next.BallInHand)
	assert.False(t, next.BallInHandAnywhere)
	assert.Equal(t, PhaseBallInHand, next.Phase)
}

func TestBreakRespotsEightBall(t *testing.T) {
	s := NewTableState() // AWAITING_BREAK
	finalState := s.Clone()
	finalState.Balls[EightBallID].InPlay = false
	finalState.Pocketed = append(finalState.Pocketed, EightBallID)

	facts := factsWith(1, EightBallID)
	sum := DeriveSummary(s, facts)
	require.True(t, sum.GameOver, "pre-break-handling verdict treats the 8 as decisive")

	next := ApplyRules(finalState, sum)

	assert.False(t, sum.GameOver, "break respot cancels the game-over verdict")
	assert.Equal(t, SeatNone, sum.Winner)
	assert.NotContains(t, sum.Pocketed, EightBallID)
	assert.NotContains(t, next.Pocketed, EightBallID, "the one documented monotonicity exception")
	assert.True(t, next.Balls[EightBallID].InPlay)
	assert.Equal(t, FootSpot(), next.Balls[EightBallID].Position)
	assert.Equal(t, PhaseAiming, next.Phase)
	assert.Equal(t, SeatTwo, next.Turn, "nothing left pocketed, so the turn passes")
}

func TestBreakScratchWithEightLoses(t *testing.T) {
	s := NewTableState()
	finalState := s.Clone()
	finalState.Balls[EightBallID].InPlay = false
	finalState.Balls[CueBallID].InPlay = false
	finalState.Pocketed = append(finalState.Pocketed, EightBallID, CueBallID)

	facts := factsWith(1, EightBallID, CueBallID)
	facts.Scratch = true
	sum := DeriveSummary(s, facts)
	next := ApplyRules(finalState, sum)

	assert.True(t, sum.GameOver)
	assert.Equal(t, SeatTwo, sum.Winner)
	assert.Equal(t, PhaseFinished, next.Phase)
	assert.Equal(t, SeatTwo, next.Winner)
}

func TestBreakFoulGivesPlacementAnywhere(t *testing.T) {
	s := NewTableState()

	sum := DeriveSummary(s, ShotFacts{FirstContact: NoContact, PocketIndex: map[int]int{}})
	next := ApplyRules(s, sum)

	assert.Equal(t, FoulNoContact, sum.Foul)
	assert.True(t, next.BallInHandAnywhere, "any break foul grants placement anywhere")
	assert.Equal(t, PhaseBallInHand, next.Phase)
}

func TestCleanBreakMovesToAiming(t *testing.T) {
	s := NewTableState()

	sum := DeriveSummary(s, factsWith(1))
	next := ApplyRules(s, sum)

	assert.Equal(t, FoulNone, sum.Foul)
	assert.Equal(t, PhaseAiming, next.Phase)
	assert.Equal(t, SeatTwo, next.Turn)
	assert.False(t, next.BallInHand)
}

func TestWrongBallFirstRequiresClosedTable(t *testing.T) {
	s := NewTableState()
	s.Phase = PhaseAiming

	// Open table: any first contact is legal.
	sum := DeriveSummary(s, factsWith(9))
	assert.Equal(t, FoulNone, sum.Foul)
	assert.True(t, sum.TurnChanged, "nothing pocketed, turn passes")
}
