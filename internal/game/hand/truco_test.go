package hand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/truco-paulista/internal/apperrors"
	"github.com/palemoky/truco-paulista/internal/game/card"
)

func newShuffledHand(t *testing.T, starter int) *Hand {
	t.Helper()
	deck := card.NewShuffledDeck()
	h, err := Deal(&deck, starter)
	require.NoError(t, err)
	return h
}

func TestCallTruco_BlocksPlaysUntilAnswered(t *testing.T) {
	t.Parallel()

	h := newShuffledHand(t, 1)

	bet, err := h.CallTruco(1)
	require.NoError(t, err)
	assert.Equal(t, Team1, bet.RequestingTeam)
	assert.Equal(t, Team0, bet.RespondingTeam)
	assert.Equal(t, 3, bet.ProposedStake())
	assert.Equal(t, 1, bet.CalledBy)

	pending, ok := h.Pending().Get()
	require.True(t, ok)
	assert.Equal(t, bet, pending)

	for seat := range Seats {
		_, err := h.Play(seat, h.Cards(seat)[0])
		assert.ErrorIs(t, err, apperrors.ErrTrucoPending, "seat %d", seat)
	}

	_, err = h.CallTruco(1)
	assert.ErrorIs(t, err, apperrors.ErrTrucoPending)
}

func TestRespondTruco_DeclineAwardsPreEscalationStake(t *testing.T) {
	t.Parallel()

	h := newShuffledHand(t, 1)
	_, err := h.CallTruco(1)
	require.NoError(t, err)

	_, err = h.RespondTruco(3, false)
	assert.ErrorIs(t, err, apperrors.ErrWrongTeam, "seat 3 plays with seat 1")

	step, err := h.RespondTruco(0, false)
	require.NoError(t, err)
	require.True(t, step.HandOver)
	assert.Equal(t, Result{Winner: Team1, Stake: 1, Reason: EndByDecline}, step.Result)
	assert.Equal(t, StatusFinished, h.Status())
	assert.Equal(t, 1, h.Stake())

	_, ok := h.Pending().Get()
	assert.False(t, ok)
}

func TestRespondTruco_DeclineAfterAcceptedRaiseAwardsRaisedStake(t *testing.T) {
	t.Parallel()

	h := newShuffledHand(t, 1)
	_, err := h.CallTruco(1)
	require.NoError(t, err)
	_, err = h.RespondTruco(0, true)
	require.NoError(t, err)
	require.Equal(t, 3, h.Stake())

	// Same seat still holds the turn and raises again to 6.
	bet, err := h.CallTruco(1)
	require.NoError(t, err)
	require.Equal(t, 6, bet.ProposedStake())

	step, err := h.RespondTruco(2, false)
	require.NoError(t, err)
	require.True(t, step.HandOver)
	assert.Equal(t, Result{Winner: Team1, Stake: 3, Reason: EndByDecline}, step.Result)
	assert.Equal(t, 3, h.Stake())
	assert.Equal(t, 1, h.Level())
}

func TestRespondTruco_DeclineByOpponentsOfTeamZero(t *testing.T) {
	t.Parallel()

	h := newShuffledHand(t, 0)
	_, err := h.CallTruco(0)
	require.NoError(t, err)

	step, err := h.RespondTruco(3, false)
	require.NoError(t, err)
	assert.Equal(t, Team0, step.Result.Winner)
	assert.Equal(t, 1, step.Result.Stake)
}

func TestRespondTruco_AcceptRaisesStakeAndKeepsTurn(t *testing.T) {
	t.Parallel()

	h := newShuffledHand(t, 1)
	_, err := h.CallTruco(1)
	require.NoError(t, err)

	step, err := h.RespondTruco(2, true)
	require.NoError(t, err)
	assert.False(t, step.HandOver)
	assert.Equal(t, 3, h.Stake())
	assert.Equal(t, 1, h.Level())
	assert.Equal(t, 1, h.TurnSeat())
	assert.Equal(t, StatusPlaying, h.Status())

	_, err = h.Play(1, h.Cards(1)[0])
	assert.NoError(t, err)
}

func TestTruco_LadderClimbsToTwelveAndStops(t *testing.T) {
	t.Parallel()

	h := newShuffledHand(t, 1)

	seen := []int{h.Stake()}
	for range MaxLevel {
		caller := h.TurnSeat()
		_, err := h.CallTruco(caller)
		require.NoError(t, err)
		_, err = h.RespondTruco((caller+1)%Seats, true)
		require.NoError(t, err)
		seen = append(seen, h.Stake())
	}

	assert.Equal(t, StakeLadder[:], seen)

	_, err := h.CallTruco(h.TurnSeat())
	assert.ErrorIs(t, err, apperrors.ErrStakeAtLimit)
}

func TestTruco_Rejections(t *testing.T) {
	t.Parallel()

	h := newShuffledHand(t, 1)

	_, err := h.RespondTruco(0, true)
	assert.ErrorIs(t, err, apperrors.ErrNoTrucoPending)

	_, err = h.CallTruco(2)
	assert.ErrorIs(t, err, apperrors.ErrNotYourTurn)

	_, err = h.CallTruco(1)
	require.NoError(t, err)
	_, err = h.RespondTruco(0, false)
	require.NoError(t, err)

	_, err = h.CallTruco(1)
	assert.ErrorIs(t, err, apperrors.ErrHandInactive)
}
