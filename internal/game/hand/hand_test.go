package hand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/truco-paulista/internal/apperrors"
	"github.com/palemoky/truco-paulista/internal/game/card"
)

func c(id string) card.Card {
	parsed, err := card.ParseID(id)
	if err != nil {
		panic(err)
	}
	return parsed
}

func cards(ids ...string) []card.Card {
	out := make([]card.Card, len(ids))
	for i, id := range ids {
		out[i] = c(id)
	}
	return out
}

// dealFixed deals a stacked hand with vira 7♣ (manilha Q) and seat 1 starting.
func dealFixed(t *testing.T, hands [Seats][]card.Card) *Hand {
	t.Helper()
	deck := StackDeck(c("7♣"), hands)
	h, err := Deal(&deck, 1)
	require.NoError(t, err)
	return h
}

func play(t *testing.T, h *Hand, seat int, id string) Step {
	t.Helper()
	step, err := h.Play(seat, c(id))
	require.NoError(t, err, "seat %d playing %s", seat, id)
	return step
}

func TestDeal_ConsumesThirteenCards(t *testing.T) {
	t.Parallel()

	deck := card.NewShuffledDeck()
	top := deck[0]

	h, err := Deal(&deck, 1)
	require.NoError(t, err)

	assert.Len(t, deck, card.DeckSize-13)
	assert.Equal(t, top, h.Vira())
	assert.Equal(t, card.NextRank(top.Rank), h.Manilha())
	for seat := range Seats {
		assert.Len(t, h.Cards(seat), CardsPerPlayer)
	}
	assert.Equal(t, 1, h.TurnSeat())
	assert.Equal(t, 1, h.Stake())
	assert.Equal(t, StatusPlaying, h.Status())
	assert.Empty(t, h.Table())
}

func TestDeal_ShortDeck(t *testing.T) {
	t.Parallel()

	deck := card.NewDeck()[:12]
	_, err := Deal(&deck, 0)
	assert.Error(t, err)
}

func TestPlay_TurnOrderWrapsFromStarter(t *testing.T) {
	t.Parallel()

	deck := card.NewShuffledDeck()
	h, err := Deal(&deck, 3)
	require.NoError(t, err)

	expected := []int{3, 0, 1, 2}
	for _, seat := range expected {
		require.Equal(t, seat, h.TurnSeat())
		_, err := h.Play(seat, h.Cards(seat)[0])
		require.NoError(t, err)
	}
	assert.Len(t, h.Trick(0), Seats)
}

func TestPlay_Rejections(t *testing.T) {
	t.Parallel()

	h := dealFixed(t, [Seats][]card.Card{
		cards("4♣", "5♣", "6♣"),
		cards("4♥", "5♥", "6♥"),
		cards("4♠", "5♠", "6♠"),
		cards("4♦", "5♦", "6♦"),
	})

	_, err := h.Play(0, c("4♣"))
	assert.ErrorIs(t, err, apperrors.ErrNotYourTurn)

	_, err = h.Play(1, c("4♣"))
	assert.ErrorIs(t, err, apperrors.ErrCardNotFound)

	play(t, h, 1, "4♥")
	_, err = h.Play(2, c("4♥"))
	assert.ErrorIs(t, err, apperrors.ErrCardNotFound)
	assert.Len(t, h.Cards(1), 2)
}

func TestPlay_ManilhaWinsTrickAndTakesTurn(t *testing.T) {
	t.Parallel()

	h := dealFixed(t, [Seats][]card.Card{
		cards("3♣", "4♣", "5♣"),
		cards("2♥", "4♥", "5♥"),
		cards("Q♠", "4♠", "5♠"), // manilha
		cards("A♦", "4♦", "5♦"),
	})

	play(t, h, 1, "2♥")
	play(t, h, 2, "Q♠")
	play(t, h, 3, "A♦")
	step := play(t, h, 0, "3♣")

	require.True(t, step.TrickComplete)
	winner, ok := step.TrickWinner.Get()
	require.True(t, ok)
	assert.Equal(t, Team0, winner)
	assert.Equal(t, 2, step.WinningSeat)
	assert.False(t, step.HandOver)

	assert.Equal(t, [2]int{1, 0}, h.TrickWins())
	assert.Equal(t, 1, h.CurrentTrick())
	assert.Equal(t, 2, h.TurnSeat())
	assert.Empty(t, h.Table())
}

func TestHand_FinishesAfterTwoWins(t *testing.T) {
	t.Parallel()

	h := dealFixed(t, [Seats][]card.Card{
		cards("3♣", "3♥", "4♣"),
		cards("4♥", "5♥", "6♥"),
		cards("5♠", "6♠", "7♠"),
		cards("4♦", "5♦", "6♦"),
	})

	play(t, h, 1, "4♥")
	play(t, h, 2, "5♠")
	play(t, h, 3, "4♦")
	step := play(t, h, 0, "3♣")
	require.False(t, step.HandOver)
	require.Equal(t, StatusPlaying, h.Status())

	play(t, h, 0, "3♥")
	play(t, h, 1, "5♥")
	play(t, h, 2, "6♠")
	step = play(t, h, 3, "5♦")

	require.True(t, step.HandOver)
	assert.Equal(t, StatusFinished, h.Status())
	assert.Equal(t, Result{Winner: Team0, Stake: 1, Reason: EndByTricks}, step.Result)
	assert.Len(t, h.Table(), Seats, "last trick stays on the table")

	res, ok := h.Result()
	require.True(t, ok)
	assert.Equal(t, Team0, res.Winner)

	_, err := h.Play(0, c("4♣"))
	assert.ErrorIs(t, err, apperrors.ErrHandInactive)
}

func TestHand_ThirdTrickTieGoesToFirstDecisiveTrick(t *testing.T) {
	t.Parallel()

	// Trick 1: team 0 wins with 3♣ (seat 0).
	// Trick 2: team 1 wins with 3♥ (seat 1).
	// Trick 3: 2♣ (seat 1) and 2♠ (seat 2) tie.
	h := dealFixed(t, [Seats][]card.Card{
		cards("3♣", "4♣", "5♣"),
		cards("4♥", "3♥", "2♣"),
		cards("4♠", "5♠", "2♠"),
		cards("4♦", "5♦", "6♦"),
	})

	play(t, h, 1, "4♥")
	play(t, h, 2, "4♠")
	play(t, h, 3, "4♦")
	play(t, h, 0, "3♣")
	require.Equal(t, 0, h.TurnSeat())

	play(t, h, 0, "4♣")
	play(t, h, 1, "3♥")
	play(t, h, 2, "5♠")
	step := play(t, h, 3, "5♦")
	require.False(t, step.HandOver)
	require.Equal(t, 1, h.TurnSeat())

	play(t, h, 1, "2♣")
	play(t, h, 2, "2♠")
	play(t, h, 3, "6♦")
	step = play(t, h, 0, "5♣")

	require.True(t, step.HandOver)
	_, decisive := step.TrickWinner.Get()
	assert.False(t, decisive)
	assert.Equal(t, [2]int{1, 1}, h.TrickWins())
	assert.Equal(t, Team0, step.Result.Winner)
	assert.Equal(t, EndByTricks, step.Result.Reason)
}

func TestHand_TiedTrickCreditsLastDecisiveTeam(t *testing.T) {
	t.Parallel()

	// Trick 1: team 1 wins (seat 3 with 3♦). Trick 2 ties and is credited to
	// team 1, which then holds two wins.
	h := dealFixed(t, [Seats][]card.Card{
		cards("4♣", "2♣", "5♣"),
		cards("4♥", "5♥", "6♥"),
		cards("4♠", "2♠", "5♠"),
		cards("3♦", "6♦", "7♦"),
	})

	play(t, h, 1, "4♥")
	play(t, h, 2, "4♠")
	play(t, h, 3, "3♦")
	play(t, h, 0, "4♣")
	require.Equal(t, 3, h.TurnSeat())

	play(t, h, 3, "6♦")
	play(t, h, 0, "2♣")
	play(t, h, 1, "5♥")
	step := play(t, h, 2, "2♠")

	require.True(t, step.HandOver)
	assert.Equal(t, [2]int{0, 2}, h.TrickWins())
	assert.Equal(t, []MaybeTeam{SomeTeam(Team1), NoTeam()}, h.Outcomes())
	assert.Equal(t, Team1, step.Result.Winner)
}

func TestHand_FirstTrickTieKeepsTurnWithLastPlayer(t *testing.T) {
	t.Parallel()

	h := dealFixed(t, [Seats][]card.Card{
		cards("3♣", "4♣", "5♣"),
		cards("4♥", "5♥", "6♥"),
		cards("4♠", "5♠", "6♠"),
		cards("3♦", "6♦", "7♦"),
	})

	play(t, h, 1, "4♥")
	play(t, h, 2, "4♠")
	play(t, h, 3, "3♦")
	step := play(t, h, 0, "3♣")

	require.True(t, step.TrickComplete)
	_, decisive := step.TrickWinner.Get()
	assert.False(t, decisive)
	assert.Equal(t, [2]int{0, 0}, h.TrickWins(), "no decisive trick yet, no credit")
	assert.Equal(t, 0, h.TurnSeat())
	assert.Equal(t, 1, h.CurrentTrick())
	assert.Equal(t, StatusPlaying, h.Status())
}

func TestHand_AllTiedFallsBackToTeamZero(t *testing.T) {
	t.Parallel()

	h := dealFixed(t, [Seats][]card.Card{
		cards("3♣", "2♣", "A♣"),
		cards("4♥", "5♥", "6♥"),
		cards("4♠", "5♠", "6♠"),
		cards("3♦", "2♦", "A♦"),
	})

	// Every trick ties, so no team is ever credited.
	play(t, h, 1, "4♥")
	play(t, h, 2, "4♠")
	play(t, h, 3, "3♦")
	play(t, h, 0, "3♣")

	play(t, h, 0, "2♣")
	play(t, h, 1, "5♥")
	play(t, h, 2, "5♠")
	step := play(t, h, 3, "2♦")
	require.False(t, step.HandOver)
	require.Equal(t, 3, h.TurnSeat())

	play(t, h, 3, "A♦")
	play(t, h, 0, "A♣")
	play(t, h, 1, "6♥")
	step = play(t, h, 2, "6♠")

	require.True(t, step.HandOver)
	assert.Equal(t, [2]int{0, 0}, h.TrickWins())
	assert.Equal(t, Team0, step.Result.Winner)
}
