package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/truco-paulista/internal/game/card"
)

func TestCardToInfo(t *testing.T) {
	t.Parallel()

	info := CardToInfo(card.Card{Rank: card.RankJ, Suit: card.Hearts})

	assert.Equal(t, "J♥", info.ID)
	assert.Equal(t, "J", info.Rank)
	assert.Equal(t, "♥", info.Suit)
}

func TestCardsToInfos_KeepsOrder(t *testing.T) {
	t.Parallel()

	infos := CardsToInfos([]card.Card{
		{Rank: card.Rank3, Suit: card.Spades},
		{Rank: card.Rank4, Suit: card.Clubs},
	})

	require.Len(t, infos, 2)
	assert.Equal(t, "3♠", infos[0].ID)
	assert.Equal(t, "4♣", infos[1].ID)
}

func TestEmptyCards(t *testing.T) {
	t.Parallel()

	infos := CardsToInfos([]card.Card{})
	assert.Empty(t, infos)
	assert.NotNil(t, infos)
}
