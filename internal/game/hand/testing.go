package hand

import "github.com/palemoky/truco-paulista/internal/game/card"

// StackDeck 按发牌顺序排列的牌堆：vira 在顶，随后依次为座位 0..3 的手牌。
// 仅用于测试中构造确定的牌局。
func StackDeck(vira card.Card, hands [Seats][]card.Card) card.Deck {
	deck := card.Deck{vira}
	for _, h := range hands {
		deck = append(deck, h...)
	}
	return deck
}
