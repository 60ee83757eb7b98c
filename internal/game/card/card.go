package card

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode/utf8"
)

// Suit 定义花色，常量顺序即马尼拉（manilha）之间的大小顺序
type Suit int

// Rank 定义点数，常量顺序即普通牌由弱到强的顺序
type Rank int

// Card 定义一张牌，点数+花色即其唯一标识
type Card struct {
	Rank Rank
	Suit Suit
}

const (
	Clubs    Suit = iota // 梅花 ♣
	Hearts               // 红心 ♥
	Spades               // 黑桃 ♠
	Diamonds             // 方块 ♦
)

// suitSymbols 花色符号映射表
var suitSymbols = map[Suit]string{
	Clubs:    "♣",
	Hearts:   "♥",
	Spades:   "♠",
	Diamonds: "♦",
}

func (s Suit) String() string {
	if symbol, ok := suitSymbols[s]; ok {
		return symbol
	}
	return ""
}

const (
	Rank4 Rank = iota
	Rank5
	Rank6
	Rank7
	RankQ
	RankJ
	RankK
	RankA
	Rank2
	Rank3
)

// RankCount 点数种类数
const RankCount = 10

// DeckSize 一副牌的张数（10 个点数 × 4 种花色）
const DeckSize = RankCount * 4

// manilhaBase 马尼拉强度基数，必须大于任何普通点数的强度
const manilhaBase = 40

// rankNames 点数字符串映射表
var rankNames = [RankCount]string{"4", "5", "6", "7", "Q", "J", "K", "A", "2", "3"}

func (r Rank) String() string {
	if r.Valid() {
		return rankNames[r]
	}
	return "?"
}

// Valid 点数是否合法
func (r Rank) Valid() bool {
	return r >= Rank4 && r <= Rank3
}

// ParseRank 解析点数字符串
func ParseRank(s string) (Rank, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range rankNames {
		if name == s {
			return Rank(i), nil
		}
	}
	return -1, fmt.Errorf("无法识别的点数: %q", s)
}

// ParseSuit 解析花色符号
func ParseSuit(s string) (Suit, error) {
	for suit, symbol := range suitSymbols {
		if symbol == s {
			return suit, nil
		}
	}
	return -1, fmt.Errorf("无法识别的花色: %q", s)
}

// ID 牌的稳定标识，例如 "7♦"
func (c Card) ID() string {
	return c.Rank.String() + c.Suit.String()
}

func (c Card) String() string {
	return c.ID()
}

// ParseID 将 "Q♣" 形式的标识解析为牌
func ParseID(id string) (Card, error) {
	r, size := utf8.DecodeRuneInString(id)
	if r == utf8.RuneError || size == len(id) {
		return Card{}, fmt.Errorf("无效的牌标识: %q", id)
	}
	rank, err := ParseRank(id[:size])
	if err != nil {
		return Card{}, err
	}
	suit, err := ParseSuit(id[size:])
	if err != nil {
		return Card{}, err
	}
	return Card{Rank: rank, Suit: suit}, nil
}

// NextRank 按点数顺序循环取下一个点数（由翻牌 vira 得到马尼拉点数）
func NextRank(r Rank) Rank {
	return (r + 1) % RankCount
}

// Strength 返回牌在本手中的强度。
// 马尼拉点数的牌强度为 manilhaBase+花色，总是大于任何普通牌。
func Strength(c Card, manilha Rank) int {
	if c.Rank == manilha {
		return manilhaBase + int(c.Suit)
	}
	return int(c.Rank)
}

// Deck 定义一副牌
type Deck []Card

// NewDeck 按固定顺序生成 40 张牌
func NewDeck() Deck {
	deck := make(Deck, 0, DeckSize)
	for s := Clubs; s <= Diamonds; s++ {
		for r := Rank4; r <= Rank3; r++ {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// NewShuffledDeck 生成并洗好一副新牌
func NewShuffledDeck() Deck {
	deck := NewDeck()
	deck.Shuffle()
	return deck
}

// Shuffle Fisher–Yates 洗牌
func (d Deck) Shuffle() {
	rand.Shuffle(len(d), func(i, j int) {
		d[i], d[j] = d[j], d[i]
	})
}

// Draw 从牌堆顶部摸 n 张牌
func (d *Deck) Draw(n int) ([]Card, error) {
	if n > len(*d) {
		return nil, fmt.Errorf("牌堆只剩 %d 张，无法摸 %d 张", len(*d), n)
	}
	cards := make([]Card, n)
	copy(cards, (*d)[:n])
	*d = (*d)[n:]
	return cards, nil
}
