package utils

import (
	"math/rand"
	"strings"
	"time"
)

// Card represents a playing card
type Card struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

// String returns the string representation of a card
func (c Card) String() string {
	return c.Rank + c.Suit
}

// Value returns the blackjack value of the card with aces counted as 11
func (c Card) Value() int {
	return CardRanks[c.Rank]
}

// IsAce reports whether the card is an ace
func (c Card) IsAce() bool {
	return c.Rank == "A"
}

// CardRanks defines the blackjack values for card ranks
var CardRanks = map[string]int{
	"2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9, "10": 10,
	"J": 10, "Q": 10, "K": 10, "A": 11,
}

var cardOrder = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// CardSuits defines the available card suits
var CardSuits = []string{"♠️", "♥️", "♦️", "♣️"}

// Deck is a shoe of one or more 52-card decks
type Deck struct {
	Cards      []Card `json:"cards"`
	NumDecks   int    `json:"num_decks"`
	DealtCards int    `json:"dealt_cards"`
	rng        *rand.Rand
}

// NewDeck creates a shuffled shoe of numDecks decks
func NewDeck(numDecks int) *Deck {
	return NewDeckWithRand(numDecks, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewDeckWithRand creates a shoe shuffled by rng
func NewDeckWithRand(numDecks int, rng *rand.Rand) *Deck {
	deck := &Deck{
		Cards:    make([]Card, 0, numDecks*52),
		NumDecks: numDecks,
		rng:      rng,
	}
	for d := 0; d < numDecks; d++ {
		for _, suit := range CardSuits {
			for _, rank := range cardOrder {
				deck.Cards = append(deck.Cards, Card{Rank: rank, Suit: suit})
			}
		}
	}
	deck.Shuffle()
	return deck
}

// Shuffle shuffles the whole shoe
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.Cards), func(i, j int) {
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	})
	d.DealtCards = 0
}

// Deal deals one card, reshuffling when the shoe is exhausted
func (d *Deck) Deal() Card {
	if d.DealtCards >= len(d.Cards) {
		d.Shuffle()
	}
	card := d.Cards[d.DealtCards]
	d.DealtCards++
	return card
}

// CardsRemaining returns the number of cards left in the shoe
func (d *Deck) CardsRemaining() int {
	return len(d.Cards) - d.DealtCards
}

// ShouldShuffle reports whether the shoe is below ShuffleThreshold
func (d *Deck) ShouldShuffle() bool {
	if len(d.Cards) == 0 {
		return true
	}
	return float64(d.CardsRemaining())/float64(len(d.Cards)) <= ShuffleThreshold
}

// Hand represents a blackjack hand
type Hand struct {
	Cards []Card `json:"cards"`
}

// AddCard adds a card to the hand
func (h *Hand) AddCard(card Card) {
	h.Cards = append(h.Cards, card)
}

// Value returns the best total, counting aces as 1 where 11 would bust
func (h *Hand) Value() int {
	total, aces := 0, 0
	for _, card := range h.Cards {
		if card.IsAce() {
			aces++
		}
		total += card.Value()
	}
	for aces > 0 && total > 21 {
		total -= 10
		aces--
	}
	return total
}

// IsSoft reports whether an ace is still counted as 11
func (h *Hand) IsSoft() bool {
	hard, aces := 0, 0
	for _, card := range h.Cards {
		if card.IsAce() {
			aces++
			hard++
		} else {
			hard += card.Value()
		}
	}
	return aces > 0 && hard+10 <= 21
}

// IsBlackjack checks for a natural 21 with two cards
func (h *Hand) IsBlackjack() bool {
	return len(h.Cards) == 2 && h.Value() == 21
}

// IsBusted checks if the hand is over 21
func (h *Hand) IsBusted() bool {
	return h.Value() > 21
}

// Count returns the number of cards in the hand
func (h *Hand) Count() int {
	return len(h.Cards)
}

// String returns the cards separated by spaces
func (h *Hand) String() string {
	parts := make([]string, len(h.Cards))
	for i, card := range h.Cards {
		parts[i] = card.String()
	}
	return strings.Join(parts, " ")
}
