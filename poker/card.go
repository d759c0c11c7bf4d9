package poker

import (
	"errors"
	"fmt"
	"strings"
)

// Suit represents a card suit
type Suit uint8

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

var suitCodes = [...]byte{'s', 'h', 'd', 'c'}
var suitNames = [...]string{"Spades", "Hearts", "Diamonds", "Clubs"}

// Code returns the single-letter suit code used on the wire
func (s Suit) Code() string {
	if int(s) >= len(suitCodes) {
		return "?"
	}
	return string(suitCodes[s])
}

func (s Suit) String() string {
	if int(s) >= len(suitNames) {
		return "Unknown"
	}
	return suitNames[s]
}

// Rank represents a card rank. Two is 2 and Ace is 14 so that rank
// arithmetic (straights) works on the raw values.
type Rank uint8

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

const rankCodes = "23456789TJQKA"

var rankNames = [...]string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "Jack", "Queen", "King", "Ace"}

func (r Rank) valid() bool { return r >= Two && r <= Ace }

// Code returns the single-character rank code ("T" for ten)
func (r Rank) Code() string {
	if !r.valid() {
		return "?"
	}
	return string(rankCodes[r-Two])
}

func (r Rank) String() string {
	if !r.valid() {
		return "Unknown"
	}
	return rankNames[r-Two]
}

// Card is an immutable playing card. Cards compare by value.
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard creates a card from rank and suit
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// String returns the wire code of the card, e.g. "As" or "Th"
func (c Card) String() string {
	return c.Rank.Code() + c.Suit.Code()
}

// Name returns the long display form, e.g. "Ace of Spades"
func (c Card) Name() string {
	return c.Rank.String() + " of " + c.Suit.String()
}

var ErrInvalidCard = errors.New("invalid card")

// ParseCard parses a card code such as "As", "Td" or "10h". Parsing is case
// insensitive.
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || len(s) > 3 {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}

	rankPart := strings.ToUpper(s[:len(s)-1])
	if rankPart == "10" {
		rankPart = "T"
	}
	if len(rankPart) != 1 {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}
	idx := strings.IndexByte(rankCodes, rankPart[0])
	if idx < 0 {
		return Card{}, fmt.Errorf("%w: bad rank in %q", ErrInvalidCard, s)
	}

	suitIdx := strings.IndexByte(string(suitCodes[:]), strings.ToLower(s[len(s)-1:])[0])
	if suitIdx < 0 {
		return Card{}, fmt.Errorf("%w: bad suit in %q", ErrInvalidCard, s)
	}

	return NewCard(Two+Rank(idx), Suit(suitIdx)), nil
}

// ParseCards parses a list of card codes
func ParseCards(codes ...string) ([]Card, error) {
	cards := make([]Card, 0, len(codes))
	for _, code := range codes {
		c, err := ParseCard(code)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// MustParseCards is ParseCards for fixed inputs; it panics on error.
func MustParseCards(codes ...string) []Card {
	cards, err := ParseCards(codes...)
	if err != nil {
		panic(err)
	}
	return cards
}

// Codes returns the wire codes of the given cards
func Codes(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}

// Names returns the display names of the given cards
func Names(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Name()
	}
	return out
}
