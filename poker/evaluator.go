package poker

import (
	"errors"
	"fmt"
	"sort"
)

// Score is the category of a five-card poker hand. Higher is stronger; the
// numeric values are part of the wire protocol (claimed_score).
type Score int

const (
	HighCard Score = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

var scoreNames = [...]string{
	"High Card",
	"One Pair",
	"Two Pair",
	"Three of a Kind",
	"Straight",
	"Flush",
	"Full House",
	"Four of a Kind",
	"Straight Flush",
	"Royal Flush",
}

// String returns the human-readable category label
func (s Score) String() string {
	if s < HighCard || int(s) >= len(scoreNames) {
		return "Unknown"
	}
	return scoreNames[s]
}

var (
	ErrHandSize      = errors.New("hand must have between 5 and 7 cards")
	ErrDuplicateCard = errors.New("duplicate card in hand")
)

// Evaluate returns the best score obtainable from 5, 6 or 7 cards.
func Evaluate(cards []Card) (Score, error) {
	score, _, err := EvaluateBest(cards)
	return score, err
}

// EvaluateBest returns the best score and the five cards that make it. Five
// cards are classified directly; six or seven try every five-card subset.
func EvaluateBest(cards []Card) (Score, []Card, error) {
	n := len(cards)
	if n < 5 || n > 7 {
		return HighCard, nil, fmt.Errorf("%w: got %d", ErrHandSize, n)
	}
	if err := checkDistinct(cards); err != nil {
		return HighCard, nil, err
	}

	best := Score(-1)
	var bestHand [5]Card
	var hand [5]Card
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						hand = [5]Card{cards[a], cards[b], cards[c], cards[d], cards[e]}
						if s := classify(hand); s > best {
							best = s
							bestHand = hand
						}
					}
				}
			}
		}
	}

	return best, bestHand[:], nil
}

// Strength scores any partial or complete holding of up to seven cards. With
// five or more cards it is Evaluate. With fewer (pre-flop hole cards, say)
// only rank multiplicities count, since flushes and straights need five.
func Strength(cards []Card) (Score, error) {
	if len(cards) >= 5 {
		return Evaluate(cards)
	}
	if err := checkDistinct(cards); err != nil {
		return HighCard, err
	}
	groups := rankGroups(cards)
	switch {
	case len(groups) == 0:
		return HighCard, nil
	case groups[0] == 4:
		return FourOfAKind, nil
	case groups[0] == 3:
		return ThreeOfAKind, nil
	case groups[0] == 2 && len(groups) > 1 && groups[1] == 2:
		return TwoPair, nil
	case groups[0] == 2:
		return OnePair, nil
	default:
		return HighCard, nil
	}
}

// classify scores exactly five cards. Straights are five distinct ranks
// spanning four; A-2-3-4-5 is not a straight here.
func classify(hand [5]Card) Score {
	flush := true
	minRank, maxRank := hand[0].Rank, hand[0].Rank
	for _, c := range hand[1:] {
		if c.Suit != hand[0].Suit {
			flush = false
		}
		minRank = min(minRank, c.Rank)
		maxRank = max(maxRank, c.Rank)
	}

	groups := rankGroups(hand[:])
	straight := len(groups) == 5 && maxRank-minRank == 4

	switch {
	case flush && straight && maxRank == Ace:
		return RoyalFlush
	case flush && straight:
		return StraightFlush
	case groups[0] == 4:
		return FourOfAKind
	case groups[0] == 3 && groups[1] == 2:
		return FullHouse
	case flush:
		return Flush
	case straight:
		return Straight
	case groups[0] == 3:
		return ThreeOfAKind
	case groups[0] == 2 && groups[1] == 2:
		return TwoPair
	case groups[0] == 2:
		return OnePair
	default:
		return HighCard
	}
}

// rankGroups returns the multiplicity of each distinct rank, largest first
func rankGroups(cards []Card) []int {
	var counts [Ace + 1]int
	for _, c := range cards {
		counts[c.Rank]++
	}
	groups := make([]int, 0, len(cards))
	for _, n := range counts {
		if n > 0 {
			groups = append(groups, n)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(groups)))
	return groups
}

func checkDistinct(cards []Card) error {
	seen := make(map[Card]struct{}, len(cards))
	for _, c := range cards {
		if _, ok := seen[c]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateCard, c)
		}
		seen[c] = struct{}{}
	}
	return nil
}
