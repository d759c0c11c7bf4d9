package game

import (
	"context"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
	"github.com/WTCSC/sockets-to-em-casino-day/poker"
)

// Streets of a round and the board cards revealed before each
var streets = []struct {
	name  string
	cards int
}{
	{"Pre-Flop", 0},
	{"Flop", 3},
	{"Turn", 1},
	{"River", 1},
}

// Resolution reasons reported in WINNER
const (
	ReasonLastRemaining = "last remaining"
	ReasonShowdown      = "showdown"
	ReasonSplit         = "split pot"
)

// playRound deals, collects blinds, runs the four streets and resolves the
// pot. Streets stop as soon as fewer than two contenders remain.
func (d *Driver) playRound(ctx context.Context, round, of int) error {
	start := d.clock.Now()

	dealt := d.table.StartRound(d.opts.Deck())
	d.broadcast(protocol.RoundStart{
		Type:      protocol.TypeRoundStart,
		SessionID: d.sessionID.String(),
		Round:     round,
		Of:        of,
	})
	d.logger.Info("Round start", "round", round, "of", of, "seats", dealt)

	for _, seat := range dealt {
		s, _ := d.table.Seat(seat)
		d.send(seat, protocol.Hand{Type: protocol.TypeHand, Cards: poker.Codes(s.Hole), Chips: s.Chips})
	}

	for _, seat := range dealt {
		posted := d.table.PostBlind(seat, d.opts.Blind)
		if posted == 0 {
			d.info("%s cannot cover the %d blind", d.seatName(seat), d.opts.Blind)
			continue
		}
		d.broadcast(protocol.Blind{
			Type:   protocol.TypeBlind,
			Seat:   seat,
			Name:   d.seatName(seat),
			Amount: posted,
			Pot:    d.table.Pot(),
		})
	}

	for _, st := range streets {
		if len(d.table.Contenders()) < 2 {
			break
		}
		if st.cards > 0 {
			fresh := d.table.DealCommunity(st.cards)
			d.broadcast(protocol.Community{
				Type:  protocol.TypeCommunity,
				Stage: st.name,
				Cards: poker.Codes(d.table.Community()),
				New:   poker.Codes(fresh),
			})
		}
		if err := d.runStreet(ctx, st.name); err != nil {
			return err
		}
	}

	d.resolve()
	d.logger.Info("Round complete", "round", round, "duration", d.clock.Since(start))
	return nil
}

// resolve pays out the pot to the remaining contenders
func (d *Driver) resolve() {
	contenders := d.table.Contenders()
	pot := d.table.Pot()

	switch len(contenders) {
	case 0:
		lost := d.table.VoidPot()
		d.logger.Warn("Pot voided, no contenders", "pot", lost)
		d.info("Everyone is out of the hand; the pot of %d is void", lost)
		return

	case 1:
		share, _ := d.table.Award(contenders)
		d.logger.Info("Pot awarded", "seat", contenders[0], "amount", share, "reason", ReasonLastRemaining)
		d.broadcast(protocol.Winner{
			Type:    protocol.TypeWinner,
			Winners: []string{d.seatName(contenders[0])},
			Seats:   contenders,
			Amount:  share,
			Pot:     pot,
			Reason:  ReasonLastRemaining,
			Chips:   d.chipsByName(),
		})
		return
	}

	board := d.table.Community()
	hands := make([]protocol.ShowdownHand, 0, len(contenders))
	best := poker.Score(-1)
	var winners []int

	for _, seat := range contenders {
		s, _ := d.table.Seat(seat)
		score, bestFive := showdownScore(s.Hole, board)
		hands = append(hands, protocol.ShowdownHand{
			Seat:  seat,
			Name:  s.Name,
			Cards: poker.Codes(s.Hole),
			Best:  poker.Codes(bestFive),
			Score: int(score),
			Label: score.String(),
		})
		switch {
		case score > best:
			best = score
			winners = []int{seat}
		case score == best:
			winners = append(winners, seat)
		}
	}

	d.broadcast(protocol.Showdown{Type: protocol.TypeShowdown, Community: poker.Codes(board), Hands: hands})

	share, remainder := d.table.Award(winners)
	reason := ReasonShowdown
	if len(winners) > 1 {
		reason = ReasonSplit
	}
	names := make([]string, len(winners))
	for i, seat := range winners {
		names[i] = d.seatName(seat)
	}
	d.logger.Info("Pot awarded", "seats", winners, "share", share, "remainder", remainder, "hand", best)
	d.broadcast(protocol.Winner{
		Type:      protocol.TypeWinner,
		Winners:   names,
		Seats:     winners,
		Amount:    share,
		Pot:       pot,
		Remainder: remainder,
		Reason:    reason,
		Hand:      best.String(),
		Chips:     d.chipsByName(),
	})
}

// showdownScore evaluates hole plus board. A short board only happens when
// the deck ran out, which a single table of six cannot do.
func showdownScore(hole, board []poker.Card) (poker.Score, []poker.Card) {
	cards := make([]poker.Card, 0, len(hole)+len(board))
	cards = append(cards, hole...)
	cards = append(cards, board...)

	if len(cards) >= 5 {
		if score, best, err := poker.EvaluateBest(cards); err == nil {
			return score, best
		}
	}
	score, _ := poker.Strength(cards)
	return score, cards
}
