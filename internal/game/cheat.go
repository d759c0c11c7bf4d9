package game

import (
	"fmt"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
	"github.com/WTCSC/sockets-to-em-casino-day/poker"
)

// CheckClaim compares a claimed hand score with the true strength of hole
// plus board. Claims of zero or less are never checked.
func CheckClaim(hole, board []poker.Card, claimed int) (truth poker.Score, cheating bool) {
	if claimed <= 0 {
		return 0, false
	}
	cards := make([]poker.Card, 0, len(hole)+len(board))
	cards = append(cards, hole...)
	cards = append(cards, board...)

	truth, err := poker.Strength(cards)
	if err != nil {
		return truth, false
	}
	return truth, claimed > int(truth)
}

// enforceClaim removes a seat whose claim overstates its hand. It reports
// whether the seat was kicked.
func (d *Driver) enforceClaim(seat, claimed int) bool {
	s, ok := d.table.Seat(seat)
	if !ok {
		return false
	}
	truth, cheating := CheckClaim(s.Hole, d.table.Community(), claimed)
	if !cheating {
		return false
	}

	d.logger.Warn("False hand claim", "seat", seat, "name", s.Name, "claimed", claimed, "actual", truth)
	d.table.Deactivate(seat)

	_ = d.notify.Send(seat, protocol.Kicked{
		Type:   protocol.TypeKicked,
		Reason: fmt.Sprintf("claimed score %d but your hand is %s (%d)", claimed, truth, int(truth)),
	})
	d.broadcast(protocol.Info{
		Type:    protocol.TypeInfo,
		Message: fmt.Sprintf("%s was removed for misrepresenting their hand", s.Name),
	}, seat)

	d.table.Disconnect(seat)
	d.notify.Disconnect(seat)
	return true
}
