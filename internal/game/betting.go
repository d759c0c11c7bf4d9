package game

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
	"github.com/WTCSC/sockets-to-em-casino-day/poker"
)

var ErrUnknownAction = errors.New("unknown action")

// outcome is the terminal result of one seat's turn
type outcome int

const (
	outcomeContinue outcome = iota
	outcomeReopen
	outcomeKicked
	outcomeGone
)

// runStreet resolves one betting street. Seats act in join order; a bet or
// raise queues every other live seat again in rotation order after the
// raiser. The street ends when the queue drains or fewer than two contenders
// remain. Only ctx cancellation is returned as an error.
func (d *Driver) runStreet(ctx context.Context, stage string) error {
	d.table.ResetStreet()
	queue := d.table.ActionOrder()
	if len(queue) < 2 {
		// nothing is owed at the start of a street, so a lone seat has no decision
		return nil
	}

	for len(queue) > 0 {
		if len(d.table.Contenders()) < 2 {
			return nil
		}
		seat := queue[0]
		queue = queue[1:]
		if !d.table.CanAct(seat) {
			continue
		}

		result, err := d.takeTurn(ctx, stage, seat)
		if err != nil {
			return err
		}
		if result == outcomeReopen {
			queue = d.reopen(queue, seat)
		}
	}
	return nil
}

// reopen appends every seat that can still act, other than the raiser and
// those already queued, starting from the seat after the raiser.
func (d *Driver) reopen(queue []int, raiser int) []int {
	order := d.table.ActionOrder()
	if len(order) == 0 {
		return queue
	}
	start := 0
	for i, seat := range order {
		if seat > raiser {
			start = i
			break
		}
		start = i + 1
	}
	for i := range order {
		seat := order[(start+i)%len(order)]
		if seat == raiser || slices.Contains(queue, seat) {
			continue
		}
		queue = append(queue, seat)
	}
	return queue
}

// takeTurn prompts a seat until it produces a legal action, leaves, or is
// kicked. Everything else arriving meanwhile is answered and dropped.
func (d *Driver) takeTurn(ctx context.Context, stage string, seat int) (outcome, error) {
	d.broadcast(protocol.Turn{
		Type:       protocol.TypeTurn,
		Seat:       seat,
		Name:       d.seatName(seat),
		Stage:      stage,
		Pot:        d.table.Pot(),
		CurrentBet: d.table.CurrentBet(),
	})
	if !d.prompt(stage, seat) {
		return outcomeGone, nil
	}

	for {
		ev, err := d.next(ctx)
		if err != nil {
			return outcomeGone, err
		}

		switch {
		case ev.kind == evAction && ev.seat == seat:
			if ev.err != nil {
				d.sendError(seat, protocol.CodeMalformed, ev.err.Error())
				if !d.prompt(stage, seat) {
					return outcomeGone, nil
				}
				continue
			}
			result, err := d.apply(seat, ev.action)
			if err != nil {
				d.logger.Debug("Rejected action", "seat", seat, "action", ev.action.Action, "error", err)
				d.sendError(seat, protocol.CodeIllegal, err.Error())
				if !d.prompt(stage, seat) {
					return outcomeGone, nil
				}
				continue
			}
			return result, nil

		case ev.kind == evDeparture:
			d.depart(ev.seat)
			if ev.seat == seat {
				d.info("%s disconnected and folds", d.seatName(seat))
				return outcomeGone, nil
			}
			if len(d.table.Contenders()) < 2 {
				return outcomeGone, nil
			}

		case ev.kind == evJoin:
			// lobby already closed; the seat was admitted just before START

		default:
			d.reject(ev)
		}
	}
}

// prompt sends YOUR_TURN with the seat's full decision context
func (d *Driver) prompt(stage string, seat int) bool {
	s, ok := d.table.Seat(seat)
	if !ok {
		return false
	}
	current := d.table.CurrentBet()
	return d.send(seat, protocol.YourTurn{
		Type:       protocol.TypeYourTurn,
		Stage:      stage,
		Pot:        d.table.Pot(),
		Chips:      s.Chips,
		Hand:       poker.Codes(s.Hole),
		Community:  poker.Codes(d.table.Community()),
		CurrentBet: current,
		Wager:      s.Wager,
		ToCall:     min(current-s.Wager, s.Chips),
	})
}

// apply validates and applies one action. A returned error is a rule
// violation to report before re-prompting; state is unchanged.
func (d *Driver) apply(seat int, a protocol.Action) (outcome, error) {
	var (
		result = outcomeContinue
		moved  int
		err    error
		verb   = a.Action
	)

	switch a.Action {
	case protocol.ActionFold:
		err = d.table.Fold(seat)

	case protocol.ActionCheck:
		err = d.table.Check(seat)

	case protocol.ActionCall:
		moved, err = d.table.Call(seat)
		if err == nil && moved == 0 {
			verb = protocol.ActionCheck
		}

	case protocol.ActionBet, protocol.ActionRaise:
		if err = d.table.CanRaise(seat, a.Amount); err != nil {
			break
		}
		if d.enforceClaim(seat, a.ClaimedScore) {
			return outcomeKicked, nil
		}
		moved, err = d.table.Raise(seat, a.Amount)
		result = outcomeReopen

	case protocol.ActionQuit:
		d.table.Deactivate(seat)

	default:
		err = fmt.Errorf("%w %q: use FOLD, CHECK, CALL, BET, RAISE or QUIT", ErrUnknownAction, a.Action)
	}
	if err != nil {
		return outcomeContinue, err
	}

	s, _ := d.table.Seat(seat)
	pot := d.table.Pot()
	d.logger.Debug("Action", "seat", seat, "action", verb, "moved", moved, "pot", pot)
	d.broadcast(protocol.ActionTaken{
		Type:   protocol.TypeAction,
		Seat:   seat,
		Name:   s.Name,
		Action: verb,
		Amount: moved,
		Pot:    pot,
		Chips:  s.Chips,
	})
	d.info("%s", narrate(s.Name, verb, moved, pot))
	return result, nil
}

func narrate(name, verb string, moved, pot int) string {
	switch verb {
	case protocol.ActionFold:
		return fmt.Sprintf("%s folds", name)
	case protocol.ActionCheck:
		return fmt.Sprintf("%s checks", name)
	case protocol.ActionCall:
		return fmt.Sprintf("%s calls %d (pot %d)", name, moved, pot)
	case protocol.ActionBet, protocol.ActionRaise:
		return fmt.Sprintf("%s puts in %d (pot %d)", name, moved, pot)
	case protocol.ActionQuit:
		return fmt.Sprintf("%s quits the game", name)
	}
	return name
}
