package game

import (
	"context"

	"github.com/google/uuid"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
)

// runSession plays the configured rounds, publishes standings and asks the
// host whether to play again. It returns true for another session.
func (d *Driver) runSession(ctx context.Context) (bool, error) {
	d.sessionID = uuid.New()
	cfg := d.table.Config()

	d.logger.Info("Session start", "session", d.sessionID, "rounds", cfg.Rounds, "chips", cfg.StartingChips)
	d.broadcast(protocol.SessionStart{
		Type:      protocol.TypeSessionStart,
		SessionID: d.sessionID.String(),
		Rounds:    cfg.Rounds,
		Chips:     cfg.StartingChips,
		Players:   playerInfo(d.activeSeats()),
	})

	played := 0
	for round := 1; round <= cfg.Rounds; round++ {
		if d.table.Playable() < 2 {
			d.logger.Info("Not enough players to continue", "round", round)
			d.info("Not enough players left to continue")
			break
		}
		if round > 1 {
			if err := d.pause(ctx); err != nil {
				return false, err
			}
		}
		if err := d.playRound(ctx, round, cfg.Rounds); err != nil {
			return false, err
		}
		played++
	}

	standings := d.table.Standings()
	if len(standings) > 0 {
		d.logger.Info("Session over", "session", d.sessionID, "leader", standings[0].Name, "chips", standings[0].Chips)
	} else {
		d.logger.Info("Session over", "session", d.sessionID, "players", 0)
	}
	d.broadcast(protocol.GameOver{
		Type:      protocol.TypeGameOver,
		SessionID: d.sessionID.String(),
		Standings: playerInfo(standings),
	})
	if d.opts.OnSessionEnd != nil {
		d.opts.OnSessionEnd(SessionSummary{ID: d.sessionID, Rounds: played, Standings: standings})
	}

	return d.awaitDecision(ctx)
}

// awaitDecision blocks for the host's PLAY AGAIN or END. Losing the host
// here ends play.
func (d *Driver) awaitDecision(ctx context.Context) (bool, error) {
	prompted := d.table.Connected(0) && d.send(0, protocol.DecisionPrompt{
		Type:    protocol.TypeDecisionPrompt,
		Message: "Play again with fresh stacks, or end the game?",
		Options: []string{protocol.CmdPlayAgain, protocol.CmdEnd},
	})
	if !prompted {
		d.logger.Info("Host gone at decision point, ending")
		d.close("The host has left. Thanks for playing!")
		return false, nil
	}

	for {
		ev, err := d.next(ctx)
		if err != nil {
			return false, err
		}

		switch ev.kind {
		case evDecision:
			if ev.seat != 0 {
				d.sendError(ev.seat, protocol.CodeNotHost, ErrNotHost.Error())
				continue
			}
			if ev.cmd.Cmd == protocol.CmdPlayAgain {
				d.table.ResetChips()
				d.info("The host starts a new game")
				return true, nil
			}
			d.close("The host has ended the game. Thanks for playing!")
			return false, nil

		case evDeparture:
			d.depart(ev.seat)
			if ev.seat == 0 {
				d.close("The host has left. Thanks for playing!")
				return false, nil
			}

		case evAction:
			if ev.err != nil {
				d.reject(ev)
				continue
			}
			d.sendError(ev.seat, protocol.CodeNotYourTurn, "no hand is in progress")

		case evJoin:

		default:
			d.reject(ev)
		}
	}
}

func (d *Driver) close(message string) {
	d.broadcast(protocol.Closed{Type: protocol.TypeClosed, Message: message})
}

// pause waits between rounds on the driver clock
func (d *Driver) pause(ctx context.Context) error {
	if d.opts.RoundPause <= 0 {
		return nil
	}
	done := make(chan struct{})
	timer := d.clock.AfterFunc(d.opts.RoundPause, func() { close(done) }, "driver", "pause")
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Driver) activeSeats() []Seat {
	var out []Seat
	for _, s := range d.table.Seats() {
		if s.Active {
			out = append(out, s)
		}
	}
	return out
}
