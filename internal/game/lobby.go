package game

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
)

var (
	ErrNotHost          = errors.New("only the host can do that")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrNotANumber       = errors.New("value must be a whole number")
	ErrNotEnoughPlayers = errors.New("at least two players are needed to start")
)

var lobbyCommands = []string{
	protocol.CmdPlayers + " <2-6>",
	protocol.CmdChips + " <50+>",
	protocol.CmdRounds + " <1-20>",
	protocol.CmdStart,
}

// runLobby handles joins and host configuration until START closes the
// lobby. Losing the host here is fatal.
func (d *Driver) runLobby(ctx context.Context) error {
	d.logger.Info("Lobby open", "config", d.table.Config())

	for d.table.LobbyOpen() {
		ev, err := d.next(ctx)
		if err != nil {
			return err
		}

		switch ev.kind {
		case evJoin:
			d.logger.Info("Seat joined", "seat", ev.seat, "name", d.seatName(ev.seat))
			if ev.seat == 0 {
				d.promptHost()
			}
			d.broadcastLobby()

		case evRename:
			if err := d.table.Rename(ev.seat, ev.name); err != nil {
				d.sendError(ev.seat, protocol.CodeLobby, err.Error())
				break
			}
			d.broadcastLobby()

		case evDeparture:
			d.depart(ev.seat)
			if ev.seat != 0 {
				d.broadcastLobby()
			}

		case evLobby:
			if ev.seat != 0 {
				d.sendError(ev.seat, protocol.CodeNotHost, ErrNotHost.Error())
				break
			}
			if err := d.lobbyCommand(ev.cmd); err != nil {
				d.sendError(ev.seat, protocol.CodeLobby, err.Error())
				break
			}
			d.broadcastLobby()

		case evAction:
			if ev.err != nil {
				d.reject(ev)
				break
			}
			d.sendError(ev.seat, protocol.CodeNotYourTurn, "the game has not started")

		default:
			d.reject(ev)
		}

		if !d.table.Connected(0) {
			d.logger.Error("Host left the lobby")
			return ErrHostLost
		}
	}

	d.logger.Info("Lobby closed", "config", d.table.Config(), "players", d.table.ConnectedCount())
	return nil
}

// lobbyCommand applies one host command. The configuration is unchanged on
// error.
func (d *Driver) lobbyCommand(cmd protocol.Command) error {
	switch cmd.Cmd {
	case protocol.CmdPlayers, protocol.CmdChips, protocol.CmdRounds:
		n, err := strconv.Atoi(cmd.Value)
		if err != nil {
			return fmt.Errorf("%s %q: %w", cmd.Cmd, cmd.Value, ErrNotANumber)
		}
		switch cmd.Cmd {
		case protocol.CmdPlayers:
			return d.table.SetMaxSeats(n)
		case protocol.CmdChips:
			return d.table.SetStartingChips(n)
		default:
			return d.table.SetRounds(n)
		}

	case protocol.CmdStart:
		if n := d.table.ConnectedCount(); n < MinSeats {
			return fmt.Errorf("%w (%d connected)", ErrNotEnoughPlayers, n)
		}
		d.table.CloseLobby()
		return nil
	}

	return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Cmd)
}

func (d *Driver) promptHost() {
	d.send(0, protocol.LobbyPrompt{
		Type:     protocol.TypeLobbyPrompt,
		Message:  "You are the host. Configure the table, then START when everyone is here.",
		Commands: lobbyCommands,
	})
}

func (d *Driver) broadcastLobby() {
	cfg := d.table.Config()
	var names []string
	for _, s := range d.table.Seats() {
		if s.Connected {
			names = append(names, s.Name)
		}
	}
	d.broadcast(protocol.LobbyStatus{
		Type:      protocol.TypeLobbyStatus,
		Players:   cfg.MaxSeats,
		Chips:     cfg.StartingChips,
		Rounds:    cfg.Rounds,
		Connected: len(names),
		Names:     names,
	})
}
