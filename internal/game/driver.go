package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
	"github.com/WTCSC/sockets-to-em-casino-day/poker"
)

// ErrHostLost is returned by Run when the host disconnects before the
// session starts. There is no host election.
var ErrHostLost = errors.New("host disconnected")

// DefaultBlind is the forced bet every dealt seat posts at round start
const DefaultBlind = 10

// Notifier delivers server records to seats. Send failing means the seat's
// connection is gone.
type Notifier interface {
	Send(seat int, msg any) error
	Broadcast(msg any, exclude ...int)
	Disconnect(seat int)
}

// Options tune a Driver
type Options struct {
	Blind      int
	RoundPause time.Duration
	Rand       *rand.Rand
	// Deck overrides the per-round deck, for scripted hands
	Deck func() *poker.Deck
	// OnSessionEnd, if set, is called on the driver goroutine after each
	// GAME_OVER
	OnSessionEnd func(SessionSummary)
}

// SessionSummary describes a finished session
type SessionSummary struct {
	ID        uuid.UUID
	Rounds    int
	Standings []Seat
}

// Driver runs the lobby, sessions and rounds on a single goroutine. It is
// the only writer of chips, pot and cards.
type Driver struct {
	table  *Table
	inbox  *Inbox
	notify Notifier
	logger *log.Logger
	clock  quartz.Clock
	opts   Options

	// events taken off the inbox but not yet handled, oldest first
	pending []event

	sessionID uuid.UUID
}

// NewDriver creates a driver for table, reading events from inbox
func NewDriver(table *Table, inbox *Inbox, notify Notifier, logger *log.Logger, clock quartz.Clock, opts Options) *Driver {
	if opts.Blind <= 0 {
		opts.Blind = DefaultBlind
	}
	if opts.Deck == nil {
		rng := opts.Rand
		opts.Deck = func() *poker.Deck { return poker.NewDeck(rng) }
	}
	return &Driver{
		table:  table,
		inbox:  inbox,
		notify: notify,
		logger: logger.WithPrefix("driver"),
		clock:  clock,
		opts:   opts,
	}
}

// Run drives the table until the host ends play, the host is lost in the
// lobby (ErrHostLost) or ctx is cancelled.
func (d *Driver) Run(ctx context.Context) error {
	if err := d.runLobby(ctx); err != nil {
		return err
	}
	for {
		again, err := d.runSession(ctx)
		if err != nil {
			return err
		}
		if !again {
			d.logger.Info("Host ended play")
			return nil
		}
	}
}

type eventKind int

const (
	evJoin eventKind = iota + 1
	evDeparture
	evAction
	evLobby
	evDecision
	evRename
)

type event struct {
	kind   eventKind
	seat   int
	action protocol.Action
	cmd    protocol.Command
	name   string
	err    error
}

// next blocks until any inbox channel delivers. A departure, lobby command
// or decision is handled after every join, rename and action already queued,
// so a seat's own earlier records are never overtaken by them.
func (d *Driver) next(ctx context.Context) (event, error) {
	if len(d.pending) > 0 {
		ev := d.pending[0]
		d.pending = d.pending[1:]
		return ev, nil
	}
	select {
	case seat := <-d.inbox.Joins:
		return event{kind: evJoin, seat: seat}, nil
	case a := <-d.inbox.Actions:
		return actionEvent(a), nil
	case r := <-d.inbox.Renames:
		return event{kind: evRename, seat: r.Seat, name: r.Name}, nil
	case seat := <-d.inbox.Departures:
		return d.behindQueued(event{kind: evDeparture, seat: seat}), nil
	case c := <-d.inbox.Lobby:
		return d.behindQueued(event{kind: evLobby, seat: c.Seat, cmd: c.Command}), nil
	case c := <-d.inbox.Decisions:
		return d.behindQueued(event{kind: evDecision, seat: c.Seat, cmd: c.Command}), nil
	case <-ctx.Done():
		return event{}, ctx.Err()
	}
}

// behindQueued moves ev behind the joins, renames and actions waiting right
// now and returns whichever event comes first.
func (d *Driver) behindQueued(ev event) event {
drain:
	for {
		select {
		case seat := <-d.inbox.Joins:
			d.pending = append(d.pending, event{kind: evJoin, seat: seat})
		case a := <-d.inbox.Actions:
			d.pending = append(d.pending, actionEvent(a))
		case r := <-d.inbox.Renames:
			d.pending = append(d.pending, event{kind: evRename, seat: r.Seat, name: r.Name})
		default:
			break drain
		}
	}
	if len(d.pending) == 0 {
		return ev
	}
	first := d.pending[0]
	d.pending = append(d.pending[1:], ev)
	return first
}

func actionEvent(a SeatAction) event {
	return event{kind: evAction, seat: a.Seat, action: a.Action, err: a.Err}
}

// reject answers an event that is not valid in the current phase
func (d *Driver) reject(ev event) {
	switch ev.kind {
	case evAction:
		if ev.err != nil {
			d.sendError(ev.seat, protocol.CodeMalformed, ev.err.Error())
			return
		}
		d.sendError(ev.seat, protocol.CodeNotYourTurn, "it is not your turn")
	case evLobby:
		d.sendError(ev.seat, protocol.CodeLobby, ErrLobbyClosed.Error())
	case evDecision:
		d.sendError(ev.seat, protocol.CodeDecision, "no decision is pending")
	case evRename:
		d.sendError(ev.seat, protocol.CodeLobby, "names can only change in the lobby")
	}
}

// depart records a lost seat. It is idempotent.
func (d *Driver) depart(seat int) {
	if !d.table.Disconnect(seat) {
		return
	}
	name := d.seatName(seat)
	d.logger.Info("Seat disconnected", "seat", seat, "name", name)
	d.notify.Disconnect(seat)
	d.broadcast(protocol.Info{Type: protocol.TypeInfo, Message: fmt.Sprintf("%s left the table", name)})
}

// send delivers to one seat; a failed send is a departure
func (d *Driver) send(seat int, msg any) bool {
	if err := d.notify.Send(seat, msg); err != nil {
		d.logger.Debug("Send failed", "seat", seat, "error", err)
		d.depart(seat)
		return false
	}
	return true
}

func (d *Driver) broadcast(msg any, exclude ...int) {
	d.notify.Broadcast(msg, exclude...)
}

func (d *Driver) sendError(seat int, code, message string) {
	d.send(seat, protocol.Error{Type: protocol.TypeError, Code: code, Message: message})
}

func (d *Driver) info(format string, args ...any) {
	d.broadcast(protocol.Info{Type: protocol.TypeInfo, Message: fmt.Sprintf(format, args...)})
}

func (d *Driver) seatName(seat int) string {
	if s, ok := d.table.Seat(seat); ok {
		return s.Name
	}
	return fmt.Sprintf("seat %d", seat)
}

func (d *Driver) chipsByName() map[string]int {
	out := make(map[string]int)
	for _, s := range d.table.Seats() {
		out[s.Name] = s.Chips
	}
	return out
}

func playerInfo(seats []Seat) []protocol.PlayerInfo {
	out := make([]protocol.PlayerInfo, 0, len(seats))
	for _, s := range seats {
		out = append(out, protocol.PlayerInfo{Seat: s.Index, Name: s.Name, Chips: s.Chips})
	}
	return out
}
