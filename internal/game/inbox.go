package game

import (
	"context"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
)

const inboxBuffer = 64

// SeatAction is a betting record from a seat. Err is set when the record
// could not be decoded; the driver answers it with an error and re-prompts.
type SeatAction struct {
	Seat   int
	Action protocol.Action
	Err    error
}

// SeatCommand is a host command from a seat, routed by purpose
type SeatCommand struct {
	Seat    int
	Command protocol.Command
}

// SeatRename asks to change a seat's display name
type SeatRename struct {
	Seat int
	Name string
}

// Inbox carries everything connection goroutines hand to the driver, one
// channel per purpose. Only the driver receives from it.
type Inbox struct {
	Joins      chan int
	Departures chan int
	Actions    chan SeatAction
	Lobby      chan SeatCommand
	Decisions  chan SeatCommand
	Renames    chan SeatRename
}

// NewInbox creates an inbox with buffered channels
func NewInbox() *Inbox {
	return &Inbox{
		Joins:      make(chan int, inboxBuffer),
		Departures: make(chan int, inboxBuffer),
		Actions:    make(chan SeatAction, inboxBuffer),
		Lobby:      make(chan SeatCommand, inboxBuffer),
		Decisions:  make(chan SeatCommand, inboxBuffer),
		Renames:    make(chan SeatRename, inboxBuffer),
	}
}

// Route forwards a decoded record, or the error from decoding it, to the
// channel for its purpose. It blocks until there is room or ctx is done.
func (in *Inbox) Route(ctx context.Context, seat int, rec protocol.Inbound, decodeErr error) error {
	if decodeErr != nil {
		return send(ctx, in.Actions, SeatAction{Seat: seat, Err: decodeErr})
	}
	switch rec.Kind {
	case protocol.KindAction:
		return send(ctx, in.Actions, SeatAction{Seat: seat, Action: rec.Action})
	case protocol.KindCommand:
		if rec.Command.IsDecision() {
			return send(ctx, in.Decisions, SeatCommand{Seat: seat, Command: rec.Command})
		}
		return send(ctx, in.Lobby, SeatCommand{Seat: seat, Command: rec.Command})
	case protocol.KindHello:
		return send(ctx, in.Renames, SeatRename{Seat: seat, Name: rec.Hello.Name})
	}
	return nil
}

// Join announces a newly admitted seat
func (in *Inbox) Join(ctx context.Context, seat int) error {
	return send(ctx, in.Joins, seat)
}

// Depart announces a closed connection
func (in *Inbox) Depart(ctx context.Context, seat int) error {
	return send(ctx, in.Departures, seat)
}

func send[T any](ctx context.Context, ch chan<- T, v T) error {
	select {
	case ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
