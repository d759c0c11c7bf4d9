// Package game runs a single poker table: the host-configured lobby, sessions
// of rounds, the per-street betting state machine and pot resolution.
//
// # Ownership
//
// A Driver owns all game state. It reads seat events from an Inbox, whose
// channels are filled by connection goroutines, and writes records through a
// Notifier:
//
//	table := game.NewTable(game.DefaultLobbyConfig())
//	inbox := game.NewInbox()
//	d := game.NewDriver(table, inbox, notifier, logger, quartz.NewReal(), game.Options{})
//	err := d.Run(ctx)
//
// Joins, departures, betting actions, lobby commands, renames and the host's
// end-of-session decision each arrive on their own channel, so an input sent
// at the wrong time is answered with an ERROR instead of being consumed by
// the wrong phase.
//
// # Deterministic Testing
//
// Options.Deck replaces the per-round shuffle, and a quartz mock clock
// controls the pause between rounds:
//
//	opts := game.Options{Deck: func() *poker.Deck {
//		return poker.NewStackedDeck(poker.MustParseCards("As", "Kd", "Qh", "Jc"))
//	}}
//
// # Rules
//
// Every dealt seat posts the same forced blind. There are no side pots: an
// all-in seat's short call still leaves the pot whole, and a tied pot is
// split by floor division with the remainder reported and dropped.
package game
