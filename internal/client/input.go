package client

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
	"github.com/WTCSC/sockets-to-em-casino-day/poker"
)

var (
	ErrEmptyInput   = errors.New("nothing entered")
	ErrUnknownInput = errors.New("unknown command")
	ErrBadAmount    = errors.New("amount must be a positive whole number")
	ErrBadClaim     = errors.New("claim must be a hand score from 0 to 9")
	ErrMissingValue = errors.New("missing value")
)

// Input is one parsed line of user input. Exactly one of Action, Command or
// Hello is set.
type Input struct {
	Action  *protocol.Action
	Command *protocol.Command
	Hello   *protocol.Hello

	// Claimed is true when the user supplied CLAIM explicitly
	Claimed bool
}

// Record returns the wire record for the input
func (in Input) Record() any {
	switch {
	case in.Action != nil:
		return *in.Action
	case in.Command != nil:
		return *in.Command
	default:
		return *in.Hello
	}
}

// ParseInput reads a line such as "bet 50 claim 1", "call", "rounds 5" or
// "play again". Words are case-insensitive.
func ParseInput(line string) (Input, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Input{}, ErrEmptyInput
	}
	verb := strings.ToUpper(fields[0])
	args := fields[1:]

	switch verb {
	case protocol.ActionBet, protocol.ActionRaise:
		if len(args) == 0 {
			return Input{}, fmt.Errorf("%s: %w", verb, ErrMissingValue)
		}
		amount, err := strconv.Atoi(args[0])
		if err != nil || amount <= 0 {
			return Input{}, fmt.Errorf("%s %q: %w", verb, args[0], ErrBadAmount)
		}
		in := Input{Action: &protocol.Action{Action: verb, Amount: amount}}
		if err := parseClaim(&in, args[1:]); err != nil {
			return Input{}, err
		}
		return in, nil

	case protocol.ActionCall, protocol.ActionCheck, protocol.ActionFold, protocol.ActionQuit:
		if len(args) > 0 {
			return Input{}, fmt.Errorf("%s takes no value", verb)
		}
		return Input{Action: &protocol.Action{Action: verb}}, nil

	case protocol.CmdPlayers, protocol.CmdChips, protocol.CmdRounds:
		if len(args) != 1 {
			return Input{}, fmt.Errorf("%s: %w", verb, ErrMissingValue)
		}
		if _, err := strconv.Atoi(args[0]); err != nil {
			return Input{}, fmt.Errorf("%s %q: not a number", verb, args[0])
		}
		return Input{Command: &protocol.Command{Cmd: verb, Value: args[0]}}, nil

	case protocol.CmdStart, protocol.CmdEnd:
		if len(args) > 0 {
			return Input{}, fmt.Errorf("%s takes no value", verb)
		}
		return Input{Command: &protocol.Command{Cmd: verb}}, nil

	case "PLAY":
		if len(args) == 1 && strings.EqualFold(args[0], "again") {
			return Input{Command: &protocol.Command{Cmd: protocol.CmdPlayAgain}}, nil
		}

	case "NAME":
		name := strings.TrimSpace(strings.Join(args, " "))
		if name == "" {
			return Input{}, fmt.Errorf("NAME: %w", ErrMissingValue)
		}
		return Input{Hello: &protocol.Hello{Type: protocol.TypeHello, Name: name}}, nil
	}

	return Input{}, fmt.Errorf("%w: %s", ErrUnknownInput, strings.Join(fields, " "))
}

func parseClaim(in *Input, args []string) error {
	if len(args) == 0 {
		return nil
	}
	if len(args) != 2 || !strings.EqualFold(args[0], "claim") {
		return fmt.Errorf("%w: %s", ErrUnknownInput, strings.Join(args, " "))
	}
	score, err := strconv.Atoi(args[1])
	if err != nil || score < int(poker.HighCard) || score > int(poker.RoyalFlush) {
		return fmt.Errorf("%q: %w", args[1], ErrBadClaim)
	}
	in.Action.ClaimedScore = score
	in.Claimed = true
	return nil
}

// HonestClaim scores what the seat actually holds, for attaching to a bet
func HonestClaim(turn protocol.YourTurn) (int, error) {
	cards, err := poker.ParseCards(append(append([]string{}, turn.Hand...), turn.Community...)...)
	if err != nil {
		return 0, err
	}
	score, err := poker.Strength(cards)
	if err != nil {
		return 0, err
	}
	return int(score), nil
}
