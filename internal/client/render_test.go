package client

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
)

func render(t *testing.T, msg any) string {
	t.Helper()
	line, err := protocol.Encode(msg)
	require.NoError(t, err)
	typ, fields, err := protocol.Peek(line)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, NewRenderer(&out, termenv.WithProfile(termenv.Ascii)).Render(typ, fields))
	return out.String()
}

func TestRenderRecords(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		msg  any
		want []string
	}{
		{"waiting", protocol.Waiting{Type: protocol.TypeWaiting, Seat: 1, Name: "Player 2", Message: "Waiting for the host"},
			[]string{"Seated as Player 2 (seat 1)", "Waiting for the host"}},
		{"lobby", protocol.LobbyStatus{Type: protocol.TypeLobbyStatus, Players: 6, Chips: 1000, Rounds: 3, Connected: 2, Names: []string{"Ada", "Bob"}},
			[]string{"2/6 seated (Ada, Bob)", "1000 chips", "3 rounds"}},
		{"round", protocol.RoundStart{Type: protocol.TypeRoundStart, Round: 2, Of: 5}, []string{"Round 2 of 5"}},
		{"hand", protocol.Hand{Type: protocol.TypeHand, Cards: []string{"As", "Th"}, Chips: 990},
			[]string{"Ace of Spades, 10 of Hearts", "990 chips"}},
		{"community", protocol.Community{Type: protocol.TypeCommunity, Stage: "Flop", Cards: []string{"2c", "3d", "Kh"}},
			[]string{"Flop: 2 of Clubs, 3 of Diamonds, King of Hearts"}},
		{"turn to call", protocol.YourTurn{Type: protocol.TypeYourTurn, Stage: "Turn", Hand: []string{"As", "Ad"}, ToCall: 30},
			[]string{"Your turn (Turn)", "CALL (30)", "RAISE n"}},
		{"turn to check", protocol.YourTurn{Type: protocol.TypeYourTurn, Stage: "Pre-Flop", Hand: []string{"As", "Ad"}},
			[]string{"CHECK", "BET n"}},
		{"action", protocol.ActionTaken{Type: protocol.TypeAction, Name: "Ada", Action: "RAISE", Amount: 50, Pot: 120},
			[]string{"Ada raise 50 chips. Pot: 120 chips"}},
		{"showdown", protocol.Showdown{Type: protocol.TypeShowdown, Community: []string{"2c"}, Hands: []protocol.ShowdownHand{
			{Name: "Ada", Cards: []string{"As", "Ad"}, Label: "One Pair"},
		}}, []string{"Showdown", "Ada", "One Pair"}},
		{"single winner", protocol.Winner{Type: protocol.TypeWinner, Winners: []string{"Ada"}, Amount: 220, Pot: 220,
			Reason: "showdown", Hand: "Flush", Chips: map[string]int{"Bob": 940, "Ada": 1060}},
			[]string{"Ada wins 220 with Flush", "Chips: Ada 1060, Bob 940"}},
		{"split", protocol.Winner{Type: protocol.TypeWinner, Winners: []string{"Ada", "Bob"}, Amount: 50, Pot: 101,
			Remainder: 1, Hand: "Two Pair"},
			[]string{"Ada and Bob split the pot of 101, 50 each", "1 chip(s) could not be split"}},
		{"last remaining", protocol.Winner{Type: protocol.TypeWinner, Winners: []string{"Bob"}, Amount: 20, Reason: "last remaining"},
			[]string{"Bob wins 20 (last remaining)"}},
		{"error", protocol.Error{Type: protocol.TypeError, Code: protocol.CodeIllegal, Message: "cannot check, must call 20"},
			[]string{"Error: cannot check, must call 20"}},
		{"game over", protocol.GameOver{Type: protocol.TypeGameOver, Standings: []protocol.PlayerInfo{{Name: "Ada", Chips: 1200}, {Name: "Bob", Chips: 800}}},
			[]string{"Game over", "1. Ada", "2. Bob"}},
		{"decision", protocol.DecisionPrompt{Type: protocol.TypeDecisionPrompt, Message: "Play again?", Options: []string{"PLAY AGAIN", "END"}},
			[]string{"Play again?", "[PLAY AGAIN / END]"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := render(t, tc.msg)
			for _, want := range tc.want {
				assert.Contains(t, got, want)
			}
			assert.NotContains(t, got, "\x1b[", "ascii profile emits no escapes")
		})
	}
}

func TestRenderUnknownType(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	r := NewRenderer(&out, termenv.WithProfile(termenv.Ascii))
	require.NoError(t, r.Render("FUTURE", map[string]any{"type": "FUTURE"}))
	assert.Contains(t, out.String(), "(FUTURE)")
}
