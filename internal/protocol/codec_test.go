package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeActions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		line string
		want Action
	}{
		{"fold", `{"action":"FOLD"}`, Action{Action: ActionFold}},
		{"lower case verb", `{"action":"check"}`, Action{Action: ActionCheck}},
		{"bet with number", `{"action":"bet","amount":50}`, Action{Action: ActionBet, Amount: 50}},
		{"raise with string amount", `{"action":"RAISE","amount":"120"}`, Action{Action: ActionRaise, Amount: 120}},
		{"claimed score", `{"action":"BET","amount":20,"claimed_score":3}`, Action{Action: ActionBet, Amount: 20, ClaimedScore: 3}},
		{"padded verb", `{"action":"  call "}`, Action{Action: ActionCall}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			in, err := Decode([]byte(tc.line))
			require.NoError(t, err)
			require.Equal(t, KindAction, in.Kind)
			assert.Equal(t, tc.want, in.Action)
		})
	}
}

func TestDecodeCommands(t *testing.T) {
	t.Parallel()

	in, err := Decode([]byte(`{"cmd":"players","value":"4"}`))
	require.NoError(t, err)
	require.Equal(t, KindCommand, in.Kind)
	assert.Equal(t, Command{Cmd: CmdPlayers, Value: "4"}, in.Command)
	assert.False(t, in.Command.IsDecision())

	in, err = Decode([]byte(`{"cmd":"CHIPS","value":500}`))
	require.NoError(t, err)
	assert.Equal(t, "500", in.Command.Value)

	in, err = Decode([]byte(`{"cmd":"play  again"}`))
	require.NoError(t, err)
	assert.Equal(t, CmdPlayAgain, in.Command.Cmd)
	assert.True(t, in.Command.IsDecision())

	in, err = Decode([]byte(`{"cmd":"End"}`))
	require.NoError(t, err)
	assert.True(t, in.Command.IsDecision())
}

func TestDecodeHello(t *testing.T) {
	t.Parallel()
	in, err := Decode([]byte(`{"type":"HELLO","name":"  Ada "}`))
	require.NoError(t, err)
	require.Equal(t, KindHello, in.Kind)
	assert.Equal(t, "Ada", in.Hello.Name)
}

func TestDecodeRejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		line string
		want error
	}{
		{"not json", `BET 50`, ErrMalformed},
		{"array", `[1,2]`, ErrMalformed},
		{"null", `null`, ErrMalformed},
		{"non numeric amount", `{"action":"BET","amount":"lots"}`, ErrMalformed},
		{"fractional amount", `{"action":"BET","amount":2.5}`, ErrMalformed},
		{"boolean amount", `{"action":"RAISE","amount":true}`, ErrMalformed},
		{"boolean claim", `{"action":"BET","amount":5,"claimed_score":false}`, ErrMalformed},
		{"boolean value", `{"cmd":"ROUNDS","value":true}`, ErrMalformed},
		{"no discriminator", `{"amount":5}`, ErrUnknownRecord},
		{"unknown type", `{"type":"ping"}`, ErrUnknownRecord},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode([]byte(tc.line))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestEncodeIsOneLine(t *testing.T) {
	t.Parallel()
	data, err := Encode(YourTurn{
		Type:       TypeYourTurn,
		Stage:      "Flop",
		Pot:        120,
		Chips:      940,
		Hand:       []string{"As", "Kd"},
		Community:  []string{"2c", "7h", "Td"},
		CurrentBet: 20,
		Wager:      0,
		ToCall:     20,
	})
	require.NoError(t, err)
	require.Equal(t, byte('\n'), data[len(data)-1])
	assert.NotContains(t, string(data[:len(data)-1]), "\n")
	assert.Contains(t, string(data), `"to_call":20`)
	assert.Contains(t, string(data), `"type":"YOUR_TURN"`)
}

func TestPeekAndAs(t *testing.T) {
	t.Parallel()
	line, err := Encode(Winner{
		Type:      TypeWinner,
		Winners:   []string{"Player 1", "Player 2"},
		Seats:     []int{0, 1},
		Amount:    50,
		Pot:       101,
		Remainder: 1,
		Reason:    "split",
		Hand:      "Two Pair",
		Chips:     map[string]int{"Player 1": 1050, "Player 2": 950},
	})
	require.NoError(t, err)

	typ, fields, err := Peek(line)
	require.NoError(t, err)
	require.Equal(t, TypeWinner, typ)

	var w Winner
	require.NoError(t, As(fields, &w))
	assert.Equal(t, []int{0, 1}, w.Seats)
	assert.Equal(t, 1, w.Remainder)
	assert.Equal(t, 1050, w.Chips["Player 1"])

	_, _, err = Peek([]byte(`{"message":"hi"}`))
	assert.ErrorIs(t, err, ErrUnknownRecord)
}
