package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
)

func runLobbyAsync(h *harness) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- h.driver.runLobby(context.Background()) }()
	return errCh
}

func waitErr(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("lobby did not finish")
		return nil
	}
}

func TestLobbyRejectsOutOfRangeCommands(t *testing.T) {
	h := newLobbyHarness(t, DefaultLobbyConfig())
	h.join(t)
	errCh := runLobbyAsync(h)
	before := h.table.Config()

	rejected := []struct{ cmd, value string }{
		{protocol.CmdPlayers, "1"},
		{protocol.CmdPlayers, "7"},
		{protocol.CmdChips, "10"},
		{protocol.CmdRounds, "0"},
		{protocol.CmdRounds, "21"},
		{protocol.CmdRounds, "many"},
		{"SHUFFLE", ""},
		{protocol.CmdStart, ""},
	}
	for _, c := range rejected {
		h.command(0, c.cmd, c.value)
	}
	h.notify.waitFor(t, 0, protocol.TypeError, len(rejected))

	assert.Equal(t, before, h.table.Config())
	assert.True(t, h.table.LobbyOpen())

	errs := received[protocol.Error](h.notify, 0)
	assert.Contains(t, errs[5].Message, ErrNotANumber.Error())
	assert.Contains(t, errs[6].Message, ErrUnknownCommand.Error())
	assert.Contains(t, errs[7].Message, ErrNotEnoughPlayers.Error())

	h.join(t)
	h.command(0, protocol.CmdStart, "")
	require.NoError(t, waitErr(t, errCh))
}

func TestLobbyConfiguresAndStarts(t *testing.T) {
	h := newLobbyHarness(t, DefaultLobbyConfig())
	h.join(t)
	h.join(t)
	h.join(t)
	errCh := runLobbyAsync(h)

	h.command(0, protocol.CmdPlayers, "2")
	h.command(0, protocol.CmdPlayers, "4")
	h.command(0, protocol.CmdChips, "500")
	h.command(0, protocol.CmdRounds, "5")
	h.command(1, protocol.CmdRounds, "9")
	h.notify.waitFor(t, 1, protocol.TypeError, 1)
	h.command(0, protocol.CmdStart, "")

	require.NoError(t, waitErr(t, errCh))
	assert.Equal(t, LobbyConfig{MaxSeats: 4, StartingChips: 500, Rounds: 5}, h.table.Config())
	assert.False(t, h.table.LobbyOpen())
	for _, s := range h.table.Seats() {
		assert.Equal(t, 500, s.Chips)
		assert.True(t, s.Active)
	}

	assert.Equal(t, protocol.CodeNotHost, received[protocol.Error](h.notify, 1)[0].Code)
	// PLAYERS 2 with three seated is below the connected count
	assert.Equal(t, 1, h.notify.count(0, protocol.TypeError))
	assert.Equal(t, 1, h.notify.count(0, protocol.TypeLobbyPrompt))
	assert.Zero(t, h.notify.count(1, protocol.TypeLobbyPrompt))

	_, err := h.table.AddSeat("late")
	assert.ErrorIs(t, err, ErrLobbyClosed)
}

func TestLobbyHostLost(t *testing.T) {
	h := newLobbyHarness(t, DefaultLobbyConfig())
	h.join(t)
	h.join(t)
	errCh := runLobbyAsync(h)

	h.inbox.Departures <- 0
	err := waitErr(t, errCh)
	assert.True(t, errors.Is(err, ErrHostLost))
}

func TestLobbyGuestLeaves(t *testing.T) {
	h := newLobbyHarness(t, DefaultLobbyConfig())
	h.join(t)
	h.join(t)
	h.join(t)
	errCh := runLobbyAsync(h)

	h.inbox.Departures <- 2
	h.inbox.Renames <- SeatRename{Seat: 1, Name: "Grace"}
	require.Eventually(t, func() bool {
		statuses := received[protocol.LobbyStatus](h.notify, 0)
		if len(statuses) == 0 {
			return false
		}
		last := statuses[len(statuses)-1]
		return last.Connected == 2 && len(last.Names) == 2 && last.Names[1] == "Grace"
	}, 2*time.Second, time.Millisecond)

	h.command(0, protocol.CmdStart, "")
	require.NoError(t, waitErr(t, errCh))

	s, _ := h.table.Seat(2)
	assert.False(t, s.Active)
	assert.Equal(t, 2, h.table.Playable())
}

func TestLobbyRenameQueuedBeforeStartIsKept(t *testing.T) {
	for i := 0; i < 25; i++ {
		h := newLobbyHarness(t, DefaultLobbyConfig())
		h.join(t)
		h.join(t)
		h.inbox.Renames <- SeatRename{Seat: 1, Name: "Grace"}
		h.command(0, protocol.CmdStart, "")

		require.NoError(t, waitErr(t, runLobbyAsync(h)))
		s, _ := h.table.Seat(1)
		assert.Equal(t, "Grace", s.Name, "run %d", i)
		assert.Zero(t, h.notify.count(1, protocol.TypeError), "run %d", i)
	}
}

func TestTableFull(t *testing.T) {
	t.Parallel()
	table := NewTable(LobbyConfig{MaxSeats: 2, StartingChips: 100, Rounds: 1})
	_, err := table.AddSeat("")
	require.NoError(t, err)
	_, err = table.AddSeat("")
	require.NoError(t, err)
	_, err = table.AddSeat("")
	assert.ErrorIs(t, err, ErrTableFull)

	require.True(t, table.Disconnect(1))
	idx, err := table.AddSeat("")
	require.NoError(t, err)
	assert.Equal(t, 2, idx, "indices are never reused")
}
