package server

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/results"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Server.Port = 0
	cfg.Table.RoundPause = ""
	cfg.Table.Seed = 7
	return cfg
}

func startServer(t *testing.T, cfg *Config) (*Server, <-chan error, context.CancelFunc) {
	t.Helper()
	srv, err := New(cfg, testLogger(), quartz.NewReal())
	require.NoError(t, err)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()
	return srv, errCh, cancel
}

// lineClient is a raw TCP participant
type lineClient struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func dial(t *testing.T, addr net.Addr) *lineClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr.String(), 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &lineClient{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

func (c *lineClient) send(line string) {
	c.t.Helper()
	_, err := c.conn.Write([]byte(line + "\n"))
	require.NoError(c.t, err)
}

// next reads one record and returns its type and fields
func (c *lineClient) next() (string, map[string]any) {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	line, err := c.reader.ReadBytes('\n')
	require.NoError(c.t, err)
	typ, fields, err := protocol.Peek(line)
	require.NoError(c.t, err, "record %q", line)
	return typ, fields
}

// until skips records until one of type typ arrives
func (c *lineClient) until(typ string) map[string]any {
	c.t.Helper()
	for {
		got, fields := c.next()
		if got == typ {
			return fields
		}
	}
}

func (c *lineClient) expectEOF() {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, err := c.reader.ReadBytes('\n')
		if err != nil {
			assert.ErrorIs(c.t, err, io.EOF)
			return
		}
	}
}

func TestServerPlaysSessionOverTCP(t *testing.T) {
	cfg := testConfig()
	cfg.Server.ResultsFile = filepath.Join(t.TempDir(), "results.json")
	srv, errCh, _ := startServer(t, cfg)

	host := dial(t, srv.Addr())
	typ, fields := host.next()
	require.Equal(t, protocol.TypeWaiting, typ)
	var waiting protocol.Waiting
	require.NoError(t, protocol.As(fields, &waiting))
	assert.Equal(t, 0, waiting.Seat)
	assert.True(t, waiting.Host)
	host.until(protocol.TypeLobbyPrompt)

	guest := dial(t, srv.Addr())
	typ, fields = guest.next()
	require.Equal(t, protocol.TypeWaiting, typ)
	require.NoError(t, protocol.As(fields, &waiting))
	assert.Equal(t, 1, waiting.Seat)
	assert.False(t, waiting.Host)

	guest.send(`{"cmd":"start"}`)
	var errRec protocol.Error
	require.NoError(t, protocol.As(guest.until(protocol.TypeError), &errRec))
	assert.Equal(t, protocol.CodeNotHost, errRec.Code)

	host.send(`{"cmd":"ROUNDS","value":1}`)
	host.send(`{"cmd":" start "}`)

	var start protocol.SessionStart
	require.NoError(t, protocol.As(guest.until(protocol.TypeSessionStart), &start))
	assert.Equal(t, 1, start.Rounds)
	assert.Len(t, start.Players, 2)

	var hand protocol.Hand
	require.NoError(t, protocol.As(host.until(protocol.TypeHand), &hand))
	assert.Len(t, hand.Cards, 2)

	host.until(protocol.TypeYourTurn)
	host.send(`not json`)
	require.NoError(t, protocol.As(host.until(protocol.TypeError), &errRec))
	assert.Equal(t, protocol.CodeMalformed, errRec.Code)
	host.until(protocol.TypeYourTurn)
	host.send(`{"action":"fold"}`)

	var winner protocol.Winner
	require.NoError(t, protocol.As(guest.until(protocol.TypeWinner), &winner))
	assert.Equal(t, []int{1}, winner.Seats)
	assert.Equal(t, 20, winner.Amount)

	var over protocol.GameOver
	require.NoError(t, protocol.As(host.until(protocol.TypeGameOver), &over))
	require.Len(t, over.Standings, 2)
	assert.Equal(t, 1010, over.Standings[0].Chips)

	host.until(protocol.TypeDecisionPrompt)
	host.send(`{"cmd":"END"}`)
	guest.until(protocol.TypeClosed)
	host.until(protocol.TypeClosed)
	guest.expectEOF()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after END")
	}

	entries, err := results.NewLog(cfg.Server.ResultsFile).Load()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, over.SessionID, entries[0].SessionID)
	assert.Equal(t, over.Standings, entries[0].Standings)
}

func TestServerRefusesWhenFull(t *testing.T) {
	cfg := testConfig()
	cfg.Table.MaxSeats = 2
	srv, _, cancel := startServer(t, cfg)

	first := dial(t, srv.Addr())
	first.until(protocol.TypeWaiting)
	second := dial(t, srv.Addr())
	second.until(protocol.TypeWaiting)

	third := dial(t, srv.Addr())
	typ, fields := third.next()
	require.Equal(t, protocol.TypeError, typ)
	var errRec protocol.Error
	require.NoError(t, protocol.As(fields, &errRec))
	assert.Equal(t, protocol.CodeLobby, errRec.Code)
	assert.Contains(t, errRec.Message, "full")
	third.expectEOF()

	cancel()
}

func TestServerHostLeavingLobbyStops(t *testing.T) {
	srv, errCh, _ := startServer(t, testConfig())

	host := dial(t, srv.Addr())
	host.until(protocol.TypeLobbyPrompt)
	guest := dial(t, srv.Addr())
	guest.until(protocol.TypeWaiting)
	require.NoError(t, host.conn.Close())

	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop when the host left")
	}
	guest.expectEOF()
}

func TestServerCancelIsClean(t *testing.T) {
	srv, errCh, cancel := startServer(t, testConfig())
	client := dial(t, srv.Addr())
	client.until(protocol.TypeWaiting)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server ignored cancellation")
	}
	client.expectEOF()
}

func TestWebSocketAdmitsNamedSeat(t *testing.T) {
	srv, err := New(testConfig(), testLogger(), quartz.NewReal())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ts := httptest.NewServer(srv.httpServer(ctx).Handler)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?name=Ada"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	typ, fields, err := protocol.Peek(data)
	require.NoError(t, err)
	require.Equal(t, protocol.TypeWaiting, typ)

	var waiting protocol.Waiting
	require.NoError(t, protocol.As(fields, &waiting))
	assert.Equal(t, "Ada", waiting.Name)
	assert.True(t, waiting.Host)
	assert.Equal(t, 1, srv.table.ConnectedCount())

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK lobby 1/6\n", string(body))
}
