package game

import (
	"errors"
	"io"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
	"github.com/WTCSC/sockets-to-em-casino-day/poker"
)

var errSeatGone = errors.New("seat gone")

type delivery struct {
	seat int
	typ  string
	msg  any
}

// fakeNotifier records every record delivered to every seat
type fakeNotifier struct {
	mu          sync.Mutex
	seats       int
	closed      map[int]bool
	deliveries  []delivery
	disconnects []int
}

func newFakeNotifier(seats int) *fakeNotifier {
	return &fakeNotifier{seats: seats, closed: make(map[int]bool)}
}

func (f *fakeNotifier) Send(seat int, msg any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed[seat] {
		return errSeatGone
	}
	f.deliveries = append(f.deliveries, delivery{seat: seat, typ: recordType(msg), msg: msg})
	return nil
}

func (f *fakeNotifier) Broadcast(msg any, exclude ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for seat := 0; seat < f.seats; seat++ {
		if f.closed[seat] || slices.Contains(exclude, seat) {
			continue
		}
		f.deliveries = append(f.deliveries, delivery{seat: seat, typ: recordType(msg), msg: msg})
	}
}

func (f *fakeNotifier) Disconnect(seat int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed[seat] {
		f.closed[seat] = true
		f.disconnects = append(f.disconnects, seat)
	}
}

func (f *fakeNotifier) addSeat() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seats++
}

func (f *fakeNotifier) count(seat int, typ string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, d := range f.deliveries {
		if d.seat == seat && d.typ == typ {
			n++
		}
	}
	return n
}

// prompts returns the seats sent YOUR_TURN, in order
func (f *fakeNotifier) prompts() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int
	for _, d := range f.deliveries {
		if d.typ == protocol.TypeYourTurn {
			out = append(out, d.seat)
		}
	}
	return out
}

func (f *fakeNotifier) waitFor(t *testing.T, seat int, typ string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return f.count(seat, typ) >= n },
		2*time.Second, time.Millisecond, "seat %d never received %d %s", seat, n, typ)
}

// received returns every record of type T delivered to seat
func received[T any](f *fakeNotifier, seat int) []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []T
	for _, d := range f.deliveries {
		if m, ok := d.msg.(T); ok && d.seat == seat {
			out = append(out, m)
		}
	}
	return out
}

func recordType(msg any) string {
	line, err := protocol.Encode(msg)
	if err != nil {
		return ""
	}
	typ, _, _ := protocol.Peek(line)
	return typ
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

type harness struct {
	table  *Table
	inbox  *Inbox
	notify *fakeNotifier
	driver *Driver
	clock  *quartz.Mock
}

// newHarness seats n players with a closed lobby. deck lists the cards dealt
// first: two per dealt seat in join order, then flop, turn and river.
func newHarness(t *testing.T, n int, deck ...string) *harness {
	t.Helper()
	h := newLobbyHarness(t, DefaultLobbyConfig(), deck...)
	for i := 0; i < n; i++ {
		h.join(t)
	}
	h.table.CloseLobby()
	h.drainJoins()
	h.driver.sessionID = uuid.New()
	return h
}

func newLobbyHarness(t *testing.T, cfg LobbyConfig, deck ...string) *harness {
	t.Helper()
	table := NewTable(cfg)
	inbox := NewInbox()
	notify := newFakeNotifier(0)
	clock := quartz.NewMock(t)

	opts := Options{Blind: 10}
	if deck != nil {
		cards := poker.MustParseCards(deck...)
		opts.Deck = func() *poker.Deck { return poker.NewStackedDeck(cards) }
	} else {
		opts.Deck = func() *poker.Deck { return poker.NewStackedDeck(nil) }
	}
	return &harness{
		table:  table,
		inbox:  inbox,
		notify: notify,
		driver: NewDriver(table, inbox, notify, testLogger(), clock, opts),
		clock:  clock,
	}
}

func (h *harness) join(t *testing.T) int {
	t.Helper()
	seat, err := h.table.AddSeat("")
	require.NoError(t, err)
	h.notify.addSeat()
	h.inbox.Joins <- seat
	return seat
}

func (h *harness) act(seat int, verb string, amount ...int) {
	a := protocol.Action{Action: verb}
	if len(amount) > 0 {
		a.Amount = amount[0]
	}
	h.inbox.Actions <- SeatAction{Seat: seat, Action: a}
}

func (h *harness) claim(seat int, verb string, amount, claimed int) {
	h.inbox.Actions <- SeatAction{Seat: seat, Action: protocol.Action{Action: verb, Amount: amount, ClaimedScore: claimed}}
}

func (h *harness) command(seat int, cmd, value string) {
	c := SeatCommand{Seat: seat, Command: protocol.Command{Cmd: cmd, Value: value}}
	if c.Command.IsDecision() {
		h.inbox.Decisions <- c
		return
	}
	h.inbox.Lobby <- c
}

func (h *harness) chips(t *testing.T, seat int) int {
	t.Helper()
	s, ok := h.table.Seat(seat)
	require.True(t, ok)
	return s.Chips
}

// drainJoins discards join events queued by newHarness
func (h *harness) drainJoins() {
	for {
		select {
		case <-h.inbox.Joins:
		default:
			return
		}
	}
}
