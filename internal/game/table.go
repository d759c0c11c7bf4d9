package game

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/WTCSC/sockets-to-em-casino-day/poker"
)

// Lobby bounds
const (
	MinSeats         = 2
	MaxSeats         = 6
	MinStartingChips = 50
	MinRounds        = 1
	MaxRounds        = 20
)

var (
	ErrLobbyClosed  = errors.New("lobby is closed")
	ErrTableFull    = errors.New("table is full")
	ErrOutOfRange   = errors.New("value out of range")
	ErrInvalidName  = errors.New("invalid name")
	ErrUnknownSeat  = errors.New("unknown seat")
	ErrSeatInactive = errors.New("seat cannot act")

	ErrCannotCheck       = errors.New("cannot check")
	ErrInvalidAmount     = errors.New("amount must be a positive integer")
	ErrInsufficientChips = errors.New("insufficient chips")
)

// LobbyConfig is the host-adjustable configuration of a table
type LobbyConfig struct {
	MaxSeats      int
	StartingChips int
	Rounds        int
}

// DefaultLobbyConfig returns the configuration a new lobby opens with
func DefaultLobbyConfig() LobbyConfig {
	return LobbyConfig{MaxSeats: MaxSeats, StartingChips: 1000, Rounds: 3}
}

// Validate checks every field against the lobby bounds
func (c LobbyConfig) Validate() error {
	if c.MaxSeats < MinSeats || c.MaxSeats > MaxSeats {
		return fmt.Errorf("%w: players must be between %d and %d", ErrOutOfRange, MinSeats, MaxSeats)
	}
	if c.StartingChips < MinStartingChips {
		return fmt.Errorf("%w: chips must be at least %d", ErrOutOfRange, MinStartingChips)
	}
	if c.Rounds < MinRounds || c.Rounds > MaxRounds {
		return fmt.Errorf("%w: rounds must be between %d and %d", ErrOutOfRange, MinRounds, MaxRounds)
	}
	return nil
}

// Seat is a participant's game record. Values returned by Table are
// snapshots; mutating them does not affect the table.
type Seat struct {
	Index       int
	Name        string
	Chips       int
	Hole        []poker.Card
	Folded      bool
	Wager       int // this street
	Contributed int // this round
	Active      bool
	Connected   bool
}

// IsHost reports whether the seat holds lobby and replay privileges
func (s Seat) IsHost() bool { return s.Index == 0 }

// Table is the shared, lock-guarded state of one game. Every method takes
// the table mutex; round progression happens on the driver goroutine only.
type Table struct {
	mu sync.Mutex

	seats      []*Seat
	pot        int
	currentBet int
	community  []poker.Card
	deck       *poker.Deck

	config    LobbyConfig
	lobbyOpen bool
}

// NewTable creates a table with an open lobby
func NewTable(config LobbyConfig) *Table {
	return &Table{config: config, lobbyOpen: true}
}

// AddSeat admits a participant while the lobby is open and returns the seat
// index. The first seat is the host.
func (t *Table) AddSeat(name string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.lobbyOpen {
		return 0, ErrLobbyClosed
	}
	if t.connectedLocked() >= t.config.MaxSeats {
		return 0, fmt.Errorf("%w: %d of %d seats taken", ErrTableFull, t.connectedLocked(), t.config.MaxSeats)
	}

	idx := len(t.seats)
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Player %d", idx+1)
	}
	t.seats = append(t.seats, &Seat{
		Index:     idx,
		Name:      name,
		Chips:     t.config.StartingChips,
		Active:    true,
		Connected: true,
	})
	return idx, nil
}

// Rename changes a seat's display name while the lobby is open
func (t *Table) Rename(idx int, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.lobbyOpen {
		return ErrLobbyClosed
	}
	s, err := t.seatLocked(idx)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 24 {
		return fmt.Errorf("%w: names must be 1-24 characters", ErrInvalidName)
	}
	s.Name = name
	return nil
}

// Config returns the current lobby configuration
func (t *Table) Config() LobbyConfig {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.config
}

// SetMaxSeats changes the seat limit. It cannot drop below the number of
// seats already connected.
func (t *Table) SetMaxSeats(n int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.lobbyOpen {
		return ErrLobbyClosed
	}
	cfg := t.config
	cfg.MaxSeats = n
	if err := cfg.Validate(); err != nil {
		return err
	}
	if connected := t.connectedLocked(); n < connected {
		return fmt.Errorf("%w: %d players already seated", ErrOutOfRange, connected)
	}
	t.config = cfg
	return nil
}

// SetStartingChips changes the stack every seat starts the session with
func (t *Table) SetStartingChips(n int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.lobbyOpen {
		return ErrLobbyClosed
	}
	cfg := t.config
	cfg.StartingChips = n
	if err := cfg.Validate(); err != nil {
		return err
	}
	t.config = cfg
	for _, s := range t.seats {
		s.Chips = n
	}
	return nil
}

// SetRounds changes the number of rounds in a session
func (t *Table) SetRounds(n int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.lobbyOpen {
		return ErrLobbyClosed
	}
	cfg := t.config
	cfg.Rounds = n
	if err := cfg.Validate(); err != nil {
		return err
	}
	t.config = cfg
	return nil
}

// LobbyOpen reports whether joins and configuration are still accepted
func (t *Table) LobbyOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lobbyOpen
}

// CloseLobby stops admitting seats and gives every connected seat the
// starting stack.
func (t *Table) CloseLobby() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lobbyOpen = false
	for _, s := range t.seats {
		s.Chips = t.config.StartingChips
		s.Active = s.Connected
	}
}

// ConnectedCount returns the number of seats with an open connection
func (t *Table) ConnectedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connectedLocked()
}

// Connected reports whether a seat's connection is still open
func (t *Table) Connected(idx int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, err := t.seatLocked(idx)
	return err == nil && s.Connected
}

// Disconnect records a lost connection: the seat folds and is out for the
// rest of the session. It returns false if the seat was already gone.
func (t *Table) Disconnect(idx int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.seatLocked(idx)
	if err != nil || !s.Connected {
		return false
	}
	s.Connected = false
	s.Active = false
	s.Folded = true
	return true
}

// Deactivate removes a seat from play for the rest of the session (quit or
// kick). Its connection state is unchanged.
func (t *Table) Deactivate(idx int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, err := t.seatLocked(idx); err == nil {
		s.Active = false
		s.Folded = true
	}
}

// Seat returns a snapshot of one seat
func (t *Table) Seat(idx int) (Seat, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.seatLocked(idx)
	if err != nil {
		return Seat{}, false
	}
	return snapshot(s), true
}

// Seats returns snapshots of every seat in join order
func (t *Table) Seats() []Seat {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Seat, len(t.seats))
	for i, s := range t.seats {
		out[i] = snapshot(s)
	}
	return out
}

// Standings returns snapshots of the active seats sorted by chips, largest
// first. Ties keep join order. Seats that quit, were kicked or disconnected
// are left out.
func (t *Table) Standings() []Seat {
	var out []Seat
	for _, s := range t.Seats() {
		if s.Active {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Chips > out[j].Chips })
	return out
}

// StartRound clears the previous round, installs a fresh deck and deals two
// hole cards to every active seat with chips. Seats that cannot play sit the
// round out folded. It returns the dealt seat indices.
func (t *Table) StartRound(deck *poker.Deck) []int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.deck = deck
	t.pot = 0
	t.currentBet = 0
	t.community = nil

	var dealt []int
	for _, s := range t.seats {
		s.Hole = nil
		s.Wager = 0
		s.Contributed = 0
		s.Folded = true
		if !s.Active || s.Chips <= 0 {
			continue
		}
		s.Hole = deck.Deal(2)
		s.Folded = false
		dealt = append(dealt, s.Index)
	}
	return dealt
}

// PostBlind moves the blind from a seat to the pot. A seat that cannot cover
// it posts nothing. The blind does not count toward the street wager.
func (t *Table) PostBlind(idx, amount int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.seatLocked(idx)
	if err != nil || amount <= 0 || s.Chips < amount {
		return 0
	}
	s.Chips -= amount
	s.Contributed += amount
	t.pot += amount
	return amount
}

// DealCommunity reveals n more board cards and returns them
func (t *Table) DealCommunity(n int) []poker.Card {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.deck == nil {
		return nil
	}
	cards := t.deck.Deal(n)
	t.community = append(t.community, cards...)
	return cards
}

// Community returns a copy of the board
func (t *Table) Community() []poker.Card {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]poker.Card(nil), t.community...)
}

// Pot returns the chips in the pot
func (t *Table) Pot() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pot
}

// CurrentBet returns the highest wager on the current street
func (t *Table) CurrentBet() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentBet
}

// TotalChips returns the sum of every stack plus the pot
func (t *Table) TotalChips() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := t.pot
	for _, s := range t.seats {
		total += s.Chips
	}
	return total
}

// ResetStreet zeroes the current bet and every street wager
func (t *Table) ResetStreet() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.currentBet = 0
	for _, s := range t.seats {
		s.Wager = 0
	}
}

// CanAct reports whether a seat still has a decision to make this street:
// in the hand, active, and not all-in.
func (t *Table) CanAct(idx int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.seatLocked(idx)
	return err == nil && canAct(s)
}

// ActionOrder returns the seats that can act, in join order
func (t *Table) ActionOrder() []int {
	t.mu.Lock()
	defer t.mu.Unlock()

	var order []int
	for _, s := range t.seats {
		if canAct(s) {
			order = append(order, s.Index)
		}
	}
	return order
}

// Contenders returns the seats still eligible to win the pot
func (t *Table) Contenders() []int {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []int
	for _, s := range t.seats {
		if s.Active && !s.Folded {
			out = append(out, s.Index)
		}
	}
	return out
}

// Playable returns the number of seats able to take part in another round
func (t *Table) Playable() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, s := range t.seats {
		if s.Active && s.Chips > 0 {
			n++
		}
	}
	return n
}

// Fold folds a seat out of the current round
func (t *Table) Fold(idx int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.actorLocked(idx)
	if err != nil {
		return err
	}
	s.Folded = true
	return nil
}

// Check passes the action. It is only legal with nothing owed.
func (t *Table) Check(idx int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.actorLocked(idx)
	if err != nil {
		return err
	}
	if owed := t.currentBet - s.Wager; owed > 0 {
		return fmt.Errorf("%w, must call %d", ErrCannotCheck, owed)
	}
	return nil
}

// Call matches the current bet, capped at the seat's stack. It returns the
// chips moved; zero means the call was a check.
func (t *Table) Call(idx int) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.actorLocked(idx)
	if err != nil {
		return 0, err
	}
	amount := min(t.currentBet-s.Wager, s.Chips)
	if amount <= 0 {
		return 0, nil
	}
	t.commitLocked(s, amount)
	return amount, nil
}

// CanRaise validates a bet or raise of amount over the current bet without
// applying it.
func (t *Table) CanRaise(idx, amount int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.actorLocked(idx)
	if err != nil {
		return err
	}
	return t.validateRaiseLocked(s, amount)
}

// Raise puts in whatever is owed plus amount. The seat's wager becomes the
// new current bet. It returns the chips moved.
func (t *Table) Raise(idx, amount int) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.actorLocked(idx)
	if err != nil {
		return 0, err
	}
	if err := t.validateRaiseLocked(s, amount); err != nil {
		return 0, err
	}
	moved := t.currentBet - s.Wager + amount
	t.commitLocked(s, moved)
	t.currentBet = s.Wager
	return moved, nil
}

// Award splits the pot evenly between winners and empties it. The floor
// division remainder is returned and not credited to anyone.
func (t *Table) Award(winners []int) (share, remainder int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(winners) == 0 {
		return 0, 0
	}
	share = t.pot / len(winners)
	remainder = t.pot % len(winners)
	for _, idx := range winners {
		if s, err := t.seatLocked(idx); err == nil {
			s.Chips += share
		}
	}
	t.pot = 0
	return share, remainder
}

// VoidPot discards the pot and returns what was in it
func (t *Table) VoidPot() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	lost := t.pot
	t.pot = 0
	return lost
}

// ResetChips restores the starting stack to every active seat for a new
// session
func (t *Table) ResetChips() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, s := range t.seats {
		if s.Active {
			s.Chips = t.config.StartingChips
		}
	}
}

func (t *Table) validateRaiseLocked(s *Seat, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	// compare by subtraction so a huge amount cannot wrap
	owed := t.currentBet - s.Wager
	if amount > s.Chips-owed {
		return fmt.Errorf("%w: raise of %d over %d owed, have %d", ErrInsufficientChips, amount, owed, s.Chips)
	}
	return nil
}

func (t *Table) commitLocked(s *Seat, amount int) {
	s.Chips -= amount
	s.Wager += amount
	s.Contributed += amount
	t.pot += amount
}

func (t *Table) actorLocked(idx int) (*Seat, error) {
	s, err := t.seatLocked(idx)
	if err != nil {
		return nil, err
	}
	if !s.Active || s.Folded {
		return nil, fmt.Errorf("%w: seat %d", ErrSeatInactive, idx)
	}
	return s, nil
}

func (t *Table) seatLocked(idx int) (*Seat, error) {
	if idx < 0 || idx >= len(t.seats) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSeat, idx)
	}
	return t.seats[idx], nil
}

func (t *Table) connectedLocked() int {
	n := 0
	for _, s := range t.seats {
		if s.Connected {
			n++
		}
	}
	return n
}

func canAct(s *Seat) bool {
	return s.Active && !s.Folded && s.Chips > 0
}

func snapshot(s *Seat) Seat {
	c := *s
	c.Hole = append([]poker.Card(nil), s.Hole...)
	return c
}
