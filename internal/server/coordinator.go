package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/game"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
)

// ErrSeatNotConnected is returned when sending to a seat with no connection
var ErrSeatNotConnected = errors.New("seat not connected")

// Time allowed for queued records to drain at shutdown
const flushWait = 2 * time.Second

// Coordinator admits connections to the table and delivers driver records to
// them. It implements game.Notifier.
type Coordinator struct {
	table  *game.Table
	inbox  *game.Inbox
	logger *log.Logger
	clock  quartz.Clock

	mu    sync.RWMutex
	conns map[int]*Connection
}

// NewCoordinator creates a coordinator for table
func NewCoordinator(table *game.Table, inbox *game.Inbox, logger *log.Logger, clock quartz.Clock) *Coordinator {
	return &Coordinator{
		table:  table,
		inbox:  inbox,
		logger: logger.WithPrefix("coordinator"),
		clock:  clock,
		conns:  make(map[int]*Connection),
	}
}

// Admit seats a new participant. When the lobby is closed or full the peer
// gets an ERROR record and the transport is closed.
func (c *Coordinator) Admit(ctx context.Context, transport Transport, name string) (int, error) {
	seat, err := c.table.AddSeat(name)
	if err != nil {
		c.logger.Info("Connection refused", "remote", transport.RemoteAddr(), "error", err)
		if line, encErr := protocol.Encode(protocol.Error{
			Type:    protocol.TypeError,
			Code:    protocol.CodeLobby,
			Message: fmt.Sprintf("cannot join: %v", err),
		}); encErr == nil {
			_ = transport.WriteRecord(line, c.clock.Now().Add(writeWait))
		}
		_ = transport.Close()
		return -1, err
	}

	conn := NewConnection(ctx, seat, transport, c.logger, c.clock)
	conn.Start(func(line []byte) {
		rec, decodeErr := protocol.Decode(line)
		if err := c.inbox.Route(ctx, seat, rec, decodeErr); err != nil {
			_ = conn.Close()
		}
	})

	s, _ := c.table.Seat(seat)
	message := "Waiting for the host to start the game"
	if s.IsHost() {
		message = "You are the host. Configure the table and START when ready"
	}
	_ = conn.SendMessage(protocol.Waiting{
		Type:    protocol.TypeWaiting,
		Seat:    seat,
		Name:    s.Name,
		Host:    s.IsHost(),
		Message: message,
	})

	c.mu.Lock()
	c.conns[seat] = conn
	c.mu.Unlock()

	c.logger.Info("Seat admitted", "seat", seat, "name", s.Name, "remote", transport.RemoteAddr())

	go func() {
		<-conn.Done()
		c.remove(seat, conn)
		_ = c.inbox.Depart(ctx, seat)
	}()

	if err := c.inbox.Join(ctx, seat); err != nil {
		_ = conn.Close()
		return -1, err
	}
	return seat, nil
}

func (c *Coordinator) remove(seat int, conn *Connection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conns[seat] == conn {
		delete(c.conns, seat)
	}
}

// Send queues msg for one seat
func (c *Coordinator) Send(seat int, msg any) error {
	c.mu.RLock()
	conn, ok := c.conns[seat]
	c.mu.RUnlock()
	if !ok {
		return ErrSeatNotConnected
	}
	return conn.SendMessage(msg)
}

// Broadcast queues msg for every connected seat not in exclude
func (c *Coordinator) Broadcast(msg any, exclude ...int) {
	line, err := protocol.Encode(msg)
	if err != nil {
		c.logger.Error("Failed to encode broadcast", "error", err)
		return
	}

	skip := make(map[int]bool, len(exclude))
	for _, seat := range exclude {
		skip[seat] = true
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for seat, conn := range c.conns {
		if skip[seat] {
			continue
		}
		if err := conn.SendLine(line); err != nil {
			c.logger.Debug("Broadcast dropped", "seat", seat, "error", err)
		}
	}
}

// Disconnect closes a seat's connection after its queued records are written
func (c *Coordinator) Disconnect(seat int) {
	c.mu.Lock()
	conn, ok := c.conns[seat]
	delete(c.conns, seat)
	c.mu.Unlock()
	if ok {
		conn.CloseAfterFlush()
	}
}

// Connected returns the number of open connections
func (c *Coordinator) Connected() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.conns)
}

// CloseAll flushes and closes every connection, waiting up to flushWait
func (c *Coordinator) CloseAll() {
	c.mu.Lock()
	conns := make([]*Connection, 0, len(c.conns))
	for seat, conn := range c.conns {
		conns = append(conns, conn)
		delete(c.conns, seat)
	}
	c.mu.Unlock()

	for _, conn := range conns {
		conn.CloseAfterFlush()
	}

	timer := c.clock.NewTimer(flushWait, "coordinator", "flush")
	defer timer.Stop()
	for _, conn := range conns {
		select {
		case <-conn.Done():
		case <-timer.C:
			for _, conn := range conns {
				_ = conn.Close()
			}
			return
		}
	}
}
