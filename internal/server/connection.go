package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
)

const (
	// Time allowed to write a record to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from a WebSocket peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum record size allowed from peer
	maxMessageSize = 8192

	// Outbound records buffered per seat
	sendBuffer = 256
)

var ErrConnectionClosed = errors.New("connection closed")

// Connection owns one seat's transport. A read pump feeds records to a
// handler; a write pump drains the send queue.
type Connection struct {
	seat      int
	transport Transport
	send      chan []byte
	logger    *log.Logger
	clock     quartz.Clock
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}
}

// NewConnection wraps transport for seat
func NewConnection(ctx context.Context, seat int, transport Transport, logger *log.Logger, clock quartz.Clock) *Connection {
	ctx, cancel := context.WithCancel(ctx)
	return &Connection{
		seat:      seat,
		transport: transport,
		send:      make(chan []byte, sendBuffer),
		logger:    logger.WithPrefix("conn").With("seat", seat),
		clock:     clock,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Start begins handling the connection. handle is called on the read pump
// goroutine for every inbound record.
func (c *Connection) Start(handle func(line []byte)) {
	go c.writePump()
	go c.readPump(handle)
}

// Done is closed once the connection has shut down
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Close tears the connection down immediately, dropping queued records
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.transport.Close()
		close(c.done)
	})
	return err
}

// CloseAfterFlush closes the connection once every record queued so far has
// been written
func (c *Connection) CloseAfterFlush() {
	select {
	case c.send <- nil:
	case <-c.ctx.Done():
	default:
		_ = c.Close()
	}
}

// SendMessage encodes msg and queues it for the peer
func (c *Connection) SendMessage(msg any) error {
	line, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	return c.SendLine(line)
}

// SendLine queues an encoded record for the peer
func (c *Connection) SendLine(line []byte) error {
	if c.ctx.Err() != nil {
		return ErrConnectionClosed
	}
	select {
	case c.send <- line:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

func (c *Connection) readPump(handle func(line []byte)) {
	defer func() { _ = c.Close() }()

	for {
		line, err := c.transport.ReadRecord()
		if err != nil {
			if c.ctx.Err() == nil {
				c.logger.Debug("Read ended", "error", err)
			}
			return
		}
		if c.ctx.Err() != nil {
			return
		}
		handle(line)
	}
}

func (c *Connection) writePump() {
	var pings <-chan time.Time
	if _, ok := c.transport.(pinger); ok {
		ticker := c.clock.NewTicker(pingPeriod, "conn", "ping")
		defer ticker.Stop()
		pings = ticker.C
	}
	defer func() { _ = c.Close() }()

	for {
		select {
		case line := <-c.send:
			if line == nil {
				return
			}
			if err := c.transport.WriteRecord(line, c.clock.Now().Add(writeWait)); err != nil {
				c.logger.Debug("Failed to write record", "error", err)
				return
			}

		case <-pings:
			if err := c.transport.(pinger).Ping(c.clock.Now().Add(writeWait)); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}
