package client

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
)

// errSessionOver ends the run loop after KICKED or CLOSED
var errSessionOver = errors.New("session over")

// Client is a line-oriented participant: records from the server are
// rendered, lines typed by the user are parsed and sent.
type Client struct {
	conn   io.ReadWriteCloser
	input  io.Reader
	render *Renderer
	logger *log.Logger
	name   string

	writeMu sync.Mutex

	mu       sync.Mutex
	lastTurn *protocol.YourTurn
	reason   string
}

// Dial connects to a server over TCP
func Dial(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return conn, nil
}

// New creates a client over an established connection. A non-empty name is
// sent as a hello once the client runs.
func New(conn io.ReadWriteCloser, input io.Reader, render *Renderer, logger *log.Logger, name string) *Client {
	return &Client{
		conn:   conn,
		input:  input,
		render: render,
		logger: logger.WithPrefix("client"),
		name:   strings.TrimSpace(name),
	}
}

// Run reads from the server and the user until the server closes the
// session, the seat is kicked, the connection drops, or ctx is cancelled.
// It returns the closing reason when the server gave one.
func (c *Client) Run(ctx context.Context) (string, error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		return c.conn.Close()
	})

	g.Go(func() error {
		return c.readLoop()
	})

	g.Go(func() error {
		return c.inputLoop(gctx)
	})

	err := g.Wait()
	if errors.Is(err, errSessionOver) || (err != nil && ctx.Err() != nil) {
		err = nil
	}
	return c.closeReason(), err
}

func (c *Client) readLoop() error {
	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, 4096), 64*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		typ, fields, err := protocol.Peek(line)
		if err != nil {
			c.logger.Warn("Unreadable record from server", "error", err)
			continue
		}
		if typ == protocol.TypeYourTurn {
			var turn protocol.YourTurn
			if err := protocol.As(fields, &turn); err == nil {
				c.mu.Lock()
				c.lastTurn = &turn
				c.mu.Unlock()
			}
		}
		if err := c.render.Render(typ, fields); err != nil {
			c.logger.Warn("Failed to render record", "type", typ, "error", err)
		}

		switch typ {
		case protocol.TypeKicked:
			var m protocol.Kicked
			_ = protocol.As(fields, &m)
			c.setReason(m.Reason)
			return errSessionOver
		case protocol.TypeClosed:
			var m protocol.Closed
			_ = protocol.As(fields, &m)
			c.setReason(m.Message)
			return errSessionOver
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("connection lost: %w", err)
	}
	c.setReason("server closed the connection")
	return errSessionOver
}

func (c *Client) inputLoop(ctx context.Context) error {
	if c.name != "" {
		if err := c.send(protocol.Hello{Type: protocol.TypeHello, Name: c.name}); err != nil {
			return err
		}
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.input)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				// input exhausted; keep listening to the server
				<-ctx.Done()
				return nil
			}
			if err := c.handleInput(line); err != nil {
				return err
			}
		}
	}
}

// handleInput parses and sends one typed line. Parse errors are reported
// locally and never reach the server.
func (c *Client) handleInput(line string) error {
	in, err := ParseInput(line)
	if errors.Is(err, ErrEmptyInput) {
		return nil
	}
	if err != nil {
		c.render.Notice("%v", err)
		return nil
	}

	if in.Action != nil && !in.Claimed && (in.Action.Action == protocol.ActionBet || in.Action.Action == protocol.ActionRaise) {
		c.mu.Lock()
		turn := c.lastTurn
		c.mu.Unlock()
		if turn != nil {
			if score, err := HonestClaim(*turn); err == nil {
				in.Action.ClaimedScore = score
			}
		}
	}
	return c.send(in.Record())
}

func (c *Client) send(msg any) error {
	line, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.conn.Write(line); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

func (c *Client) setReason(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reason = reason
}

func (c *Client) closeReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}
