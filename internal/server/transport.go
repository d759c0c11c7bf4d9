package server

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// Transport carries newline-free JSON records to and from one participant
type Transport interface {
	// ReadRecord blocks for the next non-empty record
	ReadRecord() ([]byte, error)
	// WriteRecord writes one record, which must end in a newline
	WriteRecord(line []byte, deadline time.Time) error
	Close() error
	RemoteAddr() string
}

// pinger is implemented by transports that need keepalives
type pinger interface {
	Ping(deadline time.Time) error
}

var ErrRecordTooLarge = errors.New("record exceeds maximum size")

// lineTransport frames records with '\n' over a stream socket
type lineTransport struct {
	conn    net.Conn
	scanner *bufio.Scanner
}

func newLineTransport(conn net.Conn) *lineTransport {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 1024), maxMessageSize)
	return &lineTransport{conn: conn, scanner: scanner}
}

func (t *lineTransport) ReadRecord() ([]byte, error) {
	for t.scanner.Scan() {
		line := bytes.TrimSpace(t.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		out := make([]byte, len(line))
		copy(out, line)
		return out, nil
	}
	if err := t.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, ErrRecordTooLarge
		}
		return nil, err
	}
	return nil, io.EOF
}

func (t *lineTransport) WriteRecord(line []byte, deadline time.Time) error {
	_ = t.conn.SetWriteDeadline(deadline)
	_, err := t.conn.Write(line)
	return err
}

func (t *lineTransport) Close() error {
	return t.conn.Close()
}

func (t *lineTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}

// wsTransport sends one record per text frame
type wsTransport struct {
	conn *websocket.Conn
}

func newWSTransport(conn *websocket.Conn) *wsTransport {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &wsTransport{conn: conn}
}

func (t *wsTransport) ReadRecord() ([]byte, error) {
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			if errors.Is(err, websocket.ErrReadLimit) {
				return nil, ErrRecordTooLarge
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, io.EOF
			}
			return nil, err
		}
		if line := bytes.TrimSpace(data); len(line) > 0 {
			return line, nil
		}
	}
}

func (t *wsTransport) WriteRecord(line []byte, deadline time.Time) error {
	_ = t.conn.SetWriteDeadline(deadline)
	return t.conn.WriteMessage(websocket.TextMessage, bytes.TrimRight(line, "\n"))
}

func (t *wsTransport) Ping(deadline time.Time) error {
	return t.conn.WriteControl(websocket.PingMessage, nil, deadline)
}

func (t *wsTransport) Close() error {
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return t.conn.Close()
}

func (t *wsTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}
