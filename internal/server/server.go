package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/game"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/randutil"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/results"
)

// errPlayOver stops the errgroup once the driver finishes normally
var errPlayOver = errors.New("play over")

// Server accepts participants over TCP (and optionally WebSocket) and runs
// one table.
type Server struct {
	cfg      *Config
	logger   *log.Logger
	clock    quartz.Clock
	table    *game.Table
	inbox    *game.Inbox
	coord    *Coordinator
	driver   *game.Driver
	upgrader websocket.Upgrader

	listener   net.Listener
	wsListener net.Listener
}

// New builds a server from a validated configuration
func New(cfg *Config, logger *log.Logger, clock quartz.Clock) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pause, _ := cfg.Pause()
	rng, seed := randutil.FromConfig(cfg.Table.Seed)

	logger = logger.WithPrefix("server")
	logger.Debug("Shuffle seed", "seed", seed)

	table := game.NewTable(cfg.LobbyConfig())
	inbox := game.NewInbox()
	coord := NewCoordinator(table, inbox, logger, clock)
	opts := game.Options{
		Blind:      cfg.Table.Blind,
		RoundPause: pause,
		Rand:       rng,
	}
	if cfg.Server.ResultsFile != "" {
		opts.OnSessionEnd = recordResults(results.NewLog(cfg.Server.ResultsFile), clock, logger)
	}
	driver := game.NewDriver(table, inbox, coord, logger, clock, opts)

	return &Server{
		cfg:    cfg,
		logger: logger,
		clock:  clock,
		table:  table,
		inbox:  inbox,
		coord:  coord,
		driver: driver,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}, nil
}

// Listen binds the configured listeners
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Address(), err)
	}
	s.listener = ln

	if addr := s.cfg.WebSocketAddress(); addr != "" {
		wsln, err := net.Listen("tcp", addr)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		s.wsListener = wsln
	}
	return nil
}

// Addr returns the bound TCP address
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// WebSocketAddr returns the bound WebSocket address, or nil when disabled
func (s *Server) WebSocketAddr() net.Addr {
	if s.wsListener == nil {
		return nil
	}
	return s.wsListener.Addr()
}

// Run serves until the host ends play, the host leaves the lobby, or ctx is
// cancelled. A cancelled context is not an error.
func (s *Server) Run(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.acceptLoop(gctx)
	})

	if s.wsListener != nil {
		httpServer := s.httpServer(gctx)
		g.Go(func() error {
			s.logger.Info("Starting WebSocket listener", "addr", s.wsListener.Addr())
			if err := httpServer.Serve(s.wsListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		err := s.driver.Run(gctx)
		if err == nil {
			return errPlayOver
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		_ = s.listener.Close()
		s.coord.CloseAll()
		return nil
	})

	err := g.Wait()
	switch {
	case errors.Is(err, errPlayOver):
		s.logger.Info("Server stopped")
		return nil
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		s.logger.Info("Server shut down")
		return nil
	}
	return err
}

// recordResults appends each finished session to the results log. A write
// failure is logged and play continues.
func recordResults(l *results.Log, clock quartz.Clock, logger *log.Logger) func(game.SessionSummary) {
	return func(summary game.SessionSummary) {
		standings := make([]protocol.PlayerInfo, len(summary.Standings))
		for i, s := range summary.Standings {
			standings[i] = protocol.PlayerInfo{Seat: s.Index, Name: s.Name, Chips: s.Chips}
		}
		err := l.Append(results.Entry{
			SessionID: summary.ID.String(),
			Finished:  clock.Now().UTC(),
			Rounds:    summary.Rounds,
			Standings: standings,
		})
		if err != nil {
			logger.Error("Failed to record results", "path", l.Path(), "error", err)
			return
		}
		logger.Debug("Recorded results", "path", l.Path(), "session", summary.ID)
	}
}

func (s *Server) acceptLoop(ctx context.Context) error {
	s.logger.Info("Listening", "addr", s.listener.Addr())
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}
		go func() {
			_, _ = s.coord.Admit(ctx, newLineTransport(conn), "")
		}()
	}
}

func (s *Server) httpServer(ctx context.Context) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		s.handleWebSocket(ctx, w, r)
	})
	mux.HandleFunc("/health", s.handleHealth)
	return &http.Server{Handler: mux, ReadHeaderTimeout: writeWait}
}

// handleWebSocket upgrades and seats a browser or bot. The seat name may be
// given as ?name=.
func (s *Server) handleWebSocket(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	_, _ = s.coord.Admit(ctx, newWSTransport(conn), name)
}

// handleHealth reports lobby state as plain text
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	state := "playing"
	if s.table.LobbyOpen() {
		state = "lobby"
	}
	_, _ = fmt.Fprintf(w, "OK %s %d/%d\n", state, s.table.ConnectedCount(), s.table.Config().MaxSeats)
}
