package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/game"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/server"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"pokerserver.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" long:"addr" help:"Address to bind to (overrides config)"`
	Port     int    `short:"p" long:"port" help:"TCP port (overrides config)"`
	WSPort   int    `name:"ws-port" long:"ws-port" help:"WebSocket port, 0 to disable (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	Seed     int64  `long:"seed" help:"Shuffle seed for reproducible games (overrides config)"`
	Results  string `short:"r" long:"results" help:"Append finished sessions to this JSON file (overrides config)"`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("pokerserver"),
		kong.Description("Host a multiplayer poker table over TCP"))

	cfg, err := server.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		kctx.Exit(1)
	}

	// Apply command line overrides
	if CLI.Addr != "" {
		cfg.Server.Address = CLI.Addr
	}
	if CLI.Port != 0 {
		cfg.Server.Port = CLI.Port
	}
	if CLI.WSPort != 0 {
		cfg.Server.WebSocketPort = CLI.WSPort
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.Results != "" {
		cfg.Server.ResultsFile = CLI.Results
	}
	if CLI.Seed != 0 {
		cfg.Table.Seed = CLI.Seed
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		kctx.Exit(1)
	}

	logger := log.New(os.Stderr)
	logger.SetLevel(cfg.Level())

	srv, err := server.New(cfg, logger, quartz.NewReal())
	if err != nil {
		logger.Error("Failed to create server", "error", err)
		kctx.Exit(1)
	}
	if err := srv.Listen(); err != nil {
		logger.Error("Failed to listen", "error", err)
		kctx.Exit(1)
	}

	logger.Info("Starting poker server",
		"addr", srv.Addr(),
		"websocket", cfg.WebSocketAddress(),
		"seats", cfg.Table.MaxSeats,
		"chips", cfg.Table.StartingChips,
		"rounds", cfg.Table.Rounds)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutting down server...")
		cancel()
	}()

	if err := srv.Run(ctx); err != nil {
		if errors.Is(err, game.ErrHostLost) {
			logger.Error("Host left before the game started")
		} else {
			logger.Error("Server error", "error", err)
		}
		kctx.Exit(1)
	}
}
