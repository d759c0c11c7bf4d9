package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/client"
)

var CLI struct {
	Server   string        `short:"s" long:"server" default:"127.0.0.1:5555" help:"Server address"`
	Name     string        `short:"n" long:"name" help:"Seat name to request while the lobby is open"`
	Timeout  time.Duration `long:"timeout" default:"10s" help:"Connect timeout"`
	LogLevel string        `short:"l" long:"log-level" default:"warn" help:"Log level"`
	LogFile  string        `long:"log-file" help:"Write logs to this file instead of discarding them"`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("pokerclient"),
		kong.Description("Join a poker table from the terminal"))

	var logOut io.Writer = io.Discard
	if CLI.LogFile != "" {
		f, err := os.OpenFile(CLI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Printf("Error opening log file: %v\n", err)
			kctx.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := log.New(logOut)
	level, err := log.ParseLevel(CLI.LogLevel)
	if err != nil {
		level = log.WarnLevel
	}
	logger.SetLevel(level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	conn, err := client.Dial(ctx, CLI.Server, CLI.Timeout)
	if err != nil {
		fmt.Println(err)
		kctx.Exit(1)
	}

	render := client.NewRenderer(os.Stdout)
	c := client.New(conn, os.Stdin, render, logger, CLI.Name)
	reason, err := c.Run(ctx)
	if err != nil {
		fmt.Printf("Disconnected: %v\n", err)
		kctx.Exit(1)
	}
	if reason != "" {
		fmt.Printf("Goodbye: %s\n", reason)
	}
}
