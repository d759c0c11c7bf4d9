package server

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/game"
)

// Config represents the complete server configuration
type Config struct {
	Server ServerSettings
	Table  TableSettings
}

// ServerSettings contains listener and logging configuration
type ServerSettings struct {
	Address       string `hcl:"address,optional"`
	Port          int    `hcl:"port,optional"`
	WebSocketPort int    `hcl:"websocket_port,optional"`
	LogLevel      string `hcl:"log_level,optional"`
	ResultsFile   string `hcl:"results_file,optional"`
}

// TableSettings seeds the lobby and tunes round play
type TableSettings struct {
	MaxSeats      int    `hcl:"max_seats,optional"`
	StartingChips int    `hcl:"starting_chips,optional"`
	Rounds        int    `hcl:"rounds,optional"`
	Blind         int    `hcl:"blind,optional"`
	RoundPause    string `hcl:"round_pause,optional"`
	Seed          int64  `hcl:"seed,optional"`
}

// both blocks may be omitted from the file
type configFile struct {
	Server *ServerSettings `hcl:"server,block"`
	Table  *TableSettings  `hcl:"table,block"`
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	lobby := game.DefaultLobbyConfig()
	return &Config{
		Server: ServerSettings{
			Address:  "127.0.0.1",
			Port:     5555,
			LogLevel: "info",
		},
		Table: TableSettings{
			MaxSeats:      lobby.MaxSeats,
			StartingChips: lobby.StartingChips,
			Rounds:        lobby.Rounds,
			Blind:         game.DefaultBlind,
			RoundPause:    "1s",
		},
	}
}

// LoadConfig loads configuration from an HCL file. A missing file yields the
// defaults.
func LoadConfig(filename string) (*Config, error) {
	config := DefaultConfig()
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return config, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var raw configFile
	diags = gohcl.DecodeBody(file.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if raw.Server != nil {
		config.Server.merge(*raw.Server)
	}
	if raw.Table != nil {
		config.Table.merge(*raw.Table)
	}
	return config, nil
}

// merge overlays the non-zero fields of o
func (s *ServerSettings) merge(o ServerSettings) {
	if o.Address != "" {
		s.Address = o.Address
	}
	if o.Port != 0 {
		s.Port = o.Port
	}
	if o.WebSocketPort != 0 {
		s.WebSocketPort = o.WebSocketPort
	}
	if o.LogLevel != "" {
		s.LogLevel = o.LogLevel
	}
	if o.ResultsFile != "" {
		s.ResultsFile = o.ResultsFile
	}
}

func (t *TableSettings) merge(o TableSettings) {
	if o.MaxSeats != 0 {
		t.MaxSeats = o.MaxSeats
	}
	if o.StartingChips != 0 {
		t.StartingChips = o.StartingChips
	}
	if o.Rounds != 0 {
		t.Rounds = o.Rounds
	}
	if o.Blind != 0 {
		t.Blind = o.Blind
	}
	if o.RoundPause != "" {
		t.RoundPause = o.RoundPause
	}
	if o.Seed != 0 {
		t.Seed = o.Seed
	}
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	// port 0 asks the OS for a free port
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.WebSocketPort < 0 || c.Server.WebSocketPort > 65535 {
		return fmt.Errorf("invalid websocket port: %d", c.Server.WebSocketPort)
	}
	if c.Server.WebSocketPort != 0 && c.Server.WebSocketPort == c.Server.Port {
		return fmt.Errorf("websocket port must differ from port %d", c.Server.Port)
	}
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.Server.LogLevel)
	}

	if err := c.LobbyConfig().Validate(); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	if c.Table.Blind <= 0 {
		return fmt.Errorf("table: blind must be positive")
	}
	if c.Table.Blind >= c.Table.StartingChips {
		return fmt.Errorf("table: blind %d must be below starting chips %d", c.Table.Blind, c.Table.StartingChips)
	}
	if _, err := c.Pause(); err != nil {
		return err
	}
	return nil
}

// Address returns the TCP listen address
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Address, strconv.Itoa(c.Server.Port))
}

// WebSocketAddress returns the WebSocket listen address, or "" when disabled
func (c *Config) WebSocketAddress() string {
	if c.Server.WebSocketPort == 0 {
		return ""
	}
	return net.JoinHostPort(c.Server.Address, strconv.Itoa(c.Server.WebSocketPort))
}

// LobbyConfig returns the configuration the lobby opens with
func (c *Config) LobbyConfig() game.LobbyConfig {
	return game.LobbyConfig{
		MaxSeats:      c.Table.MaxSeats,
		StartingChips: c.Table.StartingChips,
		Rounds:        c.Table.Rounds,
	}
}

// Pause parses the pause between rounds. An empty value means none.
func (c *Config) Pause() (time.Duration, error) {
	if c.Table.RoundPause == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Table.RoundPause)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("table: invalid round_pause %q", c.Table.RoundPause)
	}
	return d, nil
}

// Level returns the configured log level, defaulting to info
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.Server.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
