package client

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
	"github.com/WTCSC/sockets-to-em-casino-day/poker"
)

// Renderer prints server records as styled text lines
type Renderer struct {
	out io.Writer

	header lipgloss.Style
	cards  lipgloss.Style
	chips  lipgloss.Style
	win    lipgloss.Style
	warn   lipgloss.Style
	alert  lipgloss.Style
	muted  lipgloss.Style
	prompt lipgloss.Style
}

// NewRenderer writes to w. Pass termenv.WithProfile(termenv.Ascii) for plain
// output.
func NewRenderer(w io.Writer, opts ...termenv.OutputOption) *Renderer {
	lr := lipgloss.NewRenderer(w, opts...)
	return &Renderer{
		out:    w,
		header: lr.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		cards:  lr.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		chips:  lr.NewStyle().Foreground(lipgloss.Color("11")),
		win:    lr.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		warn:   lr.NewStyle().Foreground(lipgloss.Color("208")),
		alert:  lr.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		muted:  lr.NewStyle().Foreground(lipgloss.Color("8")),
		prompt: lr.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
	}
}

// Notice prints a local message that did not come from the server
func (r *Renderer) Notice(format string, args ...any) {
	r.line(r.warn.Render(fmt.Sprintf(format, args...)))
}

// Render prints one server record. Unknown types are shown raw.
func (r *Renderer) Render(typ string, fields map[string]any) error {
	switch typ {
	case protocol.TypeWaiting:
		var m protocol.Waiting
		if err := protocol.As(fields, &m); err != nil {
			return err
		}
		r.line(r.header.Render(fmt.Sprintf("Seated as %s (seat %d)", m.Name, m.Seat)))
		r.line(m.Message)

	case protocol.TypeLobbyStatus:
		var m protocol.LobbyStatus
		if err := protocol.As(fields, &m); err != nil {
			return err
		}
		r.line(r.muted.Render(fmt.Sprintf("Lobby: %d/%d seated (%s), %s chips, %d rounds",
			m.Connected, m.Players, strings.Join(m.Names, ", "), r.formatChips(m.Chips), m.Rounds)))

	case protocol.TypeLobbyPrompt:
		var m protocol.LobbyPrompt
		if err := protocol.As(fields, &m); err != nil {
			return err
		}
		r.line(r.prompt.Render(m.Message))
		r.line(r.muted.Render("Commands: " + strings.Join(m.Commands, ", ")))

	case protocol.TypeSessionStart:
		var m protocol.SessionStart
		if err := protocol.As(fields, &m); err != nil {
			return err
		}
		r.line(r.header.Render(fmt.Sprintf("=== New game: %d rounds, %d chips each ===", m.Rounds, m.Chips)))
		for _, p := range m.Players {
			r.line(fmt.Sprintf("  %s", p.Name))
		}

	case protocol.TypeRoundStart:
		var m protocol.RoundStart
		if err := protocol.As(fields, &m); err != nil {
			return err
		}
		r.line(r.header.Render(fmt.Sprintf("--- Round %d of %d ---", m.Round, m.Of)))

	case protocol.TypeHand:
		var m protocol.Hand
		if err := protocol.As(fields, &m); err != nil {
			return err
		}
		r.line(fmt.Sprintf("Your hand: %s  (%s)", r.cards.Render(cardNames(m.Cards)), r.formatChips(m.Chips)))

	case protocol.TypeBlind:
		var m protocol.Blind
		if err := protocol.As(fields, &m); err != nil {
			return err
		}
		r.line(fmt.Sprintf("%s posts a blind of %s. Pot: %s", m.Name, r.formatChips(m.Amount), r.formatChips(m.Pot)))

	case protocol.TypeCommunity:
		var m protocol.Community
		if err := protocol.As(fields, &m); err != nil {
			return err
		}
		r.line(fmt.Sprintf("%s: %s", r.header.Render(m.Stage), r.cards.Render(cardNames(m.Cards))))

	case protocol.TypeTurn:
		var m protocol.Turn
		if err := protocol.As(fields, &m); err != nil {
			return err
		}
		r.line(r.muted.Render(fmt.Sprintf("%s to act (%s, pot %d)", m.Name, m.Stage, m.Pot)))

	case protocol.TypeYourTurn:
		var m protocol.YourTurn
		if err := protocol.As(fields, &m); err != nil {
			return err
		}
		r.renderTurn(m)

	case protocol.TypeAction:
		var m protocol.ActionTaken
		if err := protocol.As(fields, &m); err != nil {
			return err
		}
		text := fmt.Sprintf("%s %s", m.Name, strings.ToLower(m.Action))
		if m.Amount > 0 {
			text += " " + r.formatChips(m.Amount)
		}
		r.line(text + fmt.Sprintf(". Pot: %s", r.formatChips(m.Pot)))

	case protocol.TypeShowdown:
		var m protocol.Showdown
		if err := protocol.As(fields, &m); err != nil {
			return err
		}
		r.line(r.header.Render("Showdown") + "  board: " + r.cards.Render(cardNames(m.Community)))
		for _, h := range m.Hands {
			r.line(fmt.Sprintf("  %-12s %s  %s", h.Name, r.cards.Render(cardNames(h.Cards)), h.Label))
		}

	case protocol.TypeWinner:
		var m protocol.Winner
		if err := protocol.As(fields, &m); err != nil {
			return err
		}
		r.renderWinner(m)

	case protocol.TypeKicked:
		var m protocol.Kicked
		if err := protocol.As(fields, &m); err != nil {
			return err
		}
		r.line(r.alert.Render("Removed from the table: " + m.Reason))

	case protocol.TypeInfo:
		var m protocol.Info
		if err := protocol.As(fields, &m); err != nil {
			return err
		}
		r.line(r.muted.Render(m.Message))

	case protocol.TypeError:
		var m protocol.Error
		if err := protocol.As(fields, &m); err != nil {
			return err
		}
		r.line(r.alert.Render("Error: " + m.Message))

	case protocol.TypeGameOver:
		var m protocol.GameOver
		if err := protocol.As(fields, &m); err != nil {
			return err
		}
		r.line(r.header.Render("=== Game over ==="))
		for i, p := range m.Standings {
			r.line(fmt.Sprintf("  %d. %-12s %s", i+1, p.Name, r.formatChips(p.Chips)))
		}

	case protocol.TypeDecisionPrompt:
		var m protocol.DecisionPrompt
		if err := protocol.As(fields, &m); err != nil {
			return err
		}
		r.line(r.prompt.Render(m.Message) + "  [" + strings.Join(m.Options, " / ") + "]")

	case protocol.TypeClosed:
		var m protocol.Closed
		if err := protocol.As(fields, &m); err != nil {
			return err
		}
		r.line(r.header.Render(m.Message))

	default:
		r.line(r.muted.Render(fmt.Sprintf("(%s) %v", typ, fields)))
	}
	return nil
}

func (r *Renderer) renderTurn(m protocol.YourTurn) {
	r.line(r.prompt.Render(fmt.Sprintf(">>> Your turn (%s)", m.Stage)))
	r.line(fmt.Sprintf("    Hand: %s", r.cards.Render(cardNames(m.Hand))))
	if len(m.Community) > 0 {
		r.line(fmt.Sprintf("    Board: %s", r.cards.Render(cardNames(m.Community))))
	}
	r.line(fmt.Sprintf("    Pot %s, your chips %s, bet %d, your wager %d",
		r.formatChips(m.Pot), r.formatChips(m.Chips), m.CurrentBet, m.Wager))

	var options []string
	if m.ToCall > 0 {
		options = append(options, fmt.Sprintf("CALL (%d)", m.ToCall), "RAISE n")
	} else {
		options = append(options, "CHECK", "BET n")
	}
	options = append(options, "FOLD", "QUIT")
	r.line(r.muted.Render("    " + strings.Join(options, " | ")))
}

func (r *Renderer) renderWinner(m protocol.Winner) {
	names := strings.Join(m.Winners, " and ")
	switch {
	case len(m.Winners) == 0:
		r.line(r.warn.Render(fmt.Sprintf("Nobody wins the pot of %d", m.Pot)))
	case len(m.Winners) > 1:
		r.line(r.win.Render(fmt.Sprintf("%s split the pot of %d, %d each (%s)", names, m.Pot, m.Amount, m.Hand)))
		if m.Remainder > 0 {
			r.line(r.muted.Render(fmt.Sprintf("%d chip(s) could not be split", m.Remainder)))
		}
	case m.Hand != "":
		r.line(r.win.Render(fmt.Sprintf("%s wins %d with %s", names, m.Amount, m.Hand)))
	default:
		r.line(r.win.Render(fmt.Sprintf("%s wins %d (%s)", names, m.Amount, m.Reason)))
	}

	seats := make([]string, 0, len(m.Chips))
	for name := range m.Chips {
		seats = append(seats, name)
	}
	sort.Strings(seats)
	parts := make([]string, 0, len(seats))
	for _, name := range seats {
		parts = append(parts, fmt.Sprintf("%s %d", name, m.Chips[name]))
	}
	r.line(r.muted.Render("Chips: " + strings.Join(parts, ", ")))
}

func (r *Renderer) formatChips(n int) string {
	return r.chips.Render(fmt.Sprintf("%d chips", n))
}

func (r *Renderer) line(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

// cardNames turns wire codes into long names, keeping codes it cannot parse
func cardNames(codes []string) string {
	if len(codes) == 0 {
		return "-"
	}
	out := make([]string, len(codes))
	for i, code := range codes {
		card, err := poker.ParseCard(code)
		if err != nil {
			out[i] = code
			continue
		}
		out[i] = card.Name()
	}
	return strings.Join(out, ", ")
}
