// Package protocol defines the newline-delimited JSON records exchanged
// between the table server and its participants.
package protocol

// Action verbs a seat may send while on action.
const (
	ActionFold  = "FOLD"
	ActionCheck = "CHECK"
	ActionCall  = "CALL"
	ActionBet   = "BET"
	ActionRaise = "RAISE"
	ActionQuit  = "QUIT"
)

// Host commands. The first four are only valid while the lobby is open, the
// last two only at the end-of-session decision point.
const (
	CmdPlayers   = "PLAYERS"
	CmdChips     = "CHIPS"
	CmdRounds    = "ROUNDS"
	CmdStart     = "START"
	CmdPlayAgain = "PLAY AGAIN"
	CmdEnd       = "END"
)

// Server -> Client record types
const (
	TypeWaiting        = "WAITING"
	TypeLobbyStatus    = "LOBBY_STATUS"
	TypeLobbyPrompt    = "LOBBY_PROMPT"
	TypeSessionStart   = "SESSION_START"
	TypeRoundStart     = "ROUND_START"
	TypeHand           = "HAND"
	TypeBlind          = "BLIND"
	TypeCommunity      = "COMMUNITY"
	TypeTurn           = "TURN"
	TypeYourTurn       = "YOUR_TURN"
	TypeAction         = "ACTION"
	TypeShowdown       = "SHOWDOWN"
	TypeWinner         = "WINNER"
	TypeKicked         = "KICKED"
	TypeInfo           = "INFO"
	TypeError          = "ERROR"
	TypeGameOver       = "GAME_OVER"
	TypeDecisionPrompt = "DECISION_PROMPT"
	TypeClosed         = "CLOSED"
)

// TypeHello is the only client record discriminated by "type"
const TypeHello = "hello"

// Error codes carried in Error records
const (
	CodeMalformed   = "malformed"
	CodeNotYourTurn = "not_your_turn"
	CodeIllegal     = "illegal_action"
	CodeLobby       = "lobby"
	CodeNotHost     = "not_host"
	CodeDecision    = "decision"
)

// Client -> Server

// Action is a betting decision from the seat on action
type Action struct {
	Action       string `json:"action"`
	Amount       int    `json:"amount,omitempty"`
	ClaimedScore int    `json:"claimed_score,omitempty"`
}

// Command is a host lobby command or end-of-session decision
type Command struct {
	Cmd   string `json:"cmd"`
	Value string `json:"value,omitempty"`
}

// IsDecision reports whether the command answers the replay prompt
func (c Command) IsDecision() bool {
	return c.Cmd == CmdPlayAgain || c.Cmd == CmdEnd
}

// Hello optionally renames a seat while the lobby is open
type Hello struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// Server -> Client

type Waiting struct {
	Type    string `json:"type"`
	Seat    int    `json:"seat"`
	Name    string `json:"name"`
	Host    bool   `json:"host"`
	Message string `json:"message"`
}

type LobbyStatus struct {
	Type      string   `json:"type"`
	Players   int      `json:"players"`
	Chips     int      `json:"chips"`
	Rounds    int      `json:"rounds"`
	Connected int      `json:"connected"`
	Names     []string `json:"names"`
}

type LobbyPrompt struct {
	Type     string   `json:"type"`
	Message  string   `json:"message"`
	Commands []string `json:"commands"`
}

// PlayerInfo is a seat summary used in session and standings records
type PlayerInfo struct {
	Seat  int    `json:"seat"`
	Name  string `json:"name"`
	Chips int    `json:"chips"`
}

type SessionStart struct {
	Type      string       `json:"type"`
	SessionID string       `json:"session_id"`
	Rounds    int          `json:"rounds"`
	Chips     int          `json:"chips"`
	Players   []PlayerInfo `json:"players"`
}

type RoundStart struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Round     int    `json:"round"`
	Of        int    `json:"of"`
}

// Hand carries a seat's private hole cards
type Hand struct {
	Type  string   `json:"type"`
	Cards []string `json:"cards"`
	Chips int      `json:"chips"`
}

type Blind struct {
	Type   string `json:"type"`
	Seat   int    `json:"seat"`
	Name   string `json:"name"`
	Amount int    `json:"amount"`
	Pot    int    `json:"pot"`
}

// Community reveals the board after a street's cards are dealt. Cards holds
// the whole board, New only this street's cards.
type Community struct {
	Type  string   `json:"type"`
	Stage string   `json:"stage"`
	Cards []string `json:"cards"`
	New   []string `json:"new"`
}

// Turn announces to the table whose action it is
type Turn struct {
	Type       string `json:"type"`
	Seat       int    `json:"seat"`
	Name       string `json:"name"`
	Stage      string `json:"stage"`
	Pot        int    `json:"pot"`
	CurrentBet int    `json:"current_bet"`
}

// YourTurn prompts the seat on action with everything it needs to decide
type YourTurn struct {
	Type       string   `json:"type"`
	Stage      string   `json:"stage"`
	Pot        int      `json:"pot"`
	Chips      int      `json:"chips"`
	Hand       []string `json:"hand"`
	Community  []string `json:"community"`
	CurrentBet int      `json:"current_bet"`
	Wager      int      `json:"wager"`
	ToCall     int      `json:"to_call"`
}

// ActionTaken narrates an applied action
type ActionTaken struct {
	Type   string `json:"type"`
	Seat   int    `json:"seat"`
	Name   string `json:"name"`
	Action string `json:"action"`
	Amount int    `json:"amount"`
	Pot    int    `json:"pot"`
	Chips  int    `json:"chips"`
}

type ShowdownHand struct {
	Seat  int      `json:"seat"`
	Name  string   `json:"name"`
	Cards []string `json:"cards"`
	Best  []string `json:"best"`
	Score int      `json:"score"`
	Label string   `json:"label"`
}

type Showdown struct {
	Type      string         `json:"type"`
	Community []string       `json:"community"`
	Hands     []ShowdownHand `json:"hands"`
}

// Winner reports a resolved pot. Amount is each winner's share; Remainder is
// what floor division left undistributed.
type Winner struct {
	Type      string         `json:"type"`
	Winners   []string       `json:"winners"`
	Seats     []int          `json:"seats"`
	Amount    int            `json:"amount"`
	Pot       int            `json:"pot"`
	Remainder int            `json:"remainder"`
	Reason    string         `json:"reason"`
	Hand      string         `json:"hand,omitempty"`
	Chips     map[string]int `json:"chips"`
}

type Kicked struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type Info struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Error struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type GameOver struct {
	Type      string       `json:"type"`
	SessionID string       `json:"session_id"`
	Standings []PlayerInfo `json:"standings"`
}

type DecisionPrompt struct {
	Type    string   `json:"type"`
	Message string   `json:"message"`
	Options []string `json:"options"`
}

type Closed struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
