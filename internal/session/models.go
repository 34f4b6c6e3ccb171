package session

import (
	"encoding/json"
	"time"

	"github.com/kayz/zonal/internal/execute"
)

// Session types. AUTOMATION sessions run non-interactively on a schedule and
// must self-terminate via an explicit completion signal; SEED sessions
// bootstrap initial app state.
const (
	TypeChat       = "CHAT"
	TypeAutomation = "AUTOMATION"
	TypeSeed       = "SEED"
)

// Message senders.
const (
	SenderUser   = "USER"
	SenderAI     = "AI"
	SenderSystem = "SYSTEM"
)

// System message types. Some are infrastructure noise that must never reach
// the AI-visible transcript.
const (
	SystemCommandResults     = "command_results"
	SystemNetworkError       = "network_error"
	SystemSessionTimeout     = "session_timeout"
	SystemInterrupted        = "interrupted"
	SystemAutomationComplete = "automation_complete"
)

// Session is one AI conversation.
type Session struct {
	ID        string
	Type      string // CHAT | AUTOMATION | SEED
	Title     string
	Schedule  string // cron expression, AUTOMATION only
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one entry in a session transcript. The transcript is append
// only: past messages are never mutated, only new ones appended.
type Message struct {
	ID        string
	SessionID string
	Sender    string // USER | AI | SYSTEM
	Content   string
	// SystemType classifies SYSTEM messages; empty otherwise.
	SystemType string
	// ExcludeFromPrompt marks UI-only messages kept in storage for history
	// display but suppressed from the AI-visible transcript.
	ExcludeFromPrompt bool
	CommandResults    []execute.CommandResult
	CreatedAt         time.Time
}

// scanner interface for both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

// toJSON converts an object to JSON string
func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// fromJSON parses JSON string into an object
func fromJSON(data string, v any) error {
	if data == "" || data == "[]" || data == "null" {
		return nil
	}
	return json.Unmarshal([]byte(data), v)
}
