package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CallRecord is one entry of the structured call log.
type CallRecord struct {
	ID         string          `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	Model      string          `json:"model"`
	Prompt     string          `json:"prompt"`
	System     string          `json:"system,omitempty"`
	Response   string          `json:"response"`
	Parsed     json.RawMessage `json:"parsed,omitempty"`
	Schema     string          `json:"schema"`
	AgentName  string          `json:"agent_name,omitempty"`
	DurationMS int64           `json:"duration_ms"`
	TokensUsed int             `json:"tokens_used,omitempty"`
}

// CallLogStore persists call records. It is write-only from the perspective
// of the dispatch core; records are never read back during routing.
type CallLogStore interface {
	Append(ctx context.Context, rec CallRecord) error
}

// NewID returns a random identifier.
func NewID() string { return uuid.NewString() }
