package models

import (
	"time"

	"github.com/google/uuid"
)

// Invocation ops.
const (
	OpDeploy = "deploy"
	OpCall   = "call"
	OpQuery  = "query"
)

// Invocation is one ledger row: a deploy, call or query routed through the gateway.
type Invocation struct {
	ID          uuid.UUID `json:"id"`
	RequestID   string    `json:"requestId,omitempty"`
	Op          string    `json:"op"`
	Contract    string    `json:"contract"`
	Function    string    `json:"function,omitempty"`
	FromAccount string    `json:"from,omitempty"`
	ToAddress   string    `json:"to,omitempty"`
	TxHash      string    `json:"txHash,omitempty"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	DurationMS  int64     `json:"durationMs"`
	CreatedAt   time.Time `json:"createdAt"`
}
