package types

import "github.com/DoyleJ11/blackjack-backend/internal/view"

// Client event names.
const (
	TableJoin      = "table:join"
	TableLeave     = "table:leave"
	TableStart     = "table:start"
	TableClose     = "table:close"
	TableDelete    = "table:delete"
	TableBet       = "table:bet"
	TableHit       = "table:hit"
	TableStand     = "table:stand"
	TableDouble    = "table:double"
	TableSplit     = "table:split"
	TableInsurance = "table:insurance"
)

type ClientMessage struct {
	Type          string `json:"type"`
	Amount        int64  `json:"amount,omitempty"`
	TakeInsurance bool   `json:"takeInsurance,omitempty"`
}

type ServerMessage struct {
	Type    string         `json:"type"` // "table:state" | "table:error" | "table:closed"
	Version int            `json:"version,omitempty"`
	State   *view.Snapshot `json:"state,omitempty"`
	Message string         `json:"message,omitempty"`
}
