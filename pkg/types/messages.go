package types

// Connect: GET /ws?table=<tableId>&token=<jwt>
// The connection subscribes to the table and joins it as the token's
// player. Reconnecting re-attaches to the same seat.

// Client -> Server (every message is {"type": ..., ...})
// table:join: {}
// table:leave: {}
//   mid-round the seat is released when the next betting phase opens
// table:start: {}            host only, lobby only
// table:close: {}            host only, lobby|betting|settlement
// table:delete: {}           host (or anyone once empty), lobby only
// table:bet:
//   amount: number           minBet..maxBet, at most the balance
// table:hit: {}
// table:stand: {}
// table:double: {}           unsplit two-card hand
// table:split: {}            two cards of the same rank
// table:insurance:
//   takeInsurance: boolean   costs half the bet, pays 2:1

// Server -> Client
// table:state:
//   version: number
//   state: Snapshot (see snapshot.go)
//
// table:error:
//   message: string          only sent to the connection that caused it
//
// table:closed:
//   message: string          the connection is closed right after
