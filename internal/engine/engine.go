package engine

import (
	"errors"
	"time"
)

var ErrWrongPhase = errors.New("action not allowed in this phase")
var ErrNotYourTurn = errors.New("not your turn")
var ErrPlayerNotFound = errors.New("player not at table")
var ErrTableFull = errors.New("table is full")
var ErrNotHost = errors.New("only the host can do that")
var ErrNoPlayers = errors.New("no players at table")
var ErrAlreadyBet = errors.New("bet already placed")
var ErrBetOutOfRange = errors.New("bet outside table limits")
var ErrInsufficientBalance = errors.New("insufficient balance")
var ErrHandFinished = errors.New("hand can no longer act")
var ErrIllegalDouble = errors.New("cannot double this hand")
var ErrIllegalSplit = errors.New("cannot split this hand")
var ErrInsuranceDecided = errors.New("insurance already decided")
var ErrBetTooSmallToInsure = errors.New("bet is too small to insure")
var ErrNotInRound = errors.New("player is not in this round")
var ErrUnsupportedCommand = errors.New("unsupported command")
var ErrTableClosed = errors.New("table closed")

// ErrShoeExhausted is fatal: the table cannot continue the round.
var ErrShoeExhausted = errors.New("shoe exhausted")

type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhaseBetting    Phase = "betting"
	PhaseDealing    Phase = "dealing"
	PhaseInsurance  Phase = "insurance"
	PhasePlayerTurn Phase = "player_turn"
	PhaseDealerTurn Phase = "dealer_turn"
	PhaseSettlement Phase = "settlement"
	PhaseClosed     Phase = "closed"
)

// InRound reports whether a round is being played out and seats cannot be
// vacated immediately.
func (p Phase) InRound() bool {
	switch p {
	case PhaseDealing, PhaseInsurance, PhasePlayerTurn, PhaseDealerTurn:
		return true
	}
	return false
}

type Result string

const (
	ResultWin       Result = "win"
	ResultLose      Result = "lose"
	ResultPush      Result = "push"
	ResultBlackjack Result = "blackjack"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Settings are the per-table options chosen by the host.
type Settings struct {
	Name       string
	Visibility Visibility
	MinBet     int64
	MaxBet     int64
	MaxSeats   int
}

// Rules are the server-wide timings and shoe parameters.
type Rules struct {
	Decks            int
	ReshuffleBelow   int
	BettingTimeout   time.Duration
	TurnTimeout      time.Duration
	InsuranceTimeout time.Duration
	DealDelay        time.Duration
	DealerStartDelay time.Duration
	DealerDrawDelay  time.Duration
	SettlementDelay  time.Duration
}

func DefaultRules() Rules {
	return Rules{
		Decks:            6,
		ReshuffleBelow:   DeckSize,
		BettingTimeout:   20 * time.Second,
		TurnTimeout:      15 * time.Second,
		InsuranceTimeout: 15 * time.Second,
		DealDelay:        time.Second,
		DealerStartDelay: 500 * time.Millisecond,
		DealerDrawDelay:  800 * time.Millisecond,
		SettlementDelay:  4 * time.Second,
	}
}

func DefaultSettings() Settings {
	return Settings{
		Name:       "Blackjack Table",
		Visibility: VisibilityPublic,
		MinBet:     10,
		MaxBet:     500,
		MaxSeats:   5,
	}
}

const (
	maxLogEntries = 20
	maxHistory    = 5
)

type Table struct {
	ID       string
	HostID   string
	Settings Settings
	Rules    Rules

	Phase   Phase
	Round   int
	Shoe    *Shoe
	Dealer  Hand
	Players []*Player // seat order
	// Current indexes Active(); -1 when nobody is to act.
	Current int

	BettingEndsAt time.Time
	TurnEndsAt    time.Time

	Log           []LogEntry
	DealerHistory []DealerOutcome
}

type Player struct {
	ID         string
	Name       string
	Seat       int
	Balance    int64
	SittingOut bool
	// Leaving marks a player who asked to leave mid-round; the seat is
	// released when the next betting phase opens.
	Leaving bool
	Round   Round
	History []PlayerOutcome
}

// Round holds everything about a player that only lives for one round. A
// fresh zero value is installed whenever betting opens.
type Round struct {
	Active           bool
	HasBet           bool
	Bet              int64
	InsuranceBet     int64
	InsuranceDecided bool
	InsurancePayout  int64
	HasDoubled       bool
	HasBlackjack     bool
	Play             Play
	Result           Result
	Payout           int64
}

// Play is either a *SingleHand or a *SplitHands.
type Play interface{ isPlay() }

type SingleHand struct {
	Hand Hand
}

type SplitHands struct {
	Hands  [2]Hand
	Active int
}

func (*SingleHand) isPlay() {}
func (*SplitHands) isPlay() {}

// nextOpen returns the first sub-hand at or after from that can still act.
func (s *SplitHands) nextOpen(from int) int {
	for i := from; i < len(s.Hands); i++ {
		if !s.Hands[i].Done() {
			return i
		}
	}
	return -1
}

// Hands returns the hands played this round in order.
func (r *Round) Hands() []*Hand {
	switch p := r.Play.(type) {
	case *SingleHand:
		return []*Hand{&p.Hand}
	case *SplitHands:
		return []*Hand{&p.Hands[0], &p.Hands[1]}
	}
	return nil
}

// Wagered is the total staked this round across hands and insurance.
func (r *Round) Wagered() int64 {
	total := r.InsuranceBet
	for _, h := range r.Hands() {
		total += h.Bet
	}
	return total
}

// activeHand is the hand a turn action applies to, with its 1-based split
// number (0 when unsplit).
func (r *Round) activeHand() (*Hand, int) {
	switch p := r.Play.(type) {
	case *SingleHand:
		return &p.Hand, 0
	case *SplitHands:
		if p.Active < 0 || p.Active >= len(p.Hands) {
			return nil, 0
		}
		return &p.Hands[p.Active], p.Active + 1
	}
	return nil, 0
}

func (r *Round) needsAction() bool {
	if !r.Active || r.HasBlackjack {
		return false
	}
	for _, h := range r.Hands() {
		if !h.Done() {
			return true
		}
	}
	return false
}

type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Player    string    `json:"player,omitempty"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
}

type DealerOutcome struct {
	Cards  []Card `json:"cards"`
	Value  int    `json:"value"`
	Busted bool   `json:"isBusted"`
}

type PlayerOutcome struct {
	Round  int    `json:"round"`
	Result Result `json:"result"`
	Net    int64  `json:"net"`
}

type CommandType string

const (
	CmdJoin      CommandType = "Join"
	CmdLeave     CommandType = "Leave"
	CmdStart     CommandType = "Start"
	CmdClose     CommandType = "Close"
	CmdDelete    CommandType = "Delete"
	CmdBet       CommandType = "Bet"
	CmdHit       CommandType = "Hit"
	CmdStand     CommandType = "Stand"
	CmdDouble    CommandType = "Double"
	CmdSplit     CommandType = "Split"
	CmdInsurance CommandType = "Insurance"
)

type Command struct {
	Type     CommandType
	PlayerID string
	Name     string
	Amount   int64
	Take     bool
}

type EventType string

const (
	EvtPlayerJoined     EventType = "PlayerJoined"
	EvtPlayerLeft       EventType = "PlayerLeft"
	EvtLeaveDeferred    EventType = "LeaveDeferred"
	EvtGameStarted      EventType = "GameStarted"
	EvtRoundStarted     EventType = "RoundStarted"
	EvtShoeShuffled     EventType = "ShoeShuffled"
	EvtBetPlaced        EventType = "BetPlaced"
	EvtSatOut           EventType = "SatOut"
	EvtNoBets           EventType = "NoBets"
	EvtCardsDealt       EventType = "CardsDealt"
	EvtBlackjack        EventType = "Blackjack"
	EvtInsuranceOffered EventType = "InsuranceOffered"
	EvtInsuranceTaken   EventType = "InsuranceTaken"
	EvtInsuranceRefused EventType = "InsuranceRefused"
	EvtInsurancePaid    EventType = "InsurancePaid"
	EvtInsuranceLost    EventType = "InsuranceLost"
	EvtDealerBlackjack  EventType = "DealerBlackjack"
	EvtTurnStarted      EventType = "TurnStarted"
	EvtHit              EventType = "Hit"
	EvtStood            EventType = "Stood"
	EvtBusted           EventType = "Busted"
	EvtDoubled          EventType = "Doubled"
	EvtSplit            EventType = "Split"
	EvtTimedOut         EventType = "TimedOut"
	EvtDealerRevealed   EventType = "DealerRevealed"
	EvtDealerHit        EventType = "DealerHit"
	EvtDealerStood      EventType = "DealerStood"
	EvtDealerBusted     EventType = "DealerBusted"
	EvtSettled          EventType = "Settled"
	EvtRefunded         EventType = "Refunded"
)

// Event describes one state change. Amount carries balance movements:
// BetPlaced, InsuranceTaken, Doubled and Split debit it; InsurancePaid,
// Settled and Refunded credit it.
type Event struct {
	Type     EventType
	PlayerID string
	Player   string
	Amount   int64
	Card     *Card
	Hand     int // 1-based split hand, 0 when unsplit
	Value    int
	Result   Result
}

// Debit reports the amount this event takes from the player's balance.
func (e Event) Debit() int64 {
	switch e.Type {
	case EvtBetPlaced, EvtInsuranceTaken, EvtDoubled, EvtSplit:
		return e.Amount
	}
	return 0
}

// Credit reports the amount this event returns to the player's balance.
func (e Event) Credit() int64 {
	switch e.Type {
	case EvtInsurancePaid, EvtSettled, EvtRefunded:
		return e.Amount
	}
	return 0
}
