package types

// Snapshot:
//   tableId, name: string
//   visibility: "public" | "private"
//   phase: "lobby" | "betting" | "dealing" | "insurance" | "player_turn" |
//          "dealer_turn" | "settlement" | "closed"
//   currentRound: number
//   minBet, maxBet, maxPlayers: number
//   hostId: string
//   bettingEndTime: number    unix ms; betting or insurance deadline, 0 if none
//   turnEndTime: number       unix ms, 0 if none
//   shoeRemaining: number
//   dealer: { cards: Card[], value: number | null, isBusted }
//     the second card is {hidden: true} and value is null until dealer_turn
//   players: Player[]         seat order
//   currentPlayerId: string
//   actionLog: { timestamp, player, action, details }[]   last 20
//   dealerHistory: { cards, value, isBusted }[]           last 5
//   isMyTurn, isHost: boolean
//   myPlayer: Player
//   playerHistory: { round, result, net }[]               last 5
//
// Player:
//   id, username: string
//   seatIndex: number
//   balance: number           own player only
//   bet, insuranceBet, payout: number
//   hasBet, isSittingOut, isLeaving, hasBlackjack, hasDoubled, isSplit
//   hands: { cards, value, isBusted, isStanding, bet, result, payout }[]
//   currentSplitHandIndex: number
//   canDouble, canSplit, isCurrentTurn: boolean
//   result: "win" | "lose" | "push" | "blackjack"
//
// Card: { suit, rank, value } or { hidden: true }
//   other players' cards are hidden during lobby and betting
