package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/blackjack-backend/internal/engine"
)

type userRow struct {
	ID             string `gorm:"primaryKey"`
	Username       string
	Balance        int64
	GamesPlayed    int
	GamesWon       int
	TotalWinnings  int64
	TotalLosses    int64
	BlackjackCount int
	CurrentStreak  int
	BestStreak     int
	CreatedAt      time.Time
}

func (userRow) TableName() string { return "users" }

type gameRow struct {
	ID         string `gorm:"primaryKey"`
	Name       string
	HostUserID string `gorm:"index"`
	Visibility string
	MinBet     int64
	MaxBet     int64
	MaxPlayers int
	IsOpen     bool `gorm:"index"`
	CreatedAt  time.Time
	StartedAt  *time.Time
	EndedAt    *time.Time
}

func (gameRow) TableName() string { return "games" }

type seatRow struct {
	GameID    string `gorm:"primaryKey"`
	UserID    string `gorm:"primaryKey"`
	SeatIndex int
	JoinedAt  time.Time
}

func (seatRow) TableName() string { return "game_players" }

type historyRow struct {
	ID          uint `gorm:"primaryKey"`
	UserID      string `gorm:"index"`
	GameID      string `gorm:"index"`
	Round       int
	Bet         int64
	Result      string
	Payout      int64
	PlayerCards string
	DealerCards string
	PlayerValue int
	DealerValue int
	CreatedAt   time.Time
}

func (historyRow) TableName() string { return "game_history" }

// ledgerOpRow marks a keyed balance movement as applied.
type ledgerOpRow struct {
	Key       string `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	Amount    int64
	CreatedAt time.Time
}

func (ledgerOpRow) TableName() string { return "ledger_ops" }

// Postgres is the gorm-backed store.
type Postgres struct {
	db              *gorm.DB
	startingBalance int64
}

func OpenPostgres(dsn string, startingBalance int64) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	return NewPostgres(db, startingBalance), nil
}

func NewPostgres(db *gorm.DB, startingBalance int64) *Postgres {
	if startingBalance <= 0 {
		startingBalance = DefaultStartingBalance
	}
	return &Postgres{db: db, startingBalance: startingBalance}
}

// Migrate creates or updates the tables this store reads and writes.
func (p *Postgres) Migrate(ctx context.Context) error {
	err := p.db.WithContext(ctx).AutoMigrate(&userRow{}, &gameRow{}, &seatRow{}, &historyRow{}, &ledgerOpRow{})
	return errors.Wrap(err, "migrate")
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return errors.Wrap(err, "close postgres")
	}
	return sqlDB.Close()
}

func (p *Postgres) EnsurePlayer(ctx context.Context, playerID, name string) (int64, error) {
	u := userRow{ID: playerID, Username: name, Balance: p.startingBalance}
	err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&u).Error
	if err != nil {
		return 0, errors.Wrapf(err, "ensure player %s", playerID)
	}
	return p.Balance(ctx, playerID)
}

func (p *Postgres) Balance(ctx context.Context, playerID string) (int64, error) {
	var u userRow
	err := p.db.WithContext(ctx).Select("balance").First(&u, "id = ?", playerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, errors.Wrapf(err, "balance %s", playerID)
	}
	return u.Balance, nil
}

// DebitBalance takes amount in a single conditional update so the balance
// can never go negative.
func (p *Postgres) DebitBalance(ctx context.Context, playerID string, amount int64, key string) error {
	return p.move(ctx, playerID, -amount, key, func(tx *gorm.DB) error {
		res := tx.Model(&userRow{}).
			Where("id = ? AND balance >= ?", playerID, amount).
			UpdateColumn("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return errors.Wrapf(res.Error, "debit %s", playerID)
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientFunds
		}
		return nil
	})
}

func (p *Postgres) CreditBalance(ctx context.Context, playerID string, amount int64, key string) error {
	return p.move(ctx, playerID, amount, key, func(tx *gorm.DB) error {
		res := tx.Model(&userRow{}).
			Where("id = ?", playerID).
			UpdateColumn("balance", gorm.Expr("balance + ?", amount))
		if res.Error != nil {
			return errors.Wrapf(res.Error, "credit %s", playerID)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// move runs update in one transaction with the ledger_ops insert for key,
// so a key that is already recorded skips the update.
func (p *Postgres) move(ctx context.Context, playerID string, amount int64, key string, update func(tx *gorm.DB) error) error {
	if key == "" {
		return update(p.db.WithContext(ctx))
	}
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&ledgerOpRow{Key: key, UserID: playerID, Amount: amount})
		if res.Error != nil {
			return errors.Wrapf(res.Error, "record ledger op %s", key)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return update(tx)
	})
}

// RecordRoundOutcome writes the history row and the statistics update in
// one transaction. The streak columns change in a single UPDATE so the
// best streak is raised atomically alongside the current one.
func (p *Postgres) RecordRoundOutcome(ctx context.Context, rec RoundRecord) error {
	playerCards, err := json.Marshal(rec.PlayerCards)
	if err != nil {
		return errors.Wrap(err, "encode player cards")
	}
	dealerCards, err := json.Marshal(rec.DealerCards)
	if err != nil {
		return errors.Wrap(err, "encode dealer cards")
	}
	row := historyRow{
		UserID:      rec.PlayerID,
		GameID:      rec.TableID,
		Round:       rec.Round,
		Bet:         rec.Bet,
		Result:      string(rec.Result),
		Payout:      rec.Payout,
		PlayerCards: string(playerCards),
		DealerCards: string(dealerCards),
		PlayerValue: rec.PlayerValue,
		DealerValue: rec.DealerValue,
	}

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return errors.Wrapf(err, "insert history %s round %d", rec.PlayerID, rec.Round)
		}
		res := tx.Model(&userRow{}).Where("id = ?", rec.PlayerID).UpdateColumns(statsUpdate(rec))
		if res.Error != nil {
			return errors.Wrapf(res.Error, "update stats %s", rec.PlayerID)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func statsUpdate(rec RoundRecord) map[string]any {
	u := map[string]any{
		"games_played":   gorm.Expr("games_played + 1"),
		"current_streak": 0,
	}
	if rec.Blackjack {
		u["blackjack_count"] = gorm.Expr("blackjack_count + 1")
	}
	switch {
	case rec.Won():
		u["games_won"] = gorm.Expr("games_won + 1")
		u["total_winnings"] = gorm.Expr("total_winnings + ?", rec.Net)
		u["current_streak"] = gorm.Expr("current_streak + 1")
		u["best_streak"] = gorm.Expr("GREATEST(best_streak, current_streak + 1)")
	case rec.Result == engine.ResultLose:
		u["total_losses"] = gorm.Expr("total_losses + ?", rec.Bet)
	}
	return u
}

func (p *Postgres) CreateTable(ctx context.Context, rec TableRecord) error {
	row := gameRow{
		ID:         rec.ID,
		Name:       rec.Name,
		HostUserID: rec.HostID,
		Visibility: string(rec.Visibility),
		MinBet:     rec.MinBet,
		MaxBet:     rec.MaxBet,
		MaxPlayers: rec.MaxSeats,
		IsOpen:     true,
		CreatedAt:  rec.CreatedAt,
	}
	return errors.Wrapf(p.db.WithContext(ctx).Create(&row).Error, "create table %s", rec.ID)
}

func (p *Postgres) LoadTable(ctx context.Context, tableID string) (TableRecord, []RosterEntry, error) {
	var g gameRow
	err := p.db.WithContext(ctx).First(&g, "id = ? AND is_open = ?", tableID, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return TableRecord{}, nil, ErrNotFound
	}
	if err != nil {
		return TableRecord{}, nil, errors.Wrapf(err, "load table %s", tableID)
	}

	var roster []RosterEntry
	err = p.db.WithContext(ctx).
		Table("game_players AS gp").
		Select("gp.user_id AS player_id, u.username AS name, gp.seat_index AS seat, u.balance AS balance").
		Joins("JOIN users u ON u.id = gp.user_id").
		Where("gp.game_id = ?", tableID).
		Order("gp.seat_index").
		Scan(&roster).Error
	if err != nil {
		return TableRecord{}, nil, errors.Wrapf(err, "load roster %s", tableID)
	}

	rec := g.record()
	rec.Seated = len(roster)
	rec.HostName = p.username(ctx, g.HostUserID)
	return rec, roster, nil
}

func (p *Postgres) username(ctx context.Context, id string) string {
	var u userRow
	if err := p.db.WithContext(ctx).Select("username").First(&u, "id = ?", id).Error; err != nil {
		return ""
	}
	return u.Username
}

func (g gameRow) record() TableRecord {
	return TableRecord{
		ID:         g.ID,
		Name:       g.Name,
		HostID:     g.HostUserID,
		Visibility: engine.Visibility(g.Visibility),
		MinBet:     g.MinBet,
		MaxBet:     g.MaxBet,
		MaxSeats:   g.MaxPlayers,
		Open:       g.IsOpen,
		CreatedAt:  g.CreatedAt,
		StartedAt:  g.StartedAt,
	}
}

func (p *Postgres) SaveSeat(ctx context.Context, tableID string, e RosterEntry) error {
	row := seatRow{GameID: tableID, UserID: e.PlayerID, SeatIndex: e.Seat, JoinedAt: time.Now()}
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	return errors.Wrapf(err, "save seat %s/%s", tableID, e.PlayerID)
}

func (p *Postgres) RemoveSeat(ctx context.Context, tableID, playerID string) error {
	err := p.db.WithContext(ctx).Where("game_id = ? AND user_id = ?", tableID, playerID).Delete(&seatRow{}).Error
	return errors.Wrapf(err, "remove seat %s/%s", tableID, playerID)
}

func (p *Postgres) MarkStarted(ctx context.Context, tableID string, at time.Time) error {
	err := p.db.WithContext(ctx).Model(&gameRow{}).Where("id = ?", tableID).Update("started_at", at).Error
	return errors.Wrapf(err, "mark started %s", tableID)
}

func (p *Postgres) PersistTableClosed(ctx context.Context, tableID string, at time.Time) error {
	err := p.db.WithContext(ctx).Model(&gameRow{}).Where("id = ?", tableID).
		Updates(map[string]any{"is_open": false, "ended_at": at}).Error
	return errors.Wrapf(err, "close table %s", tableID)
}

func (p *Postgres) DeleteTable(ctx context.Context, tableID string) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("game_id = ?", tableID).Delete(&seatRow{}).Error; err != nil {
			return errors.Wrapf(err, "delete seats %s", tableID)
		}
		return errors.Wrapf(tx.Delete(&gameRow{}, "id = ?", tableID).Error, "delete table %s", tableID)
	})
}

func (p *Postgres) ListOpenTables(ctx context.Context, limit int) ([]TableRecord, error) {
	type listRow struct {
		gameRow
		HostName string
		Seated   int
	}
	var rows []listRow
	err := p.db.WithContext(ctx).
		Table("games AS g").
		Select("g.*, u.username AS host_name, (SELECT COUNT(*) FROM game_players gp WHERE gp.game_id = g.id) AS seated").
		Joins("LEFT JOIN users u ON u.id = g.host_user_id").
		Where("g.is_open = ? AND g.visibility = ?", true, string(engine.VisibilityPublic)).
		Order("g.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list open tables")
	}
	out := make([]TableRecord, 0, len(rows))
	for _, r := range rows {
		rec := r.gameRow.record()
		rec.HostName = r.HostName
		rec.Seated = r.Seated
		out = append(out, rec)
	}
	return out, nil
}
