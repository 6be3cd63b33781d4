package repository

import (
	"context"
	"errors"
	"time"

	"nija-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresTradeArchive keeps the long-term history of closed paper trades.
// The JSON account file stays authoritative for the live ledger; this table
// only accumulates rows.
type PostgresTradeArchive struct {
	pool *pgxpool.Pool
}

func NewPostgresTradeArchive(pool *pgxpool.Pool) *PostgresTradeArchive {
	return &PostgresTradeArchive{pool: pool}
}

func (a *PostgresTradeArchive) RecordTrade(trade *domain.PaperTrade) error {
	if trade == nil {
		return errors.New("nil trade")
	}

	_, err := a.pool.Exec(context.Background(), `
		insert into paper_trades(
			id, position_id, symbol, side, action, size, price, pnl, reason, executed_at
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		on conflict (id) do nothing
	`,
		trade.ID,
		trade.PositionID,
		trade.Symbol,
		trade.Side,
		trade.Action,
		trade.Size,
		trade.Price,
		trade.PnL,
		trade.Reason,
		trade.Timestamp,
	)
	return err
}

func (a *PostgresTradeArchive) GetHistory(fromTime time.Time) []*domain.PaperTrade {
	rows, err := a.pool.Query(context.Background(), `
		select id, position_id, symbol, side, action, size, price, pnl, reason, executed_at
		from paper_trades
		where executed_at >= $1
		order by executed_at desc
	`, fromTime)
	if err != nil {
		return []*domain.PaperTrade{}
	}
	defer rows.Close()

	trades := make([]*domain.PaperTrade, 0)
	for rows.Next() {
		var t domain.PaperTrade
		if scanErr := rows.Scan(
			&t.ID,
			&t.PositionID,
			&t.Symbol,
			&t.Side,
			&t.Action,
			&t.Size,
			&t.Price,
			&t.PnL,
			&t.Reason,
			&t.Timestamp,
		); scanErr != nil {
			continue
		}
		trades = append(trades, &t)
	}
	return trades
}

// Helpers shared by the Postgres stores.

func nullableTime(v *time.Time) any {
	if v == nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Valid: true, Time: *v}
}

// compile-time check
var _ domain.TradeArchive = (*PostgresTradeArchive)(nil)
