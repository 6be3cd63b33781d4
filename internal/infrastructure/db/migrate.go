package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the minimal tables needed by this app.
// This keeps setup simple (no external migration tool), but still gives persistence.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`create table if not exists graduation_progress (
			user_id text primary key,
			stage text not null default 'paper',
			total_trades int not null default 0,
			wins int not null default 0,
			losses int not null default 0,
			win_rate double precision not null default 0,
			total_pnl double precision not null default 0,
			max_drawdown_pct double precision not null default 0,
			risk_score double precision not null default 0,
			paper_started_at timestamptz not null,
			graduated_at timestamptz null,
			live_enabled_at timestamptz null
		);`,
		`create table if not exists paper_trades (
			id text primary key,
			position_id text not null,
			symbol text not null,
			side text not null,
			action text not null,
			size double precision not null,
			price double precision not null,
			pnl double precision not null default 0,
			reason text not null default '',
			executed_at timestamptz not null
		);`,
		`create index if not exists paper_trades_executed_at_idx on paper_trades(executed_at);`,
		`create index if not exists paper_trades_symbol_idx on paper_trades(symbol, executed_at desc);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
