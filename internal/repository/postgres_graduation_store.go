package repository

import (
	"context"
	"errors"

	"nija-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresGraduationStore persists per-user graduation records in Postgres.
type PostgresGraduationStore struct {
	pool *pgxpool.Pool
}

func NewPostgresGraduationStore(pool *pgxpool.Pool) *PostgresGraduationStore {
	return &PostgresGraduationStore{pool: pool}
}

func (s *PostgresGraduationStore) Load(userID string) (*domain.GraduationProgress, error) {
	row := s.pool.QueryRow(context.Background(), `
		select user_id, stage, total_trades, wins, losses, win_rate,
			total_pnl, max_drawdown_pct, risk_score,
			paper_started_at, graduated_at, live_enabled_at
		from graduation_progress
		where user_id = $1
	`, userID)

	var p domain.GraduationProgress
	var stage string
	var graduatedAt pgtype.Timestamptz
	var liveEnabledAt pgtype.Timestamptz

	err := row.Scan(
		&p.UserID,
		&stage,
		&p.TotalTrades,
		&p.Wins,
		&p.Losses,
		&p.WinRate,
		&p.TotalPnL,
		&p.MaxDrawdownPct,
		&p.RiskScore,
		&p.PaperStartedAt,
		&graduatedAt,
		&liveEnabledAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProgressNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Stage = domain.TradingStage(stage)
	if graduatedAt.Valid {
		v := graduatedAt.Time
		p.GraduatedAt = &v
	}
	if liveEnabledAt.Valid {
		v := liveEnabledAt.Time
		p.LiveEnabledAt = &v
	}

	return &p, nil
}

func (s *PostgresGraduationStore) Save(progress *domain.GraduationProgress) error {
	if progress == nil {
		return errors.New("nil progress")
	}

	_, err := s.pool.Exec(context.Background(), `
		insert into graduation_progress(
			user_id, stage, total_trades, wins, losses, win_rate,
			total_pnl, max_drawdown_pct, risk_score,
			paper_started_at, graduated_at, live_enabled_at
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		on conflict (user_id) do update set
			stage=excluded.stage,
			total_trades=excluded.total_trades,
			wins=excluded.wins,
			losses=excluded.losses,
			win_rate=excluded.win_rate,
			total_pnl=excluded.total_pnl,
			max_drawdown_pct=excluded.max_drawdown_pct,
			risk_score=excluded.risk_score,
			paper_started_at=excluded.paper_started_at,
			graduated_at=excluded.graduated_at,
			live_enabled_at=excluded.live_enabled_at
	`,
		progress.UserID,
		string(progress.Stage),
		progress.TotalTrades,
		progress.Wins,
		progress.Losses,
		progress.WinRate,
		progress.TotalPnL,
		progress.MaxDrawdownPct,
		progress.RiskScore,
		progress.PaperStartedAt,
		nullableTime(progress.GraduatedAt),
		nullableTime(progress.LiveEnabledAt),
	)
	return err
}

// compile-time check
var _ domain.GraduationStore = (*PostgresGraduationStore)(nil)
