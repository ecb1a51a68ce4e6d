package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/skillnavigator/roadmap-service/internal/logging"
	"github.com/skillnavigator/roadmap-service/internal/roadmap/domain"
)

// PostgresLedger keeps balances in a user_credits style table. The CHECK
// constraint from the migrations backs the conditional UPDATE.
type PostgresLedger struct {
	db *sql.DB

	selectQuery    string
	insertQuery    string
	decrementQuery string
}

func NewPostgresLedger(db *sql.DB, table string) *PostgresLedger {
	t := pgx.Identifier{table}.Sanitize()
	return &PostgresLedger{
		db:          db,
		selectQuery: fmt.Sprintf(`SELECT credits FROM %s WHERE user_id = $1`, t),
		insertQuery: fmt.Sprintf(`INSERT INTO %s (user_id, credits) VALUES ($1, 0) ON CONFLICT (user_id) DO NOTHING`, t),
		decrementQuery: fmt.Sprintf(`UPDATE %s SET credits = credits - 1, updated_at = NOW()
			WHERE user_id = $1 AND credits >= 1
			RETURNING credits`, t),
	}
}

func (p *PostgresLedger) Check(ctx context.Context, userID string) bool {
	logger := logging.New(ctx).With("user_id", userID)

	var credits int64
	err := p.db.QueryRowContext(ctx, p.selectQuery, userID).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := p.db.ExecContext(ctx, p.insertQuery, userID); err != nil {
			logger.LogError("ledger_check_create", err)
		}
		return false
	}
	if err != nil {
		logger.LogError("ledger_check", err)
		return false
	}
	return credits >= 1
}

func (p *PostgresLedger) Decrement(ctx context.Context, userID string) (int64, error) {
	var credits int64
	err := p.db.QueryRowContext(ctx, p.decrementQuery, userID).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrInsufficientCredits
	}
	if err != nil {
		return 0, fmt.Errorf("%w: postgres decrement: %w", domain.ErrLedgerUnavailable, err)
	}
	return credits, nil
}
