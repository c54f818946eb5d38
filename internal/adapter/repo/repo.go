package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"captzio/internal/domain"
	"captzio/internal/infra"
)

// New binds every repository to the same executor.
func New(exec infra.SQLExecutor) domain.Repositories {
	return domain.Repositories{
		Accounts:     NewAccountRepository(exec),
		Jobs:         NewJobRepository(exec),
		Captions:     NewCaptionRepository(exec),
		Transactions: NewTransactionRepository(exec),
		Usage:        NewUsageRepository(exec),
		Stats:        NewStatsRepository(exec),
	}
}

// TxManagerPG implements domain.TxManager on top of SQLRunner transactions.
type TxManagerPG struct {
	runner *infra.SQLRunner
}

func NewTxManager(runner *infra.SQLRunner) *TxManagerPG {
	return &TxManagerPG{runner: runner}
}

func (m *TxManagerPG) WithinTx(ctx context.Context, fn func(repos domain.Repositories) error) error {
	return m.runner.WithTx(ctx, func(exec infra.SQLExecutor) error {
		return fn(New(exec))
	})
}

// validID rejects identifiers postgres would refuse to cast, so lookups by a
// malformed id read as a miss instead of a driver error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

var _ domain.TxManager = (*TxManagerPG)(nil)
