package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"captzio/internal/domain"
	"captzio/internal/infra"
	"captzio/internal/sqlinline"
)

// TransactionRepositoryPG stores credit purchases.
type TransactionRepositoryPG struct {
	exec infra.SQLExecutor
}

func NewTransactionRepository(exec infra.SQLExecutor) *TransactionRepositoryPG {
	return &TransactionRepositoryPG{exec: exec}
}

func (r *TransactionRepositoryPG) Create(ctx context.Context, txn *domain.Transaction) error {
	row := r.exec.QueryRow(ctx, sqlinline.QInsertTransaction,
		txn.ID,
		txn.OwnerID,
		txn.PackageID,
		txn.Amount.StringFixed(2),
		txn.Currency,
		txn.Credits,
	)
	if err := row.Scan(&txn.CreatedAt, &txn.UpdatedAt); err != nil {
		return err
	}
	txn.Status = domain.TransactionPending
	return nil
}

func (r *TransactionRepositoryPG) SetPreference(ctx context.Context, id, preferenceID string) error {
	_, err := r.exec.Exec(ctx, sqlinline.QSetTransactionPreference, id, preferenceID)
	return err
}

func (r *TransactionRepositoryPG) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	return scanTransaction(r.exec.QueryRow(ctx, sqlinline.QSelectTransaction, id))
}

func (r *TransactionRepositoryPG) Transition(ctx context.Context, id string, from, to domain.TransactionStatus, externalRef, method string) (bool, error) {
	if !validID(id) {
		return false, domain.ErrNotFound
	}
	tag, err := r.exec.Exec(ctx, sqlinline.QTransitionTransaction, id, string(from), string(to), externalRef, method)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *TransactionRepositoryPG) List(ctx context.Context, limit, offset int) ([]domain.Transaction, error) {
	if offset < 0 {
		offset = 0
	}
	rows, err := r.exec.Query(ctx, sqlinline.QListTransactions, clampLimit(limit, 50, 200), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *txn)
	}
	return out, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		txn            domain.Transaction
		amount, status string
	)
	if err := row.Scan(
		&txn.ID,
		&txn.OwnerID,
		&txn.PackageID,
		&amount,
		&txn.Currency,
		&txn.Credits,
		&status,
		&txn.ExternalReference,
		&txn.PreferenceID,
		&txn.Method,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse transaction amount: %w", err)
	}
	txn.Amount = value
	txn.Status = domain.TransactionStatus(status)
	return &txn, nil
}

var _ domain.TransactionRepository = (*TransactionRepositoryPG)(nil)
