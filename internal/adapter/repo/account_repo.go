package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"captzio/internal/domain"
	"captzio/internal/infra"
	"captzio/internal/sqlinline"
)

// AccountRepositoryPG implements domain.AccountRepository backed by PostgreSQL.
type AccountRepositoryPG struct {
	exec infra.SQLExecutor
}

// NewAccountRepository creates a new AccountRepositoryPG.
func NewAccountRepository(exec infra.SQLExecutor) *AccountRepositoryPG {
	return &AccountRepositoryPG{exec: exec}
}

// Create inserts the account if its id is new and returns the stored row.
// An existing row wins, so the signup grant is applied once.
func (r *AccountRepositoryPG) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if !validID(account.ID) {
		return nil, &domain.ValidationError{Field: "id", Reason: "must be a uuid"}
	}
	row := r.exec.QueryRow(ctx, sqlinline.QInsertAccount,
		account.ID,
		account.Email,
		account.DisplayName,
		account.Credits,
		string(account.Role),
	)
	return scanAccount(row)
}

// GetByID fetches an account by UUID.
func (r *AccountRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	return scanAccount(r.exec.QueryRow(ctx, sqlinline.QSelectAccountByID, id))
}

// GetByEmail fetches an account by case-insensitive email.
func (r *AccountRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return scanAccount(r.exec.QueryRow(ctx, sqlinline.QSelectAccountByEmail, email))
}

func (r *AccountRepositoryPG) List(ctx context.Context, limit, offset int) ([]domain.Account, error) {
	if offset < 0 {
		offset = 0
	}
	rows, err := r.exec.Query(ctx, sqlinline.QListAccounts, clampLimit(limit, 50, 200), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *AccountRepositoryPG) SetRole(ctx context.Context, id string, role domain.Role) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	tag, err := r.exec.Exec(ctx, sqlinline.QSetAccountRole, id, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Debit subtracts n in a single conditional update. When no row matches it
// reads the balance back to tell a shortfall apart from a missing account.
func (r *AccountRepositoryPG) Debit(ctx context.Context, id string, n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("debit: negative amount %d", n)
	}
	if !validID(id) {
		return 0, domain.ErrNotFound
	}
	var balance int
	err := r.exec.QueryRow(ctx, sqlinline.QDebitCredits, id, n).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !infra.IsNoRows(err) {
		return 0, err
	}
	if err := r.exec.QueryRow(ctx, sqlinline.QSelectAccountCredits, id).Scan(&balance); err != nil {
		return 0, notFound(err)
	}
	return balance, &domain.InsufficientCreditsError{Required: n, Available: balance}
}

func (r *AccountRepositoryPG) Credit(ctx context.Context, id string, n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("credit: negative amount %d", n)
	}
	return r.adjust(ctx, sqlinline.QCreditCredits, id, n)
}

func (r *AccountRepositoryPG) DebitClamped(ctx context.Context, id string, n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("debit: negative amount %d", n)
	}
	return r.adjust(ctx, sqlinline.QDebitCreditsClamped, id, n)
}

func (r *AccountRepositoryPG) adjust(ctx context.Context, query, id string, n int) (int, error) {
	if !validID(id) {
		return 0, domain.ErrNotFound
	}
	var balance int
	if err := r.exec.QueryRow(ctx, query, id, n).Scan(&balance); err != nil {
		return 0, notFound(err)
	}
	return balance, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a    domain.Account
		role string
	)
	if err := row.Scan(&a.ID, &a.Email, &a.DisplayName, &a.Credits, &role, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	a.Role = domain.Role(role)
	return &a, nil
}

var _ domain.AccountRepository = (*AccountRepositoryPG)(nil)
