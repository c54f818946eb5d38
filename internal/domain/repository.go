package domain

import (
	"context"
	"time"
)

// AccountRepository persists accounts and applies atomic balance changes.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	List(ctx context.Context, limit, offset int) ([]Account, error)
	SetRole(ctx context.Context, id string, role Role) error
	// Debit subtracts n only when the balance covers it and returns the new
	// balance. A balance shortfall yields *InsufficientCreditsError.
	Debit(ctx context.Context, id string, n int) (int, error)
	// Credit adds n and returns the new balance.
	Credit(ctx context.Context, id string, n int) (int, error)
	// DebitClamped subtracts up to n without going below zero.
	DebitClamped(ctx context.Context, id string, n int) (int, error)
}

// JobRepository persists generation jobs. Transition methods only touch
// non-terminal rows and report whether they changed anything.
type JobRepository interface {
	Create(ctx context.Context, job *GenerationJob) error
	GetForOwner(ctx context.Context, id, ownerID string) (*GenerationJob, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]GenerationJob, error)
	MarkProcessing(ctx context.Context, id string) (bool, error)
	Complete(ctx context.Context, id, resultURL string) (bool, error)
	// Fail moves a pending or processing job to failed. The returned job is
	// nil when the row was already terminal.
	Fail(ctx context.Context, id, message string) (*GenerationJob, error)
	ListStale(ctx context.Context, updatedBefore time.Time, limit int) ([]GenerationJob, error)
}

// CaptionRepository persists generated captions.
type CaptionRepository interface {
	Create(ctx context.Context, record *CaptionRecord) error
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]CaptionRecord, error)
}

// TransactionRepository persists credit purchases.
type TransactionRepository interface {
	Create(ctx context.Context, txn *Transaction) error
	SetPreference(ctx context.Context, id, preferenceID string) error
	Get(ctx context.Context, id string) (*Transaction, error)
	// Transition moves a transaction from one status to another and reports
	// whether the row was in the expected state.
	Transition(ctx context.Context, id string, from, to TransactionStatus, externalRef, method string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]Transaction, error)
}

// UsageRepository appends usage log entries.
type UsageRepository interface {
	Append(ctx context.Context, entry *UsageLogEntry) error
}

// StatsRepository computes admin counters.
type StatsRepository interface {
	Summary(ctx context.Context) (*Stats, error)
}

// Repositories bundles the repositories bound to one executor.
type Repositories struct {
	Accounts     AccountRepository
	Jobs         JobRepository
	Captions     CaptionRepository
	Transactions TransactionRepository
	Usage        UsageRepository
	Stats        StatsRepository
}

// TxManager runs fn with repositories bound to a single database transaction.
// The transaction commits when fn returns nil.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}
