package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"captzio/internal/domain"
	"captzio/internal/infra"
	"captzio/internal/sqlinline"
)

// UsageRepositoryPG appends to the usage log.
type UsageRepositoryPG struct {
	exec infra.SQLExecutor
}

func NewUsageRepository(exec infra.SQLExecutor) *UsageRepositoryPG {
	return &UsageRepositoryPG{exec: exec}
}

func (r *UsageRepositoryPG) Append(ctx context.Context, entry *domain.UsageLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	var meta []byte
	if len(entry.Metadata) > 0 {
		var err error
		if meta, err = json.Marshal(entry.Metadata); err != nil {
			return fmt.Errorf("encode usage metadata: %w", err)
		}
	}
	_, err := r.exec.Exec(ctx, sqlinline.QInsertUsageLog,
		entry.ID,
		entry.OwnerID,
		string(entry.Action),
		entry.Credits,
		entry.CostEstimate.StringFixed(6),
		meta,
	)
	return err
}

// StatsRepositoryPG computes the admin dashboard counters in one round trip.
type StatsRepositoryPG struct {
	exec infra.SQLExecutor
}

func NewStatsRepository(exec infra.SQLExecutor) *StatsRepositoryPG {
	return &StatsRepositoryPG{exec: exec}
}

func (r *StatsRepositoryPG) Summary(ctx context.Context) (*domain.Stats, error) {
	var (
		s             domain.Stats
		revenue, cost string
	)
	if err := r.exec.QueryRow(ctx, sqlinline.QStatsSummary).Scan(
		&s.Accounts,
		&s.ImagesCompleted,
		&s.ImagesFailed,
		&s.ImagesInFlight,
		&s.Captions,
		&s.CreditsSold,
		&revenue,
		&cost,
	); err != nil {
		return nil, err
	}
	var err error
	if s.RevenueApproved, err = decimal.NewFromString(revenue); err != nil {
		return nil, fmt.Errorf("parse revenue: %w", err)
	}
	if s.CostEstimate24h, err = decimal.NewFromString(cost); err != nil {
		return nil, fmt.Errorf("parse cost estimate: %w", err)
	}
	return &s, nil
}

var (
	_ domain.UsageRepository = (*UsageRepositoryPG)(nil)
	_ domain.StatsRepository = (*StatsRepositoryPG)(nil)
)
