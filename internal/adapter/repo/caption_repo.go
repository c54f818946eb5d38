package repo

import (
	"context"

	"captzio/internal/domain"
	"captzio/internal/infra"
	"captzio/internal/sqlinline"
)

// CaptionRepositoryPG stores generated captions.
type CaptionRepositoryPG struct {
	exec infra.SQLExecutor
}

func NewCaptionRepository(exec infra.SQLExecutor) *CaptionRepositoryPG {
	return &CaptionRepositoryPG{exec: exec}
}

func (r *CaptionRepositoryPG) Create(ctx context.Context, rec *domain.CaptionRecord) error {
	hashtags := rec.Hashtags
	if hashtags == nil {
		hashtags = []string{}
	}
	row := r.exec.QueryRow(ctx, sqlinline.QInsertCaption,
		rec.ID,
		rec.OwnerID,
		rec.Caption,
		hashtags,
		rec.CTA,
		rec.Tone,
		rec.Platform,
		rec.Goal,
		rec.CreditsUsed,
	)
	return row.Scan(&rec.CreatedAt)
}

func (r *CaptionRepositoryPG) ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.CaptionRecord, error) {
	if !validID(ownerID) {
		return nil, nil
	}
	rows, err := r.exec.Query(ctx, sqlinline.QListCaptionsByOwner, ownerID, clampLimit(limit, 20, 100))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CaptionRecord
	for rows.Next() {
		var c domain.CaptionRecord
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Caption, &c.Hashtags, &c.CTA, &c.Tone, &c.Platform, &c.Goal, &c.CreditsUsed, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

var _ domain.CaptionRepository = (*CaptionRepositoryPG)(nil)
