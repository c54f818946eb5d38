package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// UsageAction names a priced action.
type UsageAction string

const (
	UsageCaptionGenerate UsageAction = "caption_generate"
	UsageImageGenerate   UsageAction = "image_generate"
)

// UsageLogEntry is an append-only audit record of one priced action.
type UsageLogEntry struct {
	ID           string
	OwnerID      string
	Action       UsageAction
	Credits      int
	CostEstimate decimal.Decimal
	Metadata     map[string]any
	CreatedAt    time.Time
}

// Stats aggregates admin dashboard counters.
type Stats struct {
	Accounts        int64
	ImagesCompleted int64
	ImagesFailed    int64
	ImagesInFlight  int64
	Captions        int64
	CreditsSold     int64
	RevenueApproved decimal.Decimal
	CostEstimate24h decimal.Decimal
}
