package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus enumerates payment states.
type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "pending"
	TransactionApproved TransactionStatus = "approved"
	TransactionFailed   TransactionStatus = "failed"
	TransactionRefunded TransactionStatus = "refunded"
)

// Transaction records one credit purchase.
type Transaction struct {
	ID                string
	OwnerID           string
	PackageID         string
	Amount            decimal.Decimal
	Currency          string
	Credits           int
	Status            TransactionStatus
	ExternalReference string
	PreferenceID      string
	Method            string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CreditPackage is a purchasable bundle of credits.
type CreditPackage struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Credits  int             `json:"credits"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

var creditPackages = []CreditPackage{
	{ID: "starter", Title: "Captzio Starter", Credits: 20, Price: decimal.RequireFromString("9.90"), Currency: "BRL"},
	{ID: "creator", Title: "Captzio Creator", Credits: 100, Price: decimal.RequireFromString("39.90"), Currency: "BRL"},
	{ID: "agency", Title: "Captzio Agency", Credits: 300, Price: decimal.RequireFromString("99.90"), Currency: "BRL"},
}

// CreditPackages returns the purchasable catalog.
func CreditPackages() []CreditPackage {
	out := make([]CreditPackage, len(creditPackages))
	copy(out, creditPackages)
	return out
}

// FindCreditPackage looks a package up by id.
func FindCreditPackage(id string) (CreditPackage, bool) {
	for _, p := range creditPackages {
		if p.ID == id {
			return p, true
		}
	}
	return CreditPackage{}, false
}
