// Package model defines the durable record shapes: the spend ledger entries
// and the settings singleton.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SpendEntry is one row of the ledger. Entries are immutable after
// creation: the only mutations are insert and delete-by-id.
type SpendEntry struct {
	ID        int64
	Timestamp time.Time
	Amount    decimal.Decimal
	Note      string
}
