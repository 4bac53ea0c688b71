package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertRecord is one row of the audit journal.
type AlertRecord struct {
	ID          int64
	RequestID   string
	ReceivedAt  time.Time
	RawPayload  string
	Pair        NormalizedPair
	Side        OrderSide
	Amount      decimal.Decimal
	Volume      decimal.Decimal
	Price       decimal.Decimal
	Outcome     Outcome
	OrderID     string
	ErrorDetail string
}
