package domain

import "github.com/shopspring/decimal"

// VolumeScale is the number of fractional digits used for order volumes.
const VolumeScale = 8

// PriceQuote is a freshly fetched reference price. Never cached.
type PriceQuote struct {
	Pair      NormalizedPair
	LastPrice decimal.Decimal
}

// OrderRequest is everything that goes into a single signed AddOrder call.
type OrderRequest struct {
	Pair      NormalizedPair
	Side      OrderSide
	OrderType OrderType
	Volume    decimal.Decimal
	Nonce     uint64
}

// VolumeString renders the volume with exactly VolumeScale fractional digits,
// truncating any extra precision.
func (r OrderRequest) VolumeString() string {
	return r.Volume.Truncate(VolumeScale).StringFixed(VolumeScale)
}

// OrderResult is the terminal outcome of an order submission.
type OrderResult struct {
	Success        bool
	OrderID        string // empty when the exchange did not return a txid
	Description    string
	Pair           NormalizedPair
	Side           OrderSide
	ExecutedVolume decimal.Decimal
	ReferencePrice decimal.Decimal
	ErrorDetail    string
}

// HasOrderID reports whether the exchange assigned an identifier.
func (r *OrderResult) HasOrderID() bool {
	return r != nil && r.OrderID != ""
}
