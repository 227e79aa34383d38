// Package ocr extracts structured transaction data from receipt images via
// an external vision provider.
package ocr

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptFields is the structured record the provider extracts from a
// receipt image. Fields the provider could not read stay at their zero
// value (Date nil). CategoryID is intentionally absent: the provider never
// assigns categories, the user does.
type ReceiptFields struct {
	Type   string
	Amount decimal.Decimal
	Note   string
	Date   *time.Time
	Source string
}

// Extractor is the provider contract: one image in, one structured record
// or one opaque error out. No retries, no partial results.
type Extractor interface {
	ExtractReceiptData(ctx context.Context, image []byte) (*ReceiptFields, error)
}
