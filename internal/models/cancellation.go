package models

import (
	"math"
	"time"
)

const DefaultCancellationFee = 5.00

type CancellationQuote struct {
	Fee    float64 `json:"fee"`
	Refund float64 `json:"refund"`
}

// QuoteCancellation returns the fee and the refund max(0, amount - fee).
// A nil amount is treated as zero. Arithmetic is done in cents.
func QuoteCancellation(amount *float64, fee float64) CancellationQuote {
	var amountCents int64
	if amount != nil {
		amountCents = toCents(*amount)
	}
	feeCents := toCents(fee)

	refundCents := amountCents - feeCents
	if refundCents < 0 {
		refundCents = 0
	}

	return CancellationQuote{
		Fee:    fromCents(feeCents),
		Refund: fromCents(refundCents),
	}
}

func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

func fromCents(c int64) float64 {
	return float64(c) / 100
}

// Cancellation is the patch written to the owning request row.
type Cancellation struct {
	RequestId   string
	Source      Source
	CustomerId  string
	Fee         float64
	Refund      float64
	CancelledAt time.Time
}
