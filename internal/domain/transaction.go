package domain

import (
	"time"
)

// Transaction is one immutable ledger fact. The segmentation core only reads
// CustomerID, Timestamp and Amount; the remaining attributes ride along for the
// reporting layer and the fraud dashboard.
type Transaction struct {
	CustomerID string    // required
	Timestamp  time.Time // required
	Amount     float64   // required; refunds stay negative and sum as-is

	Merchant  string
	Category  string
	City      string
	State     string
	Latitude  *float64
	Longitude *float64
	IsFraud   bool
}
