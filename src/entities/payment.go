package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyVND Currency = "VND"
)

type PaymentRequest struct {
	Amount      decimal.Decimal
	Currency    Currency
	Description string
}

// Total is the amount as PayPal expects it: exactly two fraction digits.
func (r PaymentRequest) Total() string {
	return r.Amount.StringFixed(2)
}

type PaymentRecord struct {
	ID          string
	State       string
	ApprovalURL string
}

type PaymentStatus struct {
	ID      string
	State   string
	PayerID string
}

type ExecutionResult struct {
	Approved bool
	State    string
}

type Purpose string

const (
	PurposeDonation Purpose = "donation"
	PurposePackage  Purpose = "package"
)

// IssuedPayment is a payment the bot handed an approval link for and may
// still have to confirm.
type IssuedPayment struct {
	PaymentID string
	ChatID    int64
	Username  string
	Purpose   Purpose
	Package   PackageCode
	Amount    decimal.Decimal
	CreatedAt time.Time
}
