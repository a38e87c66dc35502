package policies

import (
	"context"
	"errors"
	"time"

	"tinyhouse/internal/domain/shared/money"
)

var (
	ErrInvalidAmount    = errors.New("payments: amount must be positive")
	ErrSourceRequired   = errors.New("payments: source token is required")
	ErrDestinationEmpty = errors.New("payments: destination account is required")
	ErrChargeFailed     = errors.New("payments: charge failed")
	ErrConnectFailed    = errors.New("payments: failed to connect account")
)

// ChargeReceipt identifies a captured charge at the gateway.
type ChargeReceipt struct {
	ID       string
	Amount   money.Money
	Captured time.Time
}

// PaymentsPort charges a card token for a stay and routes it to the host payout account.
type PaymentsPort interface {
	Charge(ctx context.Context, amount money.Money, source, destination string) (ChargeReceipt, error)
	// Connect exchanges an OAuth authorization code for a payout account id.
	Connect(ctx context.Context, code string) (string, error)
}
