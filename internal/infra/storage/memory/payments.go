package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tinyhouse/internal/app/policies"
	"tinyhouse/internal/domain/shared/money"
)

// DeclinedSource is a card token the sandbox gateway always declines.
const DeclinedSource = "tok_chargeDeclined"

// PaymentGateway is a sandbox PaymentsPort that records charges in memory.
type PaymentGateway struct {
	mu      sync.Mutex
	charges []policies.ChargeReceipt
	dest    map[string]string
}

func NewPaymentGateway() *PaymentGateway {
	return &PaymentGateway{dest: make(map[string]string)}
}

func (g *PaymentGateway) Charge(ctx context.Context, amount money.Money, source, destination string) (policies.ChargeReceipt, error) {
	if err := ctx.Err(); err != nil {
		return policies.ChargeReceipt{}, err
	}
	switch {
	case !amount.IsPositive():
		return policies.ChargeReceipt{}, policies.ErrInvalidAmount
	case strings.TrimSpace(source) == "":
		return policies.ChargeReceipt{}, policies.ErrSourceRequired
	case strings.TrimSpace(destination) == "":
		return policies.ChargeReceipt{}, policies.ErrDestinationEmpty
	case source == DeclinedSource:
		return policies.ChargeReceipt{}, fmt.Errorf("%w: card declined", policies.ErrChargeFailed)
	}
	receipt := policies.ChargeReceipt{
		ID:       "ch_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Amount:   amount,
		Captured: time.Now().UTC(),
	}
	g.mu.Lock()
	g.charges = append(g.charges, receipt)
	g.dest[receipt.ID] = destination
	g.mu.Unlock()
	return receipt, nil
}

// Connect accepts any non-empty code and derives a deterministic account id from it.
func (g *PaymentGateway) Connect(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", policies.ErrConnectFailed
	}
	return "acct_" + code, nil
}

// Charges returns the captured charges in order.
func (g *PaymentGateway) Charges() []policies.ChargeReceipt {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]policies.ChargeReceipt(nil), g.charges...)
}

// Destination returns the payout account a charge was routed to.
func (g *PaymentGateway) Destination(chargeID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dest[chargeID]
}

var _ policies.PaymentsPort = (*PaymentGateway)(nil)
