package stripe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"tinyhouse/internal/app/policies"
	"tinyhouse/internal/domain/shared/money"
)

// Client charges cards on a host's connected Stripe account and completes
// Stripe Connect OAuth exchanges through stripe-go.
type Client struct {
	HTTP       *http.Client
	SecretKey  string
	APIURL     string
	ConnectURL string
	Logger     *slog.Logger
	Now        func() time.Time

	once sync.Once
	api  *client.API
}

func (c *Client) Charge(ctx context.Context, amount money.Money, source, destination string) (policies.ChargeReceipt, error) {
	if err := c.configured(); err != nil {
		return policies.ChargeReceipt{}, err
	}
	if !amount.IsPositive() {
		return policies.ChargeReceipt{}, policies.ErrInvalidAmount
	}
	source = strings.TrimSpace(source)
	if source == "" {
		return policies.ChargeReceipt{}, policies.ErrSourceRequired
	}
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return policies.ChargeReceipt{}, policies.ErrDestinationEmpty
	}

	params := &stripego.ChargeParams{
		Amount:   stripego.Int64(amount.Amount),
		Currency: stripego.String(strings.ToLower(amount.Currency)),
	}
	params.Context = ctx
	params.SetStripeAccount(destination)
	if err := params.SetSource(source); err != nil {
		return policies.ChargeReceipt{}, fmt.Errorf("%w: %w", policies.ErrChargeFailed, err)
	}

	ch, err := c.sdk().Charges.New(params)
	if err != nil {
		c.logDecline(ctx, err)
		return policies.ChargeReceipt{}, fmt.Errorf("%w: %w", policies.ErrChargeFailed, err)
	}
	if ch.Status != "" && ch.Status != stripego.ChargeStatusSucceeded {
		return policies.ChargeReceipt{}, fmt.Errorf("%w: status %s", policies.ErrChargeFailed, ch.Status)
	}
	captured := c.now()
	if ch.Created > 0 {
		captured = time.Unix(ch.Created, 0)
	}
	if c.Logger != nil {
		c.Logger.InfoContext(ctx, "stripe charge captured", "charge_id", ch.ID, "amount", ch.Amount, "currency", ch.Currency)
	}
	return policies.ChargeReceipt{ID: ch.ID, Amount: amount, Captured: captured.UTC()}, nil
}

func (c *Client) Connect(ctx context.Context, code string) (string, error) {
	if err := c.configured(); err != nil {
		return "", err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return "", policies.ErrConnectFailed
	}
	params := &stripego.OAuthTokenParams{
		GrantType:    stripego.String("authorization_code"),
		Code:         stripego.String(code),
		ClientSecret: stripego.String(c.SecretKey),
	}
	params.Context = ctx
	token, err := c.sdk().OAuth.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", policies.ErrConnectFailed, err)
	}
	if token.StripeUserID == "" {
		return "", policies.ErrConnectFailed
	}
	return token.StripeUserID, nil
}

// logDecline records card errors with their decline code; other failures are left to the caller.
func (c *Client) logDecline(ctx context.Context, err error) {
	var apiErr *stripego.Error
	if c.Logger == nil || !errors.As(err, &apiErr) || apiErr.Type != stripego.ErrorTypeCard {
		return
	}
	c.Logger.WarnContext(ctx, "stripe card declined",
		"code", apiErr.Code,
		"decline_code", apiErr.DeclineCode,
		"status", apiErr.HTTPStatusCode,
	)
}

func (c *Client) sdk() *client.API {
	c.once.Do(func() {
		cfg := func(url string) *stripego.BackendConfig {
			return &stripego.BackendConfig{
				URL:               stripego.String(url),
				HTTPClient:        c.httpClient(),
				MaxNetworkRetries: stripego.Int64(0),
				LeveledLogger:     leveledLogger{logger: c.Logger},
			}
		}
		c.api = client.New(c.SecretKey, &stripego.Backends{
			API:     stripego.GetBackendWithConfig(stripego.APIBackend, cfg(c.apiURL())),
			Connect: stripego.GetBackendWithConfig(stripego.ConnectBackend, cfg(c.connectURL())),
			Uploads: stripego.GetBackendWithConfig(stripego.UploadsBackend, cfg(c.apiURL())),
		})
	})
	return c.api
}

func (c *Client) configured() error {
	if c == nil || strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("stripe: secret key not configured")
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func (c *Client) apiURL() string {
	if c.APIURL != "" {
		return strings.TrimRight(c.APIURL, "/")
	}
	return stripego.APIURL
}

func (c *Client) connectURL() string {
	if c.ConnectURL != "" {
		return strings.TrimRight(c.ConnectURL, "/")
	}
	return stripego.ConnectURL
}

func (c *Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// leveledLogger routes stripe-go's own request logging into slog.
type leveledLogger struct {
	logger *slog.Logger
}

func (l leveledLogger) Debugf(format string, v ...interface{}) { l.log(slog.LevelDebug, format, v) }
func (l leveledLogger) Infof(format string, v ...interface{})  { l.log(slog.LevelDebug, format, v) }
func (l leveledLogger) Warnf(format string, v ...interface{})  { l.log(slog.LevelWarn, format, v) }
func (l leveledLogger) Errorf(format string, v ...interface{}) { l.log(slog.LevelError, format, v) }

func (l leveledLogger) log(level slog.Level, format string, v []interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Log(context.Background(), level, fmt.Sprintf(format, v...))
}

var _ policies.PaymentsPort = (*Client)(nil)
