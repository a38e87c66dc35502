package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"tinyhouse/internal/app/commands"
	"tinyhouse/internal/app/middleware"
	"tinyhouse/internal/app/outbox"
	"tinyhouse/internal/app/policies"
	domainbooking "tinyhouse/internal/domain/booking"
	"tinyhouse/internal/domain/calendar"
	domainlistings "tinyhouse/internal/domain/listings"
	"tinyhouse/internal/domain/shared/daterange"
	"tinyhouse/internal/domain/shared/events"
	"tinyhouse/internal/domain/shared/money"
	domainuser "tinyhouse/internal/domain/user"
)

const (
	createBookingKey = "booking.create"

	DefaultMaxAttempts = 3
	DefaultCurrency    = "USD"
)

// Stage is a step of the booking state machine.
type Stage string

const (
	StageValidating     Stage = "VALIDATING"
	StageIndexReserving Stage = "INDEX_RESERVING"
	StageCharging       Stage = "CHARGING"
	StagePersisting     Stage = "PERSISTING"
	StageCompleted      Stage = "COMPLETED"
)

type CreateBookingCommand struct {
	ListingID       string    `validate:"required"`
	ViewerID        string    // empty for anonymous requests
	Source          string    `validate:"required"`
	CheckIn         time.Time `validate:"required"`
	CheckOut        time.Time `validate:"required"`
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

// IdempotencyKey scopes the client key to the viewer.
func (c CreateBookingCommand) IdempotencyKey() string {
	key := strings.TrimSpace(c.IdempotencyKeyV)
	if key == "" {
		return ""
	}
	return createBookingKey + ":" + c.ViewerID + ":" + key
}

func (c CreateBookingCommand) ResultPrototype() any { return &CreateBookingResult{} }

func (c CreateBookingCommand) RecordScoped() bool { return true }

type CreateBookingResult struct {
	ID        string `json:"id"`
	ListingID string `json:"listing_id"`
	TenantID  string `json:"tenant_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Total     int64  `json:"total"`
	Currency  string `json:"currency"`
	ChargeID  string `json:"charge_id"`
}

// ReservationStore gives record level access. Each call is atomic for its own record only.
type ReservationStore interface {
	Listings() domainlistings.Repository
	Users() domainuser.Repository
	Bookings() domainbooking.Repository
}

// CreateBookingHandler admits a booking: validate, reserve the calendar, charge, then
// persist the booking, host income, tenant bookings and the listing index in that order.
// Failures after a successful charge surface as *domainbooking.InconsistencyError.
type CreateBookingHandler struct {
	Store       ReservationStore
	Payments    policies.PaymentsPort
	Validator   domainbooking.Validator
	Outbox      outbox.Outbox
	Encoder     outbox.EventEncoder
	Logger      *slog.Logger
	Clock       func() time.Time
	IDGenerator func() string
	MaxAttempts int
	Currency    string
}

var ErrStoreRequired = errors.New("booking: reservation store required")

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*CreateBookingResult, error) {
	if h.Store == nil {
		return nil, ErrStoreRequired
	}
	if h.Payments == nil {
		return nil, errors.New("booking: payments port required")
	}
	logger := h.logger().With("listing_id", cmd.ListingID, "viewer_id", cmd.ViewerID)
	now := h.now()
	viewer := domainuser.ID(strings.TrimSpace(cmd.ViewerID))

	logger.DebugContext(ctx, "booking stage", "stage", StageValidating)
	listing, err := h.loadListing(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, h.reject(ctx, logger, StageValidating, err)
	}
	if err := h.Validator.Validate(listing, viewer, cmd.CheckIn, cmd.CheckOut, now); err != nil {
		return nil, h.reject(ctx, logger, StageValidating, err)
	}
	dr, err := daterange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, h.reject(ctx, logger, StageValidating, domainbooking.ErrInvalidRange)
	}

	logger.DebugContext(ctx, "booking stage", "stage", StageIndexReserving)
	index, err := calendar.Reserve(listing.BookingsIndex, dr.CheckIn, dr.CheckOut)
	if err != nil {
		return nil, h.reject(ctx, logger, StageIndexReserving, err)
	}

	logger.DebugContext(ctx, "booking stage", "stage", StageCharging)
	host, err := h.loadUser(ctx, listing.Host, "host")
	if err != nil {
		return nil, h.reject(ctx, logger, StageCharging, err)
	}
	tenant, err := h.loadUser(ctx, viewer, "tenant")
	if err != nil {
		return nil, h.reject(ctx, logger, StageCharging, err)
	}
	if !host.HasWallet() {
		return nil, h.reject(ctx, logger, StageCharging, domainbooking.ErrHostNotPayable)
	}
	var total money.Money
	nightly, err := money.New(listing.Price, h.currency())
	if err == nil {
		total, err = domainbooking.TotalFor(nightly, dr)
	}
	if err != nil {
		return nil, h.reject(ctx, logger, StageCharging, fmt.Errorf("%w: %w", domainbooking.ErrPaymentDeclined, err))
	}
	if err := ctx.Err(); err != nil {
		return nil, h.reject(ctx, logger, StageCharging, err)
	}
	receipt, err := h.Payments.Charge(ctx, total, cmd.Source, host.WalletID)
	if err != nil {
		return nil, h.reject(ctx, logger, StageCharging, fmt.Errorf("%w: %w", domainbooking.ErrPaymentDeclined, err))
	}

	// money has moved: the remaining steps ignore caller cancellation
	persistCtx := context.WithoutCancel(ctx)
	logger = logger.With("charge_id", receipt.ID)
	logger.DebugContext(persistCtx, "booking stage", "stage", StagePersisting)
	created, err := h.persist(persistCtx, logger, persistInput{
		listing: listing,
		index:   index,
		host:    host,
		tenant:  tenant,
		dr:      dr,
		total:   total,
		receipt: receipt,
		now:     now,
	})
	if err != nil {
		return nil, err
	}

	logger.InfoContext(persistCtx, "booking completed", "stage", StageCompleted, "booking_id", created.ID, "total", total.String())
	return &CreateBookingResult{
		ID:        string(created.ID),
		ListingID: string(created.ListingID),
		TenantID:  string(created.TenantID),
		CheckIn:   created.Range.CheckIn.Format(time.DateOnly),
		CheckOut:  created.Range.CheckOut.Format(time.DateOnly),
		Total:     created.Total.Amount,
		Currency:  created.Total.Currency,
		ChargeID:  created.ChargeID,
	}, nil
}

type persistInput struct {
	listing *domainlistings.Listing
	index   calendar.Index
	host    *domainuser.User
	tenant  *domainuser.User
	dr      daterange.DateRange
	total   money.Money
	receipt policies.ChargeReceipt
	now     time.Time
}

func (h *CreateBookingHandler) persist(ctx context.Context, logger *slog.Logger, in persistInput) (*domainbooking.Booking, error) {
	id := domainbooking.BookingID(h.newID())
	logger = logger.With("booking_id", id)

	created, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        id,
		ListingID: in.listing.ID,
		TenantID:  in.tenant.ID,
		Range:     in.dr,
		Total:     in.total,
		ChargeID:  in.receipt.ID,
		CreatedAt: in.now,
	})
	if err != nil {
		return nil, h.inconsistent(ctx, logger, in, id, domainbooking.StepCreateBooking, err)
	}
	if err := h.Store.Bookings().Create(ctx, created); err != nil {
		return nil, h.inconsistent(ctx, logger, in, id, domainbooking.StepCreateBooking, err)
	}
	if err := h.Store.Users().AddIncome(ctx, in.host.ID, in.total.Amount); err != nil {
		return nil, h.inconsistent(ctx, logger, in, id, domainbooking.StepHostIncome, err)
	}
	if err := h.Store.Users().AppendBooking(ctx, in.tenant.ID, string(id)); err != nil {
		return nil, h.inconsistent(ctx, logger, in, id, domainbooking.StepTenantBookings, err)
	}
	if err := h.commitListing(ctx, logger, in, id); err != nil {
		return nil, h.inconsistent(ctx, logger, in, id, domainbooking.StepListingIndex, err)
	}

	evs := created.PullEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), evs); err != nil {
		logger.ErrorContext(ctx, "booking event not recorded", "error", err)
	}
	return created, nil
}

// commitListing writes the reserved index with a compare-and-swap on the listing version.
// On a lost race it re-reads the listing, re-validates and re-reserves before trying again.
func (h *CreateBookingHandler) commitListing(ctx context.Context, logger *slog.Logger, in persistInput, id domainbooking.BookingID) error {
	current := in.listing.Clone()
	index := in.index
	for attempt := 1; ; attempt++ {
		current.RecordReservation(index, string(id), in.now)
		err := h.Store.Listings().Save(ctx, current)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domainlistings.ErrConcurrentUpdate) {
			return err
		}
		if attempt >= h.maxAttempts() {
			return fmt.Errorf("%w after %d attempts", domainbooking.ErrContention, attempt)
		}
		logger.WarnContext(ctx, "listing changed concurrently, retrying reservation", "attempt", attempt)

		fresh, err := h.loadListing(ctx, in.listing.ID)
		if err != nil {
			return err
		}
		if err := h.Validator.Validate(fresh, in.tenant.ID, in.dr.CheckIn, in.dr.CheckOut, in.now); err != nil {
			return err
		}
		index, err = calendar.Reserve(fresh.BookingsIndex, in.dr.CheckIn, in.dr.CheckOut)
		if err != nil {
			return err
		}
		current = fresh
	}
}

func (h *CreateBookingHandler) inconsistent(ctx context.Context, logger *slog.Logger, in persistInput, id domainbooking.BookingID, step string, cause error) error {
	incErr := &domainbooking.InconsistencyError{Step: step, BookingID: id, ChargeID: in.receipt.ID, Err: cause}
	logger.ErrorContext(ctx, "booking persistence inconsistent, reconciliation required",
		"step", step,
		"host_id", in.host.ID,
		"tenant_id", in.tenant.ID,
		"total", in.total.Amount,
		"error", cause,
	)
	ev := domainbooking.PersistenceInconsistent{
		BookingID: id,
		ListingID: in.listing.ID,
		TenantID:  in.tenant.ID,
		HostID:    in.host.ID,
		Range:     in.dr,
		Total:     in.total,
		ChargeID:  in.receipt.ID,
		Step:      step,
		Reason:    cause.Error(),
		At:        h.now(),
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), []events.DomainEvent{ev}); err != nil {
		logger.ErrorContext(ctx, "inconsistency event not recorded", "error", err)
	}
	return incErr
}

func (h *CreateBookingHandler) reject(ctx context.Context, logger *slog.Logger, stage Stage, err error) error {
	logger.InfoContext(ctx, "booking rejected", "stage", stage, "error", err)
	return err
}

func (h *CreateBookingHandler) loadListing(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	listing, err := h.Store.Listings().ByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainlistings.ErrNotFound) {
			return nil, fmt.Errorf("%w: listing %s", domainbooking.ErrNotFound, id)
		}
		return nil, err
	}
	return listing, nil
}

func (h *CreateBookingHandler) loadUser(ctx context.Context, id domainuser.ID, role string) (*domainuser.User, error) {
	u, err := h.Store.Users().ByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s %s", domainbooking.ErrNotFound, role, id)
		}
		return nil, err
	}
	return u, nil
}

func (h *CreateBookingHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *CreateBookingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

func (h *CreateBookingHandler) newID() string {
	if h.IDGenerator != nil {
		return h.IDGenerator()
	}
	return uuid.NewString()
}

func (h *CreateBookingHandler) maxAttempts() int {
	if h.MaxAttempts > 0 {
		return h.MaxAttempts
	}
	return DefaultMaxAttempts
}

func (h *CreateBookingHandler) currency() string {
	if h.Currency != "" {
		return strings.ToUpper(h.Currency)
	}
	return DefaultCurrency
}

func (h *CreateBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

// IdempotencyErrors remembers only post-charge failures so a retried request never charges twice.
var IdempotencyErrors = middleware.ErrorPolicy{
	Remember: map[string]error{"persistence_inconsistent": domainbooking.ErrPersistenceInconsistent},
}

var _ commands.Handler[CreateBookingCommand, *CreateBookingResult] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = CreateBookingCommand{}
var _ middleware.RecordScopedCommand = CreateBookingCommand{}
