package listings

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"tinyhouse/internal/app/commands"
	"tinyhouse/internal/app/dto"
	"tinyhouse/internal/app/outbox"
	"tinyhouse/internal/app/policies"
	"tinyhouse/internal/app/uow"
	domainlistings "tinyhouse/internal/domain/listings"
	domainuser "tinyhouse/internal/domain/user"
)

const hostListingKey = "listings.host"

var ErrInvalidImage = errors.New("listings: image must be a base64 data url")

type HostListingCommand struct {
	ViewerID    string
	Title       string `validate:"required,max=100"`
	Description string `validate:"max=5000"`
	Image       string `validate:"required"`
	Type        string `validate:"required,oneof=APARTMENT HOUSE apartment house"`
	Address     string `validate:"required"`
	Price       int64  `validate:"gte=0"`
	NumOfGuests int    `validate:"gte=1"`
}

func (c HostListingCommand) Key() string { return hostListingKey }

func (c HostListingCommand) ViewerIdentity() string { return c.ViewerID }

// HostListingHandler geocodes the address, stores the image and creates the listing
// for the viewer. It runs inside a unit of work.
type HostListingHandler struct {
	Geocoder    policies.Geocoder
	Uploader    policies.ImageUploader
	Outbox      outbox.Outbox
	Encoder     outbox.EventEncoder
	Logger      *slog.Logger
	Clock       func() time.Time
	IDGenerator func() string
}

func (h *HostListingHandler) Handle(ctx context.Context, cmd HostListingCommand) (*dto.Listing, error) {
	if h.Geocoder == nil || h.Uploader == nil {
		return nil, errors.New("listings: geocoder and uploader required")
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	hostID := domainuser.ID(strings.TrimSpace(cmd.ViewerID))
	if _, err := unit.Users().ByID(ctx, hostID); err != nil {
		return nil, err
	}

	loc, err := h.Geocoder.Geocode(ctx, cmd.Address)
	if err != nil {
		if errors.Is(err, policies.ErrLocationNotFound) {
			return nil, domainlistings.ErrInvalidAddress
		}
		return nil, fmt.Errorf("geocode address: %w", err)
	}
	if loc.Country == "" || loc.Admin == "" || loc.City == "" {
		return nil, domainlistings.ErrInvalidAddress
	}

	id := domainlistings.ListingID(h.newID())
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:          id,
		Host:        hostID,
		Title:       cmd.Title,
		Description: cmd.Description,
		Type:        cmd.Type,
		Address:     cmd.Address,
		Country:     loc.Country,
		Admin:       loc.Admin,
		City:        loc.City,
		Price:       cmd.Price,
		NumOfGuests: cmd.NumOfGuests,
		Now:         h.now(),
	})
	if err != nil {
		return nil, err
	}

	contentType, data, err := decodeDataURL(cmd.Image)
	if err != nil {
		return nil, err
	}
	objectKey := fmt.Sprintf("listings/%s/%s", id, uuid.NewString()+extensionFor(contentType))
	imageURL, err := h.Uploader.Upload(ctx, objectKey, bytes.NewReader(data), contentType)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	listing.ImageURL = imageURL

	if err := unit.Listings().Create(ctx, listing); err != nil {
		return nil, err
	}
	if err := unit.Users().AppendListing(ctx, hostID, string(listing.ID)); err != nil {
		return nil, err
	}

	evs := listing.PullEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, evs); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("listing hosted", "listing_id", listing.ID, "host_id", hostID, "city", listing.City)
	}
	result := dto.MapListing(listing)
	return &result, nil
}

func (h *HostListingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

func (h *HostListingHandler) newID() string {
	if h.IDGenerator != nil {
		return h.IDGenerator()
	}
	return uuid.NewString()
}

// decodeDataURL parses "data:<content-type>;base64,<payload>".
func decodeDataURL(raw string) (string, []byte, error) {
	raw = strings.TrimSpace(raw)
	meta, payload, ok := strings.Cut(raw, ",")
	if !ok || !strings.HasPrefix(meta, "data:") || !strings.HasSuffix(meta, ";base64") {
		return "", nil, ErrInvalidImage
	}
	contentType := strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64")
	if !strings.HasPrefix(contentType, "image/") {
		return "", nil, ErrInvalidImage
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return "", nil, ErrInvalidImage
	}
	return contentType, data, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}

var _ commands.Handler[HostListingCommand, *dto.Listing] = (*HostListingHandler)(nil)
