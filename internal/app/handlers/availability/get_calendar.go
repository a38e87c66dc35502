package availability

import (
	"context"
	"time"

	"tinyhouse/internal/app/dto"
	"tinyhouse/internal/app/handlers/support"
	"tinyhouse/internal/app/queries"
	"tinyhouse/internal/app/uow"
	"tinyhouse/internal/domain/calendar"
	domainlistings "tinyhouse/internal/domain/listings"
	"tinyhouse/internal/domain/shared/daterange"
)

const getCalendarKey = "availability.calendar"

// GetCalendarQuery lists reserved days of a listing. A zero From or To leaves that side open.
type GetCalendarQuery struct {
	ListingID string `validate:"required"`
	From      time.Time
	To        time.Time
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	unit, execCtx, release, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Calendar{}, err
	}
	if release != nil {
		defer release()
	}
	ctx = execCtx

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.Calendar{}, err
	}
	return dto.MapCalendar(q.ListingID, window(listing.BookingsIndex, q.From, q.To)), nil
}

func window(idx calendar.Index, from, to time.Time) calendar.Index {
	if from.IsZero() && to.IsZero() {
		return idx
	}
	var days []time.Time
	for _, d := range idx.Days() {
		if !from.IsZero() && d.Before(daterange.Day(from)) {
			continue
		}
		if !to.IsZero() && d.After(daterange.Day(to)) {
			continue
		}
		days = append(days, d)
	}
	return calendar.FromDays(days...)
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
