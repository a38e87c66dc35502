package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"tinyhouse/internal/app/policies"
	domainlistings "tinyhouse/internal/domain/listings"
	domainuser "tinyhouse/internal/domain/user"
)

type fixtureFile struct {
	Locations []locationFixture `json:"locations"`
	Users     []userFixture     `json:"users"`
	Listings  []listingFixture  `json:"listings"`
}

type locationFixture struct {
	Query   string `json:"query"`
	Country string `json:"country"`
	Admin   string `json:"admin"`
	City    string `json:"city"`
}

type userFixture struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Contact  string `json:"contact"`
	WalletID string `json:"wallet_id"`
	Token    string `json:"token"`
}

type listingFixture struct {
	ID          string `json:"id"`
	Host        string `json:"host"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Address     string `json:"address"`
	Country     string `json:"country"`
	Admin       string `json:"admin"`
	City        string `json:"city"`
	Image       string `json:"image"`
	Price       int64  `json:"price"`
	NumOfGuests int    `json:"num_of_guests"`
	CreatedAt   string `json:"created_at"`
}

func (a *application) loadFixtures(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixtures: %w", err)
	}
	var file fixtureFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}
	return a.seed(ctx, file)
}

func (a *application) seed(ctx context.Context, file fixtureFile) error {
	for _, loc := range file.Locations {
		a.addLocation(loc.Query, policies.Location{Country: loc.Country, Admin: loc.Admin, City: loc.City})
	}

	users, sessions := 0, 0
	for _, item := range file.Users {
		created, err := a.seedUser(ctx, item)
		if err != nil {
			return fmt.Errorf("user %s: %w", item.ID, err)
		}
		if created {
			users++
		}
		if item.Token != "" {
			if _, err := a.auth.IssueSession(ctx, domainuser.ID(item.ID), item.Token); err != nil {
				return fmt.Errorf("session for %s: %w", item.ID, err)
			}
			sessions++
		}
	}

	listings := 0
	for _, item := range file.Listings {
		created, err := a.seedListing(ctx, item)
		if err != nil {
			return fmt.Errorf("listing %s: %w", item.ID, err)
		}
		if created {
			listings++
		}
	}
	if a.logger != nil {
		a.logger.Info("fixtures loaded", "users", users, "sessions", sessions, "listings", listings)
	}
	return nil
}

func (a *application) seedUser(ctx context.Context, item userFixture) (bool, error) {
	if _, err := a.store.Users().ByID(ctx, domainuser.ID(item.ID)); err == nil {
		return false, nil
	} else if !errors.Is(err, domainuser.ErrNotFound) {
		return false, err
	}
	user, err := domainuser.NewUser(domainuser.CreateParams{
		ID:       domainuser.ID(item.ID),
		Name:     item.Name,
		Avatar:   item.Avatar,
		Contact:  item.Contact,
		WalletID: item.WalletID,
	})
	if err != nil {
		return false, err
	}
	return true, a.store.Users().Save(ctx, user)
}

func (a *application) seedListing(ctx context.Context, item listingFixture) (bool, error) {
	id := domainlistings.ListingID(item.ID)
	if _, err := a.store.Listings().ByID(ctx, id); err == nil {
		return false, nil
	} else if !errors.Is(err, domainlistings.ErrNotFound) {
		return false, err
	}
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:          id,
		Host:        domainuser.ID(item.Host),
		Title:       item.Title,
		Description: item.Description,
		Type:        item.Type,
		Address:     item.Address,
		Country:     item.Country,
		Admin:       item.Admin,
		City:        item.City,
		ImageURL:    item.Image,
		Price:       item.Price,
		NumOfGuests: item.NumOfGuests,
		Now:         parseTime(item.CreatedAt, time.Now()),
	})
	if err != nil {
		return false, err
	}
	listing.ClearEvents()
	if err := a.store.Listings().Create(ctx, listing); err != nil {
		return false, err
	}
	if err := a.store.Users().AppendListing(ctx, listing.Host, string(listing.ID)); err != nil {
		return false, err
	}
	a.addLocation(listing.Address, policies.Location{Country: listing.Country, Admin: listing.Admin, City: listing.City})
	a.addLocation(listing.City, policies.Location{Country: listing.Country, Admin: listing.Admin, City: listing.City})
	return true, nil
}

func (a *application) addLocation(query string, loc policies.Location) {
	if a.geocoder == nil || query == "" {
		return
	}
	a.geocoder.Add(query, loc)
}

func parseTime(value string, fallback time.Time) time.Time {
	if value == "" {
		return fallback
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return fallback
}
