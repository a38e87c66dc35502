package here

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"tinyhouse/internal/app/policies"
)

func TestGeocodeMapsFirstItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/geocode", r.URL.Path)
		require.Equal(t, "key", r.URL.Query().Get("apiKey"))
		switch r.URL.Query().Get("q") {
		case "toronto":
			_, _ = w.Write([]byte(`{"items":[{"address":{"countryName":"Canada","state":"Ontario","city":"Toronto"}}]}`))
		case "monaco":
			_, _ = w.Write([]byte(`{"items":[{"address":{"countryName":"Monaco","county":"Monaco","city":"Monaco"}}]}`))
		default:
			_, _ = w.Write([]byte(`{"items":[]}`))
		}
	}))
	defer srv.Close()

	c := &Client{HTTP: srv.Client(), APIKey: "key", APIURL: srv.URL}
	loc, err := c.Geocode(context.Background(), "toronto")
	require.NoError(t, err)
	require.Equal(t, policies.Location{Country: "Canada", Admin: "Ontario", City: "Toronto"}, loc)

	loc, err = c.Geocode(context.Background(), "monaco")
	require.NoError(t, err)
	require.Equal(t, "Monaco", loc.Admin)

	_, err = c.Geocode(context.Background(), "nowhere")
	require.ErrorIs(t, err, policies.ErrLocationNotFound)
}

func TestGeocodeFailsOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := &Client{HTTP: srv.Client(), APIKey: "bad", APIURL: srv.URL}
	_, err := c.Geocode(context.Background(), "toronto")
	require.Error(t, err)
	require.NotErrorIs(t, err, policies.ErrLocationNotFound)
}
