// Package geocode resolves sample coordinates to ZIP codes through the
// Google Maps reverse-geocoding API. The API key must come from
// configuration; it is never compiled in.
package geocode

import (
	"context"
	"time"

	"googlemaps.github.io/maps"

	"github.com/clearwaterlab/microplastics/pkg/errors"
	"github.com/clearwaterlab/microplastics/pkg/log"
)

const defaultTimeout = 5 * time.Second

// Resolver maps a latitude/longitude to a ZIP code.
type Resolver interface {
	ZipCode(ctx context.Context, lat, lon float64) (string, error)
}

// reverseGeocoder is the maps-backed Resolver.
type reverseGeocoder struct {
	client  geocodingClient
	timeout time.Duration
}

// geocodingClient is the slice of *maps.Client the resolver uses,
// narrowed so tests can substitute a fake.
type geocodingClient interface {
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// New creates a Resolver using the given API key. The key comes from
// configuration or the environment; callers must not embed it in source.
func New(apiKey string) (Resolver, error) {
	if apiKey == "" {
		return nil, errors.NewValidationError("geocode.api_key", "must not be empty", apiKey)
	}

	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrap(err, "creating maps client")
	}

	return &reverseGeocoder{
		client:  client,
		timeout: defaultTimeout,
	}, nil
}

// ZipCode reverse-geocodes a point and returns the postal code of the
// first result carrying one.
func (g *reverseGeocoder) ZipCode(ctx context.Context, lat, lon float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	results, err := g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{
			Lat: lat,
			Lng: lon,
		},
		ResultType: []string{"postal_code"},
	})
	if err != nil {
		return "", errors.Wrap(err, "reverse geocoding")
	}

	for _, result := range results {
		for _, comp := range result.AddressComponents {
			for _, typ := range comp.Types {
				if typ == "postal_code" {
					log.GetLoggerWithName("geocode").Debug("resolved zip code",
						log.OperationKey, "reverse_geocode",
					)
					return comp.ShortName, nil
				}
			}
		}
	}

	return "", errors.Newf("no postal code found for %.5f,%.5f", lat, lon)
}
