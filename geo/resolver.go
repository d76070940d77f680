package geo

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/tripmate/config"
	"github.com/sweetpotato0/tripmate/errors"
	"github.com/sweetpotato0/tripmate/pkg/logging"
)

// Location is the outcome of a successful resolution: coordinates plus the
// geocoder's canonical name. Produced per call, never cached.
type Location struct {
	Latitude  float64
	Longitude float64
	Name      string
}

// Resolver turns a free-form, possibly misspelled location phrase into
// coordinates by probing an ordered candidate ladder against the geocoder.
// Single free-text geocoding calls fail often on colloquial travel phrasing;
// the fallback ladder recovers most of them without a full NLP pipeline.
type Resolver struct {
	geocoder Geocoder
	tables   *config.Tables
	logger   *slog.Logger
}

// NewResolver wires a resolution cascade over the given geocoder.
func NewResolver(geocoder Geocoder, tables *config.Tables) *Resolver {
	if tables == nil {
		tables = config.DefaultTables()
	}
	return &Resolver{
		geocoder: geocoder,
		tables:   tables,
		logger:   logging.WithComponent("geo_resolver"),
	}
}

// Resolve probes each candidate in order and returns the first hit. A
// geocoder error or empty result advances to the next candidate; exhausting
// the ladder returns errors.ErrNoLocation, which callers treat as expected.
func (r *Resolver) Resolve(ctx context.Context, phrase string) (*Location, error) {
	if strings.TrimSpace(phrase) == "" {
		return nil, errors.ErrNoLocation
	}

	candidates := Candidates(phrase, r.tables)
	for _, cand := range candidates {
		places, err := r.geocoder.Search(ctx, cand)
		if err != nil {
			r.logger.Debug("geocoder candidate failed", "candidate", cand, "error", err)
			continue
		}
		if len(places) == 0 {
			r.logger.Debug("geocoder candidate empty", "candidate", cand)
			continue
		}
		hit := places[0]
		r.logger.Debug("location resolved", "phrase", phrase, "candidate", cand, "name", hit.Name)
		return &Location{
			Latitude:  hit.Latitude,
			Longitude: hit.Longitude,
			Name:      hit.Name,
		}, nil
	}

	r.logger.Debug("all geocoder candidates exhausted", "phrase", phrase, "candidates", len(candidates))
	return nil, errors.ErrNoLocation
}
