package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pustaka-be/internal/cache"
	"pustaka-be/internal/logger"
	"pustaka-be/internal/metrics"
)

const quoteCacheTTL = 6 * time.Hour

// CostResolver answers "what does it cost to ship this weight on this route"
// with a cached carrier quote.
type CostResolver interface {
	// Quote returns the cheapest rate for the route. A route with no usable
	// rate yields ErrShippingUnavailable, never a zero-cost quote.
	Quote(ctx context.Context, originID, destinationID, weightGrams int, courier string) (*Quote, error)

	// Destinations searches delivery areas, cached per search term.
	Destinations(ctx context.Context, search string, limit int) ([]Destination, error)
}

type costResolver struct {
	client RateClient
	cache  cache.Cache
}

func NewCostResolver(client RateClient, c cache.Cache) CostResolver {
	return &costResolver{client: client, cache: c}
}

func quoteCacheKey(originID, destinationID, weightGrams int, courier string) string {
	return fmt.Sprintf("shipping_cost_%d_%d_%d_%s", originID, destinationID, weightGrams, courier)
}

func destinationCacheKey(search string, limit int) string {
	return fmt.Sprintf("shipping_destination_%s_%d", search, limit)
}

func (r *costResolver) Quote(ctx context.Context, originID, destinationID, weightGrams int, courier string) (*Quote, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "resolver"),
		zap.String("method", "Quote"),
		zap.Int("origin", originID),
		zap.Int("destination", destinationID),
	)

	key := quoteCacheKey(originID, destinationID, weightGrams, courier)

	if cached, err := r.cache.Get(ctx, key); err == nil {
		var q Quote
		if err := json.Unmarshal([]byte(cached), &q); err == nil {
			metrics.ShippingCacheHits.Inc()
			return &q, nil
		}
		// Unreadable entry, fall through to a fresh fetch.
		_ = r.cache.Delete(ctx, key)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn("quote cache read failed", zap.Error(err))
	}

	metrics.ShippingCacheMisses.Inc()
	rates, err := r.client.CalculateDomesticCost(ctx, originID, destinationID, weightGrams, courier)
	if err != nil {
		log.Error("rate lookup failed", zap.Error(err))
		return nil, err
	}

	if len(rates) == 0 {
		// A stale cached quote must not outlive a route going dark.
		_ = r.cache.Delete(ctx, key)
		log.Warn("no rate returned for route")
		return nil, ErrShippingUnavailable
	}

	best := rates[0]
	for _, rate := range rates[1:] {
		if rate.Cost < best.Cost {
			best = rate
		}
	}

	q := &Quote{
		Cost:     best.Cost,
		Courier:  best.Code,
		Service:  best.Service,
		Estimate: best.ETD,
	}

	if encoded, err := json.Marshal(q); err == nil {
		if err := r.cache.Set(ctx, key, string(encoded), quoteCacheTTL); err != nil {
			log.Warn("quote cache write failed", zap.Error(err))
		}
	}

	return q, nil
}

func (r *costResolver) Destinations(ctx context.Context, search string, limit int) ([]Destination, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "resolver"),
		zap.String("method", "Destinations"),
	)

	key := destinationCacheKey(search, limit)

	if cached, err := r.cache.Get(ctx, key); err == nil {
		var dests []Destination
		if err := json.Unmarshal([]byte(cached), &dests); err == nil {
			return dests, nil
		}
		_ = r.cache.Delete(ctx, key)
	}

	dests, err := r.client.SearchDestinations(ctx, search, limit)
	if err != nil {
		log.Error("destination search failed", zap.Error(err))
		return nil, err
	}

	if encoded, err := json.Marshal(dests); err == nil {
		if err := r.cache.Set(ctx, key, string(encoded), quoteCacheTTL); err != nil {
			log.Warn("destination cache write failed", zap.Error(err))
		}
	}

	return dests, nil
}
