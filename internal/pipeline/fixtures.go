package pipeline

import (
	"context"
	"math"
	"math/rand"
	"time"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/storage"
)

// FixtureStart is the first trading day of the generated fixture history.
var FixtureStart = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// fixturePair describes one synthetic pair: log(y) = beta*log(x) + s where
// s follows an AR(1) process with coefficient phi.
type fixturePair struct {
	pair     domain.PairParameters
	phi      float64
	spreadSD float64
}

var fixturePairs = []fixturePair{
	{pair: domain.PairParameters{AssetY: "AAA", AssetX: "BBB", HedgeRatio: 1.0}, phi: 0.90, spreadSD: 0.02},
	{pair: domain.PairParameters{AssetY: "CCC", AssetX: "DDD", HedgeRatio: 0.8}, phi: 0.95, spreadSD: 0.015},
	{pair: domain.PairParameters{AssetY: "EEE", AssetX: "FFF", HedgeRatio: 1.2}, phi: 0.999, spreadSD: 0.02},
}

// GenerateFixtureHistory builds a deterministic synthetic price history of
// the given number of weekday observations, plus the pairs it contains.
func GenerateFixtureHistory(days int, seed int64) (domain.PriceHistory, []domain.PairParameters) {
	rng := rand.New(rand.NewSource(seed))
	dates := weekdays(FixtureStart, days)

	history := make(domain.PriceHistory)
	pairs := make([]domain.PairParameters, 0, len(fixturePairs))
	for _, fp := range fixturePairs {
		y := &domain.PriceSeries{Asset: fp.pair.AssetY, Points: make([]domain.PricePoint, days)}
		x := &domain.PriceSeries{Asset: fp.pair.AssetX, Points: make([]domain.PricePoint, days)}

		logX := math.Log(50)
		spread := 0.0
		for i, d := range dates {
			logX += rng.NormFloat64() * 0.01
			spread = fp.phi*spread + rng.NormFloat64()*fp.spreadSD
			x.Points[i] = domain.PricePoint{Date: d, Value: math.Exp(logX)}
			y.Points[i] = domain.PricePoint{Date: d, Value: math.Exp(fp.pair.HedgeRatio*logX + spread + 1)}
		}

		history[y.Asset] = y
		history[x.Asset] = x
		pairs = append(pairs, fp.pair)
	}
	return history, pairs
}

// LoadFixtures populates stores with a synthetic history for demonstration.
// Returns the fixture pairs in their canonical order.
func LoadFixtures(ctx context.Context, priceStore storage.PriceHistoryStore, pairStore storage.PairStore, days int, seed int64) ([]domain.PairParameters, error) {
	history, pairs := GenerateFixtureHistory(days, seed)

	for _, pair := range pairs {
		for _, asset := range []string{pair.AssetY, pair.AssetX} {
			if err := priceStore.InsertBulk(ctx, asset, history[asset].Points); err != nil {
				return nil, err
			}
		}
	}

	if pairStore != nil {
		if err := pairStore.InsertBulk(ctx, pairs); err != nil {
			return nil, err
		}
	}
	return pairs, nil
}

func weekdays(start time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	for d := start; len(out) < n; d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			out = append(out, d)
		}
	}
	return out
}
