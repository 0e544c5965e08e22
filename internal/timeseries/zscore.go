// Package timeseries derives the log-price spread and its rolling z-score.
package timeseries

import (
	"errors"
	"math"
	"time"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/cinar/indicator/v2/volatility"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/lookup"
)

// ErrInvalidWindow is returned for a rolling window below 2.
var ErrInvalidWindow = errors.New("rolling window must be at least 2")

// Spread computes log(y) - beta*log(x) for each aligned date.
// Non-positive prices yield a non-finite spread, which later reads as undefined.
func Spread(aligned *lookup.AlignedPrices, hedgeRatio float64) []float64 {
	out := make([]float64, len(aligned.Dates))
	for i := range aligned.Dates {
		out[i] = math.Log(aligned.Y[i]) - hedgeRatio*math.Log(aligned.X[i])
	}
	return out
}

// RollingZScore computes (s - mean_W) / std_W using a trailing window of
// length window and the sample (n-1) standard deviation.
// Points are undefined for the first window-1 observations, wherever the
// window contains a non-finite value, and wherever std is zero.
func RollingZScore(dates []time.Time, spread []float64, window int) ([]domain.ZScorePoint, error) {
	if window < 2 {
		return nil, ErrInvalidWindow
	}

	out := make([]domain.ZScorePoint, len(spread))
	for i := range spread {
		out[i] = domain.ZScorePoint{Date: dates[i], Spread: spread[i]}
	}

	// The indicators keep running sums, so each finite run is computed on its own.
	for _, run := range finiteRuns(spread) {
		if run.end-run.start < window {
			continue
		}
		values := spread[run.start:run.end]
		mean, std := rollingStats(values, window)
		offset := run.start + len(values) - len(mean)
		for k := range mean {
			i := offset + k
			if !(std[k] > zeroStd*math.Max(1, math.Abs(mean[k]))) {
				continue
			}
			out[i].Value = (spread[i] - mean[k]) / std[k]
			out[i].Defined = true
		}
	}
	return out, nil
}

// zeroStd is the relative level below which a rolling std counts as zero.
const zeroStd = 1e-12

type span struct{ start, end int }

// finiteRuns returns the maximal index ranges holding only finite values.
func finiteRuns(values []float64) []span {
	var runs []span
	start := -1
	for i, v := range values {
		finite := !math.IsNaN(v) && !math.IsInf(v, 0)
		switch {
		case finite && start < 0:
			start = i
		case !finite && start >= 0:
			runs = append(runs, span{start, i})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, span{start, len(values)})
	}
	return runs
}

// rollingStats returns the trailing mean and sample std for every full
// window of values. MovingStd divides by the period, so it is rescaled.
func rollingStats(values []float64, window int) (mean, std []float64) {
	sma := trend.NewSmaWithPeriod[float64](window)
	mean = helper.ChanToSlice(sma.Compute(helper.SliceToChan(values)))

	mstd := volatility.NewMovingStdWithPeriod[float64](window)
	std = helper.ChanToSlice(mstd.Compute(helper.SliceToChan(values)))

	// Align both outputs on the latest windows.
	if len(std) > len(mean) {
		std = std[len(std)-len(mean):]
	} else if len(mean) > len(std) {
		mean = mean[len(mean)-len(std):]
	}

	scale := math.Sqrt(float64(window) / float64(window-1))
	for k := range std {
		std[k] *= scale
	}
	return mean, std
}

// PairZScores aligns both legs of a pair and returns its z-score series.
func PairZScores(history domain.PriceHistory, pair domain.PairParameters, window int) ([]domain.ZScorePoint, error) {
	aligned, err := lookup.Align(history[pair.AssetY], history[pair.AssetX])
	if err != nil {
		return nil, err
	}
	return RollingZScore(aligned.Dates, Spread(aligned, pair.HedgeRatio), window)
}

// DefinedTail returns up to n of the most recent defined z-score points.
func DefinedTail(points []domain.ZScorePoint, n int) []domain.ZScorePoint {
	if n <= 0 {
		return nil
	}
	defined := make([]domain.ZScorePoint, 0, n)
	for i := len(points) - 1; i >= 0 && len(defined) < n; i-- {
		if points[i].Defined {
			defined = append(defined, points[i])
		}
	}
	// reverse to ascending date order
	for i, j := 0, len(defined)-1; i < j; i, j = i+1, j-1 {
		defined[i], defined[j] = defined[j], defined[i]
	}
	return defined
}

// EventsInYear keeps only events dated within the given calendar year.
func EventsInYear(events []domain.SignalEvent, year int) []domain.SignalEvent {
	out := make([]domain.SignalEvent, 0, len(events))
	for _, e := range events {
		if e.Date.Year() == year {
			out = append(out, e)
		}
	}
	return out
}
