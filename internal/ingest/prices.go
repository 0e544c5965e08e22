// Package ingest loads price history and pair lists from CSV files.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/storage"
)

// ErrMalformedRow is returned when a CSV row cannot be parsed.
var ErrMalformedRow = errors.New("malformed row")

// dateLayouts are the accepted forms of the date column.
var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.NormalizeDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// LoadPrices reads a wide price table from path.
func LoadPrices(path string) (domain.PriceHistory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prices: %w", err)
	}
	defer f.Close()

	return ReadPrices(f)
}

// ReadPrices parses a wide price table: the first column is the date and
// every other column is one asset's close price. Empty or NaN cells mean
// the asset did not trade that day and are skipped.
func ReadPrices(r io.Reader) (domain.PriceHistory, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty price table", ErrMalformedRow)
		}
		return nil, fmt.Errorf("read price header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: price header needs a date column and at least one asset", ErrMalformedRow)
	}

	assets := make([]string, len(header)-1)
	for i, name := range header[1:] {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: empty asset name in column %d", ErrMalformedRow, i+2)
		}
		assets[i] = name
	}

	history := make(domain.PriceHistory, len(assets))
	for _, asset := range assets {
		if _, dup := history[asset]; dup {
			return nil, fmt.Errorf("%w: duplicate asset column %s", ErrMalformedRow, asset)
		}
		history[asset] = &domain.PriceSeries{Asset: asset}
	}

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRow, line, err)
		}

		date, err := parseDate(record[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRow, line, err)
		}

		for i, cell := range record[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			price, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d, %s: %v", ErrMalformedRow, line, assets[i], err)
			}
			if math.IsNaN(price) {
				continue
			}
			if price <= 0 || math.IsInf(price, 0) {
				return nil, fmt.Errorf("%w: line %d, %s: price must be positive, got %s", ErrMalformedRow, line, assets[i], cell)
			}
			series := history[assets[i]]
			series.Points = append(series.Points, domain.PricePoint{Date: date, Value: price})
		}
	}

	for _, series := range history {
		if err := sortSeries(series); err != nil {
			return nil, err
		}
	}
	return history, nil
}

// sortSeries orders points by date and rejects repeated dates.
func sortSeries(series *domain.PriceSeries) error {
	sort.SliceStable(series.Points, func(i, j int) bool {
		return series.Points[i].Date.Before(series.Points[j].Date)
	})
	for i := 1; i < len(series.Points); i++ {
		if series.Points[i].Date.Equal(series.Points[i-1].Date) {
			return fmt.Errorf("%w: %s has duplicate date %s", ErrMalformedRow,
				series.Asset, series.Points[i].Date.Format(time.DateOnly))
		}
	}
	return nil
}

// StorePrices writes every series of history into store, in asset order.
func StorePrices(ctx context.Context, store storage.PriceHistoryStore, history domain.PriceHistory) (int, error) {
	assets := history.Assets()
	sort.Strings(assets)

	total := 0
	for _, asset := range assets {
		series := history[asset]
		if series.Len() == 0 {
			continue
		}
		if err := store.InsertBulk(ctx, asset, series.Points); err != nil {
			return total, fmt.Errorf("store prices %s: %w", asset, err)
		}
		total += series.Len()
	}
	return total, nil
}
