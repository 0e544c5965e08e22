package lookup

import (
	"errors"
	"fmt"
	"time"

	"pairs-lab/internal/domain"
)

// Errors returned by lookup functions.
var (
	ErrNoPriceData  = errors.New("no price data available")
	ErrMissingPrice = errors.New("missing price")
)

// MissingPriceError reports that an asset has no close price on a date
// (halted, delisted, or absent from the history). Callers must not
// substitute a value.
type MissingPriceError struct {
	Asset string
	Date  time.Time
}

func (e *MissingPriceError) Error() string {
	return fmt.Sprintf("missing price for %s on %s", e.Asset, e.Date.Format("2006-01-02"))
}

// Unwrap lets errors.Is match ErrMissingPrice.
func (e *MissingPriceError) Unwrap() error {
	return ErrMissingPrice
}

// PriceIndex is a date-keyed view over one asset's price series.
type PriceIndex struct {
	asset  string
	prices map[time.Time]float64
}

// NewPriceIndex builds an index over series.
// Returns ErrNoPriceData if the series is nil or empty.
func NewPriceIndex(series *domain.PriceSeries) (*PriceIndex, error) {
	if series.Len() == 0 {
		return nil, ErrNoPriceData
	}

	prices := make(map[time.Time]float64, len(series.Points))
	for _, p := range series.Points {
		prices[domain.NormalizeDate(p.Date)] = p.Value
	}
	return &PriceIndex{asset: series.Asset, prices: prices}, nil
}

// Asset returns the indexed asset identifier.
func (idx *PriceIndex) Asset() string {
	return idx.asset
}

// PriceAt returns the close price on exactly date.
// Returns *MissingPriceError if the asset did not trade that day.
func (idx *PriceIndex) PriceAt(date time.Time) (float64, error) {
	p, ok := idx.prices[domain.NormalizeDate(date)]
	if !ok {
		return 0, &MissingPriceError{Asset: idx.asset, Date: domain.NormalizeDate(date)}
	}
	return p, nil
}

// AlignedPrices holds two price series restricted to their common dates.
type AlignedPrices struct {
	Dates []time.Time
	Y     []float64
	X     []float64
}

// Align intersects y and x on date, preserving ascending order.
// Returns ErrNoPriceData if either series is empty.
func Align(y, x *domain.PriceSeries) (*AlignedPrices, error) {
	if y.Len() == 0 || x.Len() == 0 {
		return nil, ErrNoPriceData
	}

	xIdx, err := NewPriceIndex(x)
	if err != nil {
		return nil, err
	}

	out := &AlignedPrices{
		Dates: make([]time.Time, 0, len(y.Points)),
		Y:     make([]float64, 0, len(y.Points)),
		X:     make([]float64, 0, len(y.Points)),
	}
	for _, p := range y.Points {
		d := domain.NormalizeDate(p.Date)
		xv, ok := xIdx.prices[d]
		if !ok {
			continue
		}
		out.Dates = append(out.Dates, d)
		out.Y = append(out.Y, p.Value)
		out.X = append(out.X, xv)
	}
	return out, nil
}
