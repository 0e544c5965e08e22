package lookup

import (
	"errors"
	"testing"
	"time"

	"pairs-lab/internal/domain"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func series(asset string, values map[int]float64, days ...int) *domain.PriceSeries {
	s := &domain.PriceSeries{Asset: asset}
	for _, d := range days {
		s.Points = append(s.Points, domain.PricePoint{Date: day(d), Value: values[d]})
	}
	return s
}

func TestNewPriceIndex_Empty(t *testing.T) {
	_, err := NewPriceIndex(nil)
	if !errors.Is(err, ErrNoPriceData) {
		t.Errorf("expected ErrNoPriceData, got %v", err)
	}

	_, err = NewPriceIndex(&domain.PriceSeries{Asset: "A"})
	if !errors.Is(err, ErrNoPriceData) {
		t.Errorf("expected ErrNoPriceData, got %v", err)
	}
}

func TestPriceAt_ExactMatch(t *testing.T) {
	idx, err := NewPriceIndex(series("A", map[int]float64{0: 10, 1: 11, 3: 13}, 0, 1, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	price, err := idx.PriceAt(day(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 11 {
		t.Errorf("expected 11, got %f", price)
	}
}

func TestPriceAt_IgnoresTimeOfDay(t *testing.T) {
	idx, _ := NewPriceIndex(series("A", map[int]float64{0: 10}, 0))

	price, err := idx.PriceAt(day(0).Add(15 * time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 10 {
		t.Errorf("expected 10, got %f", price)
	}
}

func TestPriceAt_MissingDate(t *testing.T) {
	idx, _ := NewPriceIndex(series("A", map[int]float64{0: 10, 3: 13}, 0, 3))

	_, err := idx.PriceAt(day(2))
	if err == nil {
		t.Fatal("expected error for missing date")
	}

	var missing *MissingPriceError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingPriceError, got %T", err)
	}
	if missing.Asset != "A" || !missing.Date.Equal(day(2)) {
		t.Errorf("unexpected error fields: %+v", missing)
	}
	if !errors.Is(err, ErrMissingPrice) {
		t.Error("expected errors.Is(err, ErrMissingPrice)")
	}
}

func TestAlign_Intersection(t *testing.T) {
	y := series("Y", map[int]float64{0: 1, 1: 2, 2: 3, 4: 5}, 0, 1, 2, 4)
	x := series("X", map[int]float64{1: 20, 2: 30, 3: 40, 4: 50}, 1, 2, 3, 4)

	aligned, err := Align(y, x)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(aligned.Dates) != 3 {
		t.Fatalf("expected 3 common dates, got %d", len(aligned.Dates))
	}
	wantDays := []int{1, 2, 4}
	wantY := []float64{2, 3, 5}
	wantX := []float64{20, 30, 50}
	for i := range wantDays {
		if !aligned.Dates[i].Equal(day(wantDays[i])) {
			t.Errorf("date %d: expected %v, got %v", i, day(wantDays[i]), aligned.Dates[i])
		}
		if aligned.Y[i] != wantY[i] || aligned.X[i] != wantX[i] {
			t.Errorf("row %d: expected (%f,%f), got (%f,%f)", i, wantY[i], wantX[i], aligned.Y[i], aligned.X[i])
		}
	}
}

func TestAlign_EmptySeries(t *testing.T) {
	_, err := Align(&domain.PriceSeries{Asset: "Y"}, series("X", map[int]float64{0: 1}, 0))
	if !errors.Is(err, ErrNoPriceData) {
		t.Errorf("expected ErrNoPriceData, got %v", err)
	}
}
