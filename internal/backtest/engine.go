package backtest

import (
	"fmt"
	"math"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/idhash"
	"pairs-lab/internal/lookup"
)

// Value returns the signed spread position value for one date.
//
//	LONG:  y - beta*x
//	SHORT: -y + beta*x
func Value(direction domain.Direction, priceY, priceX, hedgeRatio float64) float64 {
	if direction == domain.DirectionShort {
		return -priceY + hedgeRatio*priceX
	}
	return priceY - hedgeRatio*priceX
}

// Engine replays filtered signal events against raw prices.
type Engine struct {
	pair   domain.PairParameters
	priceY *lookup.PriceIndex
	priceX *lookup.PriceIndex
}

// NewEngine creates a new backtest engine for one pair.
func NewEngine(pair domain.PairParameters, priceY, priceX *lookup.PriceIndex) *Engine {
	return &Engine{
		pair:   pair,
		priceY: priceY,
		priceX: priceX,
	}
}

// NewEngineFromHistory indexes both legs of pair from history.
func NewEngineFromHistory(pair domain.PairParameters, history domain.PriceHistory) (*Engine, error) {
	py, err := lookup.NewPriceIndex(history[pair.AssetY])
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", pair.AssetY, err)
	}
	px, err := lookup.NewPriceIndex(history[pair.AssetX])
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", pair.AssetX, err)
	}
	return NewEngine(pair, py, px), nil
}

// MatchTrades pairs each entry with the next EXIT and values the result.
//
// events must contain only LONG/SHORT/EXIT markers in date order.
// Scanning stops at the first entry with no later EXIT: that entry and
// every event after it are ignored. Stray EXITs while flat are skipped.
// Returns *lookup.MissingPriceError if either leg lacks a price on an
// entry or exit date.
func (e *Engine) MatchTrades(events []domain.SignalEvent) ([]*domain.ClosedTrade, error) {
	var trades []*domain.ClosedTrade

	i := 0
	for i < len(events)-1 {
		entry := events[i]
		if !entry.Signal.IsEntry() {
			i++
			continue
		}

		j := i + 1
		for j < len(events) && events[j].Signal != domain.SignalExit {
			j++
		}
		if j >= len(events) {
			break // incomplete trade
		}

		trade, err := e.closeTrade(entry, events[j])
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)

		i = j + 1
	}

	return trades, nil
}

// closeTrade values one matched entry/exit pair.
func (e *Engine) closeTrade(entry, exit domain.SignalEvent) (*domain.ClosedTrade, error) {
	direction := domain.DirectionLong
	if entry.Signal == domain.SignalShort {
		direction = domain.DirectionShort
	}

	entryValue, err := e.valueAt(direction, entry)
	if err != nil {
		return nil, fmt.Errorf("value entry: %w", err)
	}
	exitValue, err := e.valueAt(direction, exit)
	if err != nil {
		return nil, fmt.Errorf("value exit: %w", err)
	}

	pnl := exitValue - entryValue
	entryDate := domain.NormalizeDate(entry.Date)
	exitDate := domain.NormalizeDate(exit.Date)

	return &domain.ClosedTrade{
		TradeID:     idhash.ComputeTradeID(e.pair.AssetY, e.pair.AssetX, entryDate, exitDate),
		EntryDate:   entryDate,
		ExitDate:    exitDate,
		HoldingDays: domain.DaysBetween(entryDate, exitDate),
		AssetY:      e.pair.AssetY,
		AssetX:      e.pair.AssetX,
		HedgeRatio:  e.pair.HedgeRatio,
		Direction:   direction,
		ExitReason:  exit.Reason,
		EntryValue:  entryValue,
		ExitValue:   exitValue,
		PnL:         pnl,
		ReturnPct:   pnl / math.Abs(entryValue),
	}, nil
}

func (e *Engine) valueAt(direction domain.Direction, ev domain.SignalEvent) (float64, error) {
	py, err := e.priceY.PriceAt(ev.Date)
	if err != nil {
		return 0, err
	}
	px, err := e.priceX.PriceAt(ev.Date)
	if err != nil {
		return 0, err
	}
	return Value(direction, py, px, e.pair.HedgeRatio), nil
}
