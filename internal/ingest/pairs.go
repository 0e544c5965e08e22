package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/storage"
)

// Pair list column names, matched case-insensitively. Other columns
// (p-values, half-life) are ignored.
const (
	colAssetY     = "asset_y"
	colAssetX     = "asset_x"
	colHedgeRatio = "hedge_ratio"
)

// LoadPairs reads a pair list from path.
func LoadPairs(path string) ([]domain.PairParameters, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pairs: %w", err)
	}
	defer f.Close()

	return ReadPairs(f)
}

// ReadPairs parses a pair list with Asset_Y, Asset_X and Hedge_Ratio columns.
// Row order is preserved.
func ReadPairs(r io.Reader) ([]domain.PairParameters, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty pair list", ErrMalformedRow)
		}
		return nil, fmt.Errorf("read pair header: %w", err)
	}

	index := map[string]int{colAssetY: -1, colAssetX: -1, colHedgeRatio: -1}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := index[key]; ok {
			index[key] = i
		}
	}
	for _, col := range []string{colAssetY, colAssetX, colHedgeRatio} {
		if index[col] < 0 {
			return nil, fmt.Errorf("%w: pair list missing column %s", ErrMalformedRow, col)
		}
	}

	var pairs []domain.PairParameters
	seen := make(map[domain.PairKey]struct{})
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

		pair := domain.PairParameters{
			AssetY: strings.TrimSpace(record[index[colAssetY]]),
			AssetX: strings.TrimSpace(record[index[colAssetX]]),
		}
		if pair.AssetY == "" || pair.AssetX == "" {
			return nil, fmt.Errorf("%w: line %d: empty asset", ErrMalformedRow, line)
		}
		pair.HedgeRatio, err = strconv.ParseFloat(strings.TrimSpace(record[index[colHedgeRatio]]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: hedge ratio: %v", ErrMalformedRow, line, err)
		}

		if _, dup := seen[pair.Key()]; dup {
			return nil, fmt.Errorf("%w: line %d: duplicate pair %s", ErrMalformedRow, line, pair.Name())
		}
		seen[pair.Key()] = struct{}{}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// StorePairs writes pairs into store.
func StorePairs(ctx context.Context, store storage.PairStore, pairs []domain.PairParameters) error {
	if err := store.InsertBulk(ctx, pairs); err != nil {
		return fmt.Errorf("store pairs: %w", err)
	}
	return nil
}
