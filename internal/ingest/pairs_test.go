package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/storage/memory"
)

func TestReadPairs(t *testing.T) {
	input := `Asset_Y,Asset_X,Hedge_Ratio,ADF_p_value,Half_Life
KO,PEP,0.91,0.01,12.5
XOM,CVX,1.2,0.03,20
`
	pairs, err := ReadPairs(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []domain.PairParameters{
		{AssetY: "KO", AssetX: "PEP", HedgeRatio: 0.91},
		{AssetY: "XOM", AssetX: "CVX", HedgeRatio: 1.2},
	}, pairs)
}

func TestReadPairs_ColumnOrderAndCase(t *testing.T) {
	input := "hedge_ratio,asset_x,asset_y\n0.5,PEP,KO\n"
	pairs, err := ReadPairs(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "KO", pairs[0].AssetY)
	assert.Equal(t, "PEP", pairs[0].AssetX)
	assert.Equal(t, 0.5, pairs[0].HedgeRatio)
}

func TestReadPairs_UnderscoreTickersNotDuplicates(t *testing.T) {
	input := "asset_y,asset_x,hedge_ratio\nBRK_B,C,1.1\nBRK,B_C,0.7\n"
	pairs, err := ReadPairs(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, pairs, 2)
}

func TestReadPairs_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"missing column", "Asset_Y,Asset_X\nKO,PEP\n"},
		{"bad hedge ratio", "Asset_Y,Asset_X,Hedge_Ratio\nKO,PEP,x\n"},
		{"empty asset", "Asset_Y,Asset_X,Hedge_Ratio\n,PEP,1\n"},
		{"duplicate", "Asset_Y,Asset_X,Hedge_Ratio\nKO,PEP,1\nKO,PEP,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPairs(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrMalformedRow)
		})
	}
}

func TestLoadPairs_FileAndStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairs.csv")
	require.NoError(t, os.WriteFile(path, []byte("Asset_Y,Asset_X,Hedge_Ratio\nKO,PEP,0.9\n"), 0o644))

	pairs, err := LoadPairs(path)
	require.NoError(t, err)

	store := memory.NewPairStore()
	require.NoError(t, StorePairs(context.Background(), store, pairs))

	got, err := store.GetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pairs, got)
}

func TestLoadPairs_MissingFile(t *testing.T) {
	_, err := LoadPairs(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
