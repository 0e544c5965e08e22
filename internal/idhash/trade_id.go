package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(asset_y|asset_x|entry_date|exit_date)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(
	assetY string,
	assetX string,
	entryDate time.Time,
	exitDate time.Time,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s",
		assetY,
		assetX,
		entryDate.UTC().Format("2006-01-02"),
		exitDate.UTC().Format("2006-01-02"),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
