package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"pairs-lab/internal/domain"
)

// ComputeParamsID computes a deterministic id for a threshold set.
// Formula: SHA256(entry|exit|stop|safe|max_holding_days|rolling_window)
// Returns the first 16 hex characters. Runs with equal thresholds share it.
func ComputeParamsID(th domain.Thresholds) string {
	data := fmt.Sprintf("%g|%g|%g|%g|%d|%d",
		th.EntryZ,
		th.ExitZ,
		th.StopZ,
		th.SafeZ,
		th.MaxHoldingDays,
		th.RollingWindow,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:16]
}
