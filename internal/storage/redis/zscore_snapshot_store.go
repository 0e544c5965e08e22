package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/storage"
)

// DefaultKeyPrefix namespaces snapshot keys.
const DefaultKeyPrefix = "pairslab:zscore:"

// snapshotRow is the JSON form of a z-score point. Z is omitted while the
// rolling window is warming up, since JSON cannot carry NaN.
type snapshotRow struct {
	Date   string   `json:"date"`
	Spread float64  `json:"spread"`
	Z      *float64 `json:"z,omitempty"`
}

// ZScoreSnapshotStore implements storage.ZScoreSnapshotStore on Redis.
// Each pair maps to one string key holding a JSON array.
type ZScoreSnapshotStore struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewZScoreSnapshotStore creates a store. A zero ttl keeps keys forever.
func NewZScoreSnapshotStore(client *goredis.Client, ttl time.Duration) *ZScoreSnapshotStore {
	return &ZScoreSnapshotStore{client: client, prefix: DefaultKeyPrefix, ttl: ttl}
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

var _ storage.ZScoreSnapshotStore = (*ZScoreSnapshotStore)(nil)

// key escapes each leg so distinct pairs never share a key.
func (s *ZScoreSnapshotStore) key(pair domain.PairKey) string {
	return s.prefix + url.PathEscape(pair.AssetY) + "/" + url.PathEscape(pair.AssetX)
}

// Put replaces the snapshot for a pair.
func (s *ZScoreSnapshotStore) Put(ctx context.Context, pair domain.PairKey, points []domain.ZScorePoint) error {
	if pair.AssetY == "" || pair.AssetX == "" {
		return storage.ErrInvalidInput
	}

	rows := make([]snapshotRow, len(points))
	for i, p := range points {
		rows[i] = snapshotRow{Date: p.Date.Format(time.DateOnly), Spread: p.Spread}
		if p.Defined {
			z := p.Value
			rows[i].Z = &z
		}
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", pair.Name(), err)
	}

	if err := s.client.Set(ctx, s.key(pair), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("set snapshot %s: %w", pair.Name(), err)
	}
	return nil
}

// Get retrieves the snapshot for a pair. Returns ErrNotFound if not exists.
func (s *ZScoreSnapshotStore) Get(ctx context.Context, pair domain.PairKey) ([]domain.ZScorePoint, error) {
	payload, err := s.client.Get(ctx, s.key(pair)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot %s: %w", pair.Name(), err)
	}

	var rows []snapshotRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", pair.Name(), err)
	}

	points := make([]domain.ZScorePoint, len(rows))
	for i, r := range rows {
		date, err := time.Parse(time.DateOnly, r.Date)
		if err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", pair.Name(), err)
		}
		points[i] = domain.ZScorePoint{Date: date, Spread: r.Spread}
		if r.Z != nil {
			points[i].Value = *r.Z
			points[i].Defined = true
		}
	}
	return points, nil
}
