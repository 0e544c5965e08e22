package clickhouse

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"pairs-lab/internal/observability"
	"pairs-lab/internal/storage"
)

func TestObserveQuery(t *testing.T) {
	const op = "test.observe_query"
	errs := observability.DefaultMetrics.DBQueryErrors.WithLabelValues("clickhouse", op)
	before := testutil.ToFloat64(errs)

	failed := errors.New("connection reset")
	observeQuery(op, time.Now(), &failed)
	notFound := storage.ErrNotFound
	observeQuery(op, time.Now(), &notFound)
	var ok error
	observeQuery(op, time.Now(), &ok)

	// only the real failure counts
	assert.Equal(t, before+1, testutil.ToFloat64(errs))
	assert.Positive(t, testutil.CollectAndCount(observability.DefaultMetrics.DBQueryDuration))
}
