package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordEraPoll(t *testing.T) {
	RecordEraPoll("TEST", 1234, nil)
	if got := testutil.ToFloat64(DefaultMetrics.CurrentEra.WithLabelValues("TEST")); got != 1234 {
		t.Errorf("Expected current era 1234, got %v", got)
	}

	before := testutil.ToFloat64(DefaultMetrics.EraPollRuns.WithLabelValues("TEST", "error"))
	RecordEraPoll("TEST", 0, errors.New("down"))
	after := testutil.ToFloat64(DefaultMetrics.EraPollRuns.WithLabelValues("TEST", "error"))
	if after-before != 1 {
		t.Errorf("Expected one error poll, got %v", after-before)
	}
	if got := testutil.ToFloat64(DefaultMetrics.CurrentEra.WithLabelValues("TEST")); got != 1234 {
		t.Errorf("Failed poll must not reset current era, got %v", got)
	}
}

func TestRecordPriceCache(t *testing.T) {
	hits := testutil.ToFloat64(DefaultMetrics.PriceCacheHits.WithLabelValues("TEST"))
	misses := testutil.ToFloat64(DefaultMetrics.PriceCacheMisses.WithLabelValues("TEST"))

	RecordPriceCache("TEST", true)
	RecordPriceCache("TEST", false)
	RecordPriceCache("TEST", false)

	if got := testutil.ToFloat64(DefaultMetrics.PriceCacheHits.WithLabelValues("TEST")) - hits; got != 1 {
		t.Errorf("Expected 1 hit, got %v", got)
	}
	if got := testutil.ToFloat64(DefaultMetrics.PriceCacheMisses.WithLabelValues("TEST")) - misses; got != 2 {
		t.Errorf("Expected 2 misses, got %v", got)
	}
}

func TestRecordDBQuery_Errors(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.DBQueryErrors.WithLabelValues("test", "op"))
	RecordDBQuery("test", "op", 0.01, nil)
	RecordDBQuery("test", "op", 0.01, errors.New("fail"))
	if got := testutil.ToFloat64(DefaultMetrics.DBQueryErrors.WithLabelValues("test", "op")) - before; got != 1 {
		t.Errorf("Expected 1 error, got %v", got)
	}
}
