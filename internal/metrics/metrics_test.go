package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInit(t *testing.T) {
	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if crawlerItemsTotal == nil || crawlerRunsTotal == nil ||
		crawlerFetchSeconds == nil || crawlerDateFallbackTotal == nil ||
		httpRequestsTotal == nil || httpRequestDurationSeconds == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}
}

func TestObservers(t *testing.T) {
	Init()

	ObserveItem("msit", OutcomeNew)
	if val := testutil.ToFloat64(crawlerItemsTotal.WithLabelValues("msit", OutcomeNew)); val < 1 {
		t.Errorf("expected crawler_items_total >= 1, got %f", val)
	}

	ObserveRun("kcc", "success", 250*time.Millisecond)
	if val := testutil.ToFloat64(crawlerRunsTotal.WithLabelValues("kcc", "success")); val < 1 {
		t.Errorf("expected crawler_runs_total >= 1, got %f", val)
	}

	ObserveDateFallback("msit")
	if val := testutil.ToFloat64(crawlerDateFallbackTotal.WithLabelValues("msit")); val < 1 {
		t.Errorf("expected crawler_date_fallback_total >= 1, got %f", val)
	}

	ObserveHTTPRequest("GET", "/v1/crawl", 200, 10*time.Millisecond)
	if val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "200")); val < 1 {
		t.Errorf("expected http_requests_total >= 1, got %f", val)
	}
}

func TestHandler(t *testing.T) {
	Init()
	if Handler() == nil {
		t.Fatal("expected a non-nil metrics handler")
	}
}
