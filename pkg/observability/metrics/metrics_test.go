package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/nestview/pkg/observability"
)

func TestPipelineMetrics(t *testing.T) {
	ctx := context.Background()
	m := New(prometheus.NewRegistry())

	m.OnProjectComplete(ctx, 7, 5, time.Millisecond)
	m.OnLayoutComplete(ctx, "layered", time.Millisecond, nil)
	m.OnLayoutComplete(ctx, "layered", time.Millisecond, errors.New("boom"))
	m.OnDiagnostic(ctx, "dangling_edge")
	m.OnDiagnostic(ctx, "dangling_edge")

	if got := testutil.ToFloat64(m.VisibleNodes); got != 7 {
		t.Errorf("visible_nodes = %v, want 7", got)
	}
	if got := testutil.ToFloat64(m.LayoutFailures.WithLabelValues("layered")); got != 1 {
		t.Errorf("layout_failures_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Diagnostics.WithLabelValues("dangling_edge")); got != 2 {
		t.Errorf("diagnostics_total = %v, want 2", got)
	}
}

func TestCacheAndViewMetrics(t *testing.T) {
	ctx := context.Background()
	m := New(prometheus.NewRegistry())

	m.OnCacheHit(ctx, "layout")
	m.OnCacheMiss(ctx, "layout")
	m.OnCacheMiss(ctx, "layout")
	m.OnCacheSet(ctx, "layout", 128)
	m.OnToggle(ctx, "g", true)
	m.OnToggle(ctx, "g", false)
	m.OnToggle(ctx, "h", true)
	m.OnStaleResult(ctx, 1, 2)
	m.OnResponse(ctx, "GET", "/v1/model", 200, time.Millisecond)

	checks := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"hits", m.CacheRequests.WithLabelValues("layout", "hit"), 1},
		{"misses", m.CacheRequests.WithLabelValues("layout", "miss"), 2},
		{"bytes", m.CacheBytes.WithLabelValues("layout"), 128},
		{"expanded", m.Toggles.WithLabelValues("expanded"), 2},
		{"collapsed", m.Toggles.WithLabelValues("collapsed"), 1},
		{"stale", m.StaleResults, 1},
		{"http", m.HTTPRequests.WithLabelValues("GET", "/v1/model", "200"), 1},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			if got := testutil.ToFloat64(c.c); got != c.want {
				t.Errorf("%s = %v, want %v", c.name, got, c.want)
			}
		})
	}
}

func TestInstall(t *testing.T) {
	defer observability.Reset()

	m := New(prometheus.NewRegistry())
	m.Install()

	observability.Cache().OnCacheHit(context.Background(), "layout")
	if got := testutil.ToFloat64(m.CacheRequests.WithLabelValues("layout", "hit")); got != 1 {
		t.Errorf("installed hooks should receive events, got %v", got)
	}
}

func TestRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	defer func() {
		if recover() == nil {
			t.Error("registering twice on one registry should panic")
		}
	}()
	New(reg)
}
