package metric

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCounterWithRegistry(reg, "things_total", "Things.", "kind")

	c.Increment("a")
	c.Increment("a")
	c.Add(3, "b")

	vec := c.(*Counter).vec
	assert.InDelta(t, 2, testutil.ToFloat64(vec.WithLabelValues("a")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(vec.WithLabelValues("b")), 0)
}

func TestNewSet_RegistersAll(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewSet(reg)

	s.Fetches.Increment(OutcomeSuccess)
	s.Builds.Increment(OutcomeSuccess)
	s.Records.Add(4, DispositionReachable)
	s.Selections.Increment()

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	assert.Panics(t, func() { NewSet(reg) }, "second registration must collide")
}

func TestGetHandlerForRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewSet(reg).Selections.Increment()

	rec := httptest.NewRecorder()
	GetHandlerForRegistry(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "menutree_selections_total 1")
}
