package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAreExposed(t *testing.T) {
	m := New("commerce")

	m.Checkouts.WithLabelValues("wallet", "ok").Inc()
	m.Checkouts.WithLabelValues("wallet", "ok").Inc()
	m.Settlements.WithLabelValues("order", "paid").Inc()
	m.ObserveGateway("create_invoice", time.Now(), errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Checkouts.WithLabelValues("wallet", "ok")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `commerce_checkout_total{payment_method="wallet",result="ok"} 2`)
	assert.Contains(t, string(body), `commerce_settlement_total{outcome="paid",source="order"} 1`)
	assert.Contains(t, string(body), `commerce_gateway_request_duration_ms_count{operation="create_invoice",result="error"} 1`)
}

func TestNew_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New("commerce")
		New("commerce")
	})
}
