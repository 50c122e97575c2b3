package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCounters(t *testing.T) {
	Register()

	before := testutil.ToFloat64(paymentSessions.WithLabelValues("ok"))
	IncSession("ok")
	assert.Equal(t, before+1, testutil.ToFloat64(paymentSessions.WithLabelValues("ok")))

	before = testutil.ToFloat64(webhookEvents.WithLabelValues("paid"))
	IncWebhook("paid")
	assert.Equal(t, before+1, testutil.ToFloat64(webhookEvents.WithLabelValues("paid")))

	before = testutil.ToFloat64(statusUpdates.WithLabelValues("accepted"))
	IncStatusUpdate("accepted")
	assert.Equal(t, before+1, testutil.ToFloat64(statusUpdates.WithLabelValues("accepted")))

	before = testutil.ToFloat64(httpRequests.WithLabelValues("pay"))
	IncHTTP("pay")
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("pay")))
}
