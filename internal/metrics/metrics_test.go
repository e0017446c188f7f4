package metrics_test

import (
	"testing"

	"github.com/nookcoder/clinic-console/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.SignIn(true)
	m.SignIn(false)
	m.SignIn(false)
	m.SignOut()
	m.Unauthorized()
	m.Navigation("proceed")

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 4)

	count, err := testutil.GatherAndCount(reg, "clinic_console_sign_in_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per result label")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.SignIn(true)
		m.SignOut()
		m.Unauthorized()
		m.Navigation("redirect")
	})
}
