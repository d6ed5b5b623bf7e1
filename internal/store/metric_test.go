package store

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSQLMethod(t *testing.T) {
	assert.Equal(t, "insert", sqlMethod("INSERT INTO items (external_id) VALUES ($1)", "conn-exec-context"))
	assert.Equal(t, "select", sqlMethod("SELECT external_id FROM items", "conn-query-context"))
	assert.Equal(t, "conn-exec-context", sqlMethod("", "conn-exec-context"))
}

func TestMetricInterceptorMeasure(t *testing.T) {
	mi := &metricInterceptor{}

	before := testutil.ToFloat64(pgOpTotal.WithLabelValues("tx-commit"))
	mi.measure("tx-commit", "tx-commit", time.Now())

	assert.Equal(t, before+1, testutil.ToFloat64(pgOpTotal.WithLabelValues("tx-commit")))
}
