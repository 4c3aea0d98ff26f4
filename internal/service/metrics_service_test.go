package service

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/degree-pathway-api/internal/models"
)

func TestMetricsServiceRecordsDomainCounters(t *testing.T) {
	m := NewMetricsService()

	m.RecordTransition(models.CourseStatusInProgress)
	m.RecordTransition(models.CourseStatusInProgress)
	m.RecordRecommendations(3)
	m.ObserveStore("save", errors.New("boom"), time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.SetCreditTotals(map[models.CourseStatus]float64{models.CourseStatusRemaining: 42})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues(string(models.CourseStatusInProgress))))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.recommended))
	assert.Equal(t, 1, testutil.CollectAndCount(m.storeDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.creditGauge.WithLabelValues(string(models.CourseStatusRemaining))))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest("GET", "/courses", 200, time.Millisecond)
		m.RecordTransition(models.CourseStatusPlanned)
		m.RecordRecommendations(1)
		m.ObserveStore("load", nil, time.Millisecond)
		m.SetCreditTotals(nil)
	})
	assert.Nil(t, m.Registry())
}
