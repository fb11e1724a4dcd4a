package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"review-sentiment/internal/models"
)

func TestRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordSuccess(models.PredictResult{
		ProcessingTime: 0.3,
		Reviews: []models.ReviewRecord{
			{Sentiment: models.Positive},
			{Sentiment: models.Positive},
			{Sentiment: models.Unknown},
		},
	})
	m.RecordFailure("NoReviewsFound")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("NoReviewsFound")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReviewsTotal.WithLabelValues("Positive")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReviewsTotal.WithLabelValues("Unknown")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.PipelineDuration))
}
