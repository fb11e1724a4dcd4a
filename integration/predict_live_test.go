//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"review-sentiment/internal/classifier"
	"review-sentiment/internal/config"
	"review-sentiment/internal/crawler"
	"review-sentiment/internal/parser"
	"review-sentiment/internal/pipeline"
	"review-sentiment/pkg/logger"
)

func TestAmazonProductReviews(t *testing.T) {
	// Amazon laptop product page (subject to change / blocking)
	url := "https://www.amazon.in/Lenovo-Athlon-Laptop-Windows-Warranty/dp/B0872G2MPV"

	cls, err := classifier.Load(classifier.Options{Backend: classifier.BackendVader})
	if err != nil {
		t.Fatalf("load vader: %v", err)
	}
	client := crawler.NewHTTPClient(25*time.Second, 5*time.Second, 5*1024*1024, "")
	p := pipeline.New(client, cls, parser.New(nil), pipeline.Options{
		ReviewSelector: config.DefaultReviewSelector,
		ScoreSelector:  config.DefaultScoreSelector,
	}, logger.New("debug"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := p.Run(ctx, pipeline.Input{URL: url})
	switch pipeline.KindOf(err) {
	case pipeline.FetchFailed, pipeline.NoReviewsFound:
		t.Skipf("skipping: page blocked or changed: %v", err)
	}
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.TotalReviews == 0 || len(res.Reviews) != res.TotalReviews {
		t.Errorf("unexpected review count: %+v", res)
	}
	if res.SentimentCounts.Sum() != res.TotalReviews {
		t.Errorf("vader labels are always canonical, counts %+v for %d reviews", res.SentimentCounts, res.TotalReviews)
	}
}
