package aggregator

import (
	"fmt"

	"review-sentiment/internal/models"
	"review-sentiment/internal/rating"
)

// Aggregate zips positionally aligned texts, scores and labels into review
// records and tallies the canonical labels. Unknown labels are kept on their
// records but counted in no bucket, so the counts may sum to less than the
// number of records.
func Aggregate(texts []string, scores []rating.Score, labels []models.Sentiment) (models.SummaryCounts, []models.ReviewRecord, error) {
	if len(scores) != len(texts) || len(labels) != len(texts) {
		return models.SummaryCounts{}, nil, fmt.Errorf("misaligned inputs: %d texts, %d scores, %d labels", len(texts), len(scores), len(labels))
	}

	var counts models.SummaryCounts
	records := make([]models.ReviewRecord, len(texts))
	for i, text := range texts {
		records[i] = models.ReviewRecord{Text: text, Score: scores[i], Sentiment: labels[i]}
		switch labels[i] {
		case models.Positive:
			counts.Positive++
		case models.Negative:
			counts.Negative++
		case models.Neutral:
			counts.Neutral++
		}
	}
	return counts, records, nil
}
