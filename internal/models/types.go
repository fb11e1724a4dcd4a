package models

import (
	"time"

	"review-sentiment/internal/rating"
)

// FetchTarget is a page to download. URL must carry an http(s) scheme.
type FetchTarget struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

type ExtractedPage struct {
	ReviewTexts   []string       `json:"reviewTexts"`
	RawScoreTexts []string       `json:"rawScoreTexts"`
	Scores        []rating.Score `json:"scores"`
}

type Sentiment string

const (
	Positive Sentiment = "Positive"
	Neutral  Sentiment = "Neutral"
	Negative Sentiment = "Negative"
	Unknown  Sentiment = "Unknown"
)

// Canonical reports whether s is one of Positive, Neutral, Negative.
func (s Sentiment) Canonical() bool {
	return s == Positive || s == Neutral || s == Negative
}

type ReviewRecord struct {
	Text      string       `json:"review"`
	Score     rating.Score `json:"score"`
	Sentiment Sentiment    `json:"sentiment"`
}

type SummaryCounts struct {
	Positive int `json:"Positive"`
	Negative int `json:"Negative"`
	Neutral  int `json:"Neutral"`
}

func (c SummaryCounts) Sum() int { return c.Positive + c.Negative + c.Neutral }

type PredictResult struct {
	SentimentCounts SummaryCounts  `json:"sentiment_counts"`
	TotalReviews    int            `json:"total_reviews"`
	ProcessingTime  float64        `json:"processing_time"`
	Reviews         []ReviewRecord `json:"reviews"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type TextClassification struct {
	Text      string    `json:"text"`
	Sentiment Sentiment `json:"sentiment"`
}

// Classification is a stored /analyze result.
type Classification struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sentiment Sentiment `json:"sentiment"`
	CreatedAt time.Time `json:"created_at"`
}

// AnalysisSummary is a stored /predict run without its reviews.
type AnalysisSummary struct {
	ID              string        `json:"id"`
	URL             string        `json:"url"`
	SentimentCounts SummaryCounts `json:"sentiment_counts"`
	TotalReviews    int           `json:"total_reviews"`
	ProcessingTime  float64       `json:"processing_time"`
	CreatedAt       time.Time     `json:"created_at"`
}

type Analysis struct {
	AnalysisSummary
	Reviews []ReviewRecord `json:"reviews"`
}

type HealthStatus struct {
	Status           string `json:"status"`
	Backend          string `json:"backend"`
	ModelLoaded      bool   `json:"model_loaded"`
	VectorizerLoaded bool   `json:"vectorizer_loaded"`
}
