// Package pipeline runs one product page through fetch, review extraction,
// sentiment classification and aggregation.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"strings"
	"time"

	"review-sentiment/internal/aggregator"
	"review-sentiment/internal/classifier"
	"review-sentiment/internal/models"
	"review-sentiment/internal/parser"
	"review-sentiment/pkg/logger"
)

type Fetcher interface {
	Fetch(ctx context.Context, target models.FetchTarget) (io.ReadCloser, string, error)
}

// Classifier is satisfied by *classifier.Service.
type Classifier interface {
	Ready() bool
	Predict(texts []string) ([]int, error)
}

type Options struct {
	ReviewSelector string
	ScoreSelector  string
	// Headers are sent with every fetch; Input.Headers override them.
	Headers map[string]string
}

type Input struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"-"`
}

type Pipeline struct {
	fetcher    Fetcher
	classifier Classifier
	parser     *parser.Parser
	opts       Options
	log        *logger.Logger
	now        func() time.Time
}

func New(f Fetcher, c Classifier, p *parser.Parser, opts Options, log *logger.Logger) *Pipeline {
	return &Pipeline{fetcher: f, classifier: c, parser: p, opts: opts, log: log, now: time.Now}
}

// Run validates in, fetches the page and returns per-review sentiment with
// summary counts. Every failure is a *Error; no partial result is returned.
func (p *Pipeline) Run(ctx context.Context, in Input) (res models.PredictResult, err error) {
	if !validURL(in.URL) {
		return models.PredictResult{}, newError(InvalidInput, "A valid 'url' starting with http:// or https:// is required", nil)
	}
	if p.classifier == nil || !p.classifier.Ready() {
		return models.PredictResult{}, newError(ServiceUnavailable, classifier.ErrUnavailable.Error(), classifier.ErrUnavailable)
	}

	log := p.log.With("url", in.URL)
	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panic", "panic", r)
			res, err = models.PredictResult{}, internal(fmt.Errorf("panic: %v", r))
			return
		}
		var pe *Error
		if errors.As(err, &pe) && pe.Kind == InternalError && pe.Err != nil {
			log.Error("pipeline failed", "error", pe.Err)
		}
	}()

	start := p.now()

	target := models.FetchTarget{URL: in.URL, Headers: mergeHeaders(p.opts.Headers, in.Headers)}
	body, contentType, err := p.fetcher.Fetch(ctx, target)
	if err != nil {
		log.Warn("fetch failed", "error", err)
		return models.PredictResult{}, newError(FetchFailed, err.Error(), err)
	}
	data, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		log.Warn("reading page failed", "error", err)
		return models.PredictResult{}, newError(FetchFailed, err.Error(), err)
	}

	doc, err := p.parser.ParseDocument(bytes.NewReader(data), contentType)
	if err != nil {
		return models.PredictResult{}, internal(fmt.Errorf("parse document: %w", err))
	}
	page, err := p.parser.Extract(doc, p.opts.ReviewSelector, p.opts.ScoreSelector)
	if errors.Is(err, parser.ErrNoReviewsFound) {
		log.Warn("no reviews matched selector", "selector", p.opts.ReviewSelector)
		return models.PredictResult{}, newError(NoReviewsFound, err.Error(), err)
	}
	if err != nil {
		return models.PredictResult{}, internal(fmt.Errorf("extract: %w", err))
	}
	if parsed := parser.ParsedCount(page.Scores); parsed == 0 && len(page.RawScoreTexts) > 0 {
		log.Warn("score elements did not align with reviews", "reviews", len(page.ReviewTexts), "scores", len(page.RawScoreTexts))
	}

	raw, err := p.classifier.Predict(page.ReviewTexts)
	if err != nil {
		return models.PredictResult{}, internal(fmt.Errorf("classify: %w", err))
	}
	if len(raw) != len(page.ReviewTexts) {
		return models.PredictResult{}, internal(fmt.Errorf("classifier returned %d labels for %d reviews", len(raw), len(page.ReviewTexts)))
	}

	counts, records, err := aggregator.Aggregate(page.ReviewTexts, page.Scores, classifier.Labels(raw))
	if err != nil {
		return models.PredictResult{}, internal(err)
	}

	res = models.PredictResult{
		SentimentCounts: counts,
		TotalReviews:    len(records),
		ProcessingTime:  roundSeconds(p.now().Sub(start)),
		Reviews:         records,
	}
	log.Info("analysis complete",
		"reviews", res.TotalReviews,
		"scores", parser.ParsedCount(page.Scores),
		"positive", counts.Positive, "negative", counts.Negative, "neutral", counts.Neutral,
		"seconds", res.ProcessingTime)
	return res, nil
}

// ClassifyText labels a single free-form text.
func (p *Pipeline) ClassifyText(text string) (models.TextClassification, error) {
	if strings.TrimSpace(text) == "" {
		return models.TextClassification{}, newError(InvalidInput, "A non-empty 'text' is required", nil)
	}
	if p.classifier == nil || !p.classifier.Ready() {
		return models.TextClassification{}, newError(ServiceUnavailable, classifier.ErrUnavailable.Error(), classifier.ErrUnavailable)
	}
	raw, err := p.classifier.Predict([]string{text})
	if err != nil || len(raw) != 1 {
		if err == nil {
			err = fmt.Errorf("classifier returned %d labels for 1 text", len(raw))
		}
		p.log.Error("classify text failed", "error", err)
		return models.TextClassification{}, internal(err)
	}
	return models.TextClassification{Text: text, Sentiment: classifier.LabelFor(raw[0])}, nil
}

func validURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

func mergeHeaders(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(override))
	maps.Copy(out, base)
	maps.Copy(out, override)
	return out
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
