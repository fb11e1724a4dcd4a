package parser

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"review-sentiment/internal/models"
	"review-sentiment/internal/rating"
)

var ErrNoReviewsFound = errors.New("No reviews found")

type Parser struct {
	parseScore rating.ParseFunc
}

// New returns a Parser that reads rating text with parse, or rating.Parse
// when parse is nil.
func New(parse rating.ParseFunc) *Parser {
	if parse == nil {
		parse = rating.Parse
	}
	return &Parser{parseScore: parse}
}

// ParseDocument decodes r to UTF-8 using the content type and any <meta>
// charset hint, then builds a goquery document from it.
func (p *Parser) ParseDocument(r io.Reader, contentType string) (*goquery.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		// fallback: if already utf-8, continue
		if !utf8.Valid(data) {
			return nil, err
		}
		utf8data = data
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
	if err != nil {
		return nil, err
	}
	doc.Find("script,noscript,style").Remove()
	return doc, nil
}

// Extract collects the trimmed text of every element matching reviewSelector
// and parses the text of every element matching scoreSelector. Scores are
// kept only when there is exactly one per review; otherwise every review gets
// rating.Unparseable so positions never drift.
func (p *Parser) Extract(doc *goquery.Document, reviewSelector, scoreSelector string) (models.ExtractedPage, error) {
	var page models.ExtractedPage

	doc.Find(reviewSelector).Each(func(i int, s *goquery.Selection) {
		page.ReviewTexts = append(page.ReviewTexts, strings.TrimSpace(s.Text()))
	})
	if len(page.ReviewTexts) == 0 {
		return models.ExtractedPage{}, ErrNoReviewsFound
	}

	var scores []rating.Score
	doc.Find(scoreSelector).Each(func(i int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		page.RawScoreTexts = append(page.RawScoreTexts, raw)
		scores = append(scores, p.parseScore(raw))
	})

	if len(scores) == 0 || len(scores) != len(page.ReviewTexts) {
		scores = make([]rating.Score, len(page.ReviewTexts))
		for i := range scores {
			scores[i] = rating.Unparseable
		}
	}
	page.Scores = scores
	return page, nil
}

// ParsedCount is the number of scores that are not the unparseable marker.
func ParsedCount(scores []rating.Score) int {
	n := 0
	for _, s := range scores {
		if s.Valid() {
			n++
		}
	}
	return n
}
