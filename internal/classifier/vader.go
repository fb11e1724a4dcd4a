package classifier

import "github.com/jonreiter/govader"

const vaderThreshold = 0.20

// Vader labels text with the VADER lexicon: compound >= 0.20 is positive,
// <= -0.20 negative, anything between neutral.
type Vader struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVader() *Vader {
	return &Vader{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *Vader) Predict(texts []string) ([]int, error) {
	out := make([]int, len(texts))
	for i, t := range texts {
		score := v.analyzer.PolarityScores(t).Compound
		switch {
		case score >= vaderThreshold:
			out[i] = 2
		case score <= -vaderThreshold:
			out[i] = 0
		default:
			out[i] = 1
		}
	}
	return out, nil
}
