package classifier

import (
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tokens are runs of two or more letters, marks, digits or underscores.
var tokenRe = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]{2,}`)

// Vectorizer is a TF-IDF bag-of-ngrams transform.
type Vectorizer struct {
	Lowercase   bool           `yaml:"lowercase"`
	NgramRange  []int          `yaml:"ngram_range"`
	SublinearTF bool           `yaml:"sublinear_tf"`
	Vocabulary  map[string]int `yaml:"vocabulary"`
	IDF         []float64      `yaml:"idf"`
}

// LinearModel scores each class as coef·x + intercept.
type LinearModel struct {
	Classes   []int       `yaml:"classes"`
	Coef      [][]float64 `yaml:"coef"`
	Intercept []float64   `yaml:"intercept"`
}

func LoadVectorizer(path string) (*Vectorizer, error) {
	var v Vectorizer
	if err := readYAML(path, &v); err != nil {
		return nil, fmt.Errorf("vectorizer: %w", err)
	}
	if err := v.validate(); err != nil {
		return nil, fmt.Errorf("vectorizer %s: %w", path, err)
	}
	return &v, nil
}

func LoadLinearModel(path string) (*LinearModel, error) {
	var m LinearModel
	if err := readYAML(path, &m); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return &m, nil
}

func readYAML(path string, out any) error {
	if path == "" {
		return errors.New("no artifact path configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

func (v *Vectorizer) validate() error {
	switch len(v.NgramRange) {
	case 0:
		v.NgramRange = []int{1, 1}
	case 2:
		if v.NgramRange[0] < 1 || v.NgramRange[1] < v.NgramRange[0] {
			return fmt.Errorf("bad ngram_range %v", v.NgramRange)
		}
	default:
		return fmt.Errorf("ngram_range needs two values, got %d", len(v.NgramRange))
	}
	if len(v.Vocabulary) == 0 {
		return errors.New("empty vocabulary")
	}
	if len(v.IDF) != len(v.Vocabulary) {
		return fmt.Errorf("idf has %d weights for %d terms", len(v.IDF), len(v.Vocabulary))
	}
	for term, col := range v.Vocabulary {
		if col < 0 || col >= len(v.IDF) {
			return fmt.Errorf("term %q has column %d out of range", term, col)
		}
	}
	return nil
}

func (m *LinearModel) validate() error {
	if len(m.Classes) == 0 {
		return errors.New("no classes")
	}
	if len(m.Coef) != len(m.Classes) || len(m.Intercept) != len(m.Classes) {
		return fmt.Errorf("%d classes but %d coef rows and %d intercepts", len(m.Classes), len(m.Coef), len(m.Intercept))
	}
	return nil
}

func (v *Vectorizer) Features() int { return len(v.IDF) }

// Transform returns the L2-normalised sparse TF-IDF vector of text.
func (v *Vectorizer) Transform(text string) map[int]float64 {
	if v.Lowercase {
		text = strings.ToLower(text)
	}
	tokens := tokenRe.FindAllString(text, -1)

	counts := map[int]float64{}
	for n := v.NgramRange[0]; n <= v.NgramRange[1]; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			if col, ok := v.Vocabulary[strings.Join(tokens[i:i+n], " ")]; ok {
				counts[col]++
			}
		}
	}

	var norm float64
	for col, tf := range counts {
		if v.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		w := tf * v.IDF[col]
		counts[col] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for col := range counts {
			counts[col] /= norm
		}
	}
	return counts
}

// Predict returns the class whose score is highest; ties go to the first.
func (m *LinearModel) Predict(x map[int]float64) int {
	best, bestScore := 0, math.Inf(-1)
	for k, row := range m.Coef {
		score := m.Intercept[k]
		for col, w := range x {
			score += row[col] * w
		}
		if score > bestScore {
			best, bestScore = k, score
		}
	}
	return m.Classes[best]
}

type linearPredictor struct {
	vec   *Vectorizer
	model *LinearModel
}

func NewLinearPredictor(vec *Vectorizer, model *LinearModel) (Predictor, error) {
	for k, row := range model.Coef {
		if len(row) != vec.Features() {
			return nil, fmt.Errorf("coef row %d has %d weights, vectorizer has %d features", k, len(row), vec.Features())
		}
	}
	return &linearPredictor{vec: vec, model: model}, nil
}

func (p *linearPredictor) Predict(texts []string) ([]int, error) {
	out := make([]int, len(texts))
	for i, t := range texts {
		out[i] = p.model.Predict(p.vec.Transform(t))
	}
	return out, nil
}
