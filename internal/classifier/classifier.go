// Package classifier maps review text to sentiment. A Service is built once at
// startup and is read-only afterwards, so request handlers share it freely.
package classifier

import (
	"errors"
	"fmt"

	"review-sentiment/internal/models"
)

const (
	BackendLinear = "linear"
	BackendVader  = "vader"
)

var ErrUnavailable = errors.New("sentiment model is not loaded")

// Predictor turns texts into raw ordinal labels, one per text.
type Predictor interface {
	Predict(texts []string) ([]int, error)
}

type Options struct {
	Backend        string
	ModelPath      string
	VectorizerPath string
}

type Status struct {
	Backend          string
	ModelLoaded      bool
	VectorizerLoaded bool
}

type Service struct {
	status    Status
	predictor Predictor
}

// NewService wraps an already-built predictor.
func NewService(backend string, p Predictor) *Service {
	return &Service{
		status:    Status{Backend: backend, ModelLoaded: p != nil, VectorizerLoaded: p != nil},
		predictor: p,
	}
}

// Load builds the configured backend. The returned Service is never nil: when
// artifacts are missing or invalid it is returned unavailable alongside the
// load error, and every Predict call fails with ErrUnavailable.
func Load(opts Options) (*Service, error) {
	switch opts.Backend {
	case "", BackendLinear:
		s := &Service{status: Status{Backend: BackendLinear}}
		vec, verr := LoadVectorizer(opts.VectorizerPath)
		s.status.VectorizerLoaded = verr == nil
		model, merr := LoadLinearModel(opts.ModelPath)
		s.status.ModelLoaded = merr == nil
		if err := errors.Join(verr, merr); err != nil {
			return s, err
		}
		p, err := NewLinearPredictor(vec, model)
		if err != nil {
			s.status.ModelLoaded = false
			return s, err
		}
		s.predictor = p
		return s, nil
	case BackendVader:
		return NewService(BackendVader, NewVader()), nil
	default:
		return &Service{status: Status{Backend: opts.Backend}}, fmt.Errorf("unknown classifier backend %q", opts.Backend)
	}
}

func (s *Service) Ready() bool { return s != nil && s.predictor != nil }

func (s *Service) Status() Status {
	if s == nil {
		return Status{}
	}
	return s.status
}

func (s *Service) Predict(texts []string) ([]int, error) {
	if !s.Ready() {
		return nil, ErrUnavailable
	}
	out, err := s.predictor.Predict(texts)
	if err != nil {
		return nil, err
	}
	if len(out) != len(texts) {
		return nil, fmt.Errorf("predictor returned %d labels for %d texts", len(out), len(texts))
	}
	return out, nil
}

// Classify predicts and maps each ordinal through LabelFor.
func (s *Service) Classify(texts []string) ([]models.Sentiment, error) {
	raw, err := s.Predict(texts)
	if err != nil {
		return nil, err
	}
	return Labels(raw), nil
}

// LabelFor maps 0, 1, 2 to Negative, Neutral, Positive. Anything else is
// Unknown.
func LabelFor(ordinal int) models.Sentiment {
	switch ordinal {
	case 0:
		return models.Negative
	case 1:
		return models.Neutral
	case 2:
		return models.Positive
	default:
		return models.Unknown
	}
}

func Labels(raw []int) []models.Sentiment {
	out := make([]models.Sentiment, len(raw))
	for i, r := range raw {
		out[i] = LabelFor(r)
	}
	return out
}
