package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/subosito/gotenv"

	"review-sentiment/internal/crawler"
)

const (
	DefaultReviewSelector = `span[data-hook="review-body"]`
	DefaultScoreSelector  = `i[data-hook="review-star-rating"]`
)

type Config struct {
	Addr     string
	LogLevel string

	ClassifierBackend string
	ModelPath         string
	VectorizerPath    string

	ReviewSelector string
	ScoreSelector  string
	StrictRatings  bool

	UserAgent    string
	FetchTimeout time.Duration
	DialTimeout  time.Duration
	MaxBodyBytes int64

	// DBPath enables analysis history when set.
	DBPath string

	// ValkeyAddr enables the page cache when set.
	ValkeyAddr     string
	ValkeyPassword string
	CacheTTL       time.Duration

	CORSOrigin string
}

// Load reads ENV_FILE (default ".env") into the environment without
// overriding variables that are already set, then builds a Config. A missing
// default .env is not an error; a missing explicit ENV_FILE is.
func Load() (Config, error) {
	envFile, explicit := os.LookupEnv("ENV_FILE")
	if !explicit {
		envFile = ".env"
	}
	if err := gotenv.Load(envFile); err != nil && (explicit || !errors.Is(err, fs.ErrNotExist)) {
		return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	c := Config{
		Addr:              str("ADDR", ":8080"),
		LogLevel:          str("LOG_LEVEL", "info"),
		ClassifierBackend: str("CLASSIFIER_BACKEND", "linear"),
		ModelPath:         str("MODEL_PATH", "artifacts/model.yaml"),
		VectorizerPath:    str("VECTORIZER_PATH", "artifacts/vectorizer.yaml"),
		ReviewSelector:    str("REVIEW_SELECTOR", DefaultReviewSelector),
		ScoreSelector:     str("SCORE_SELECTOR", DefaultScoreSelector),
		UserAgent:         str("USER_AGENT", crawler.DefaultUserAgent),
		DBPath:            str("DB_PATH", ""),
		ValkeyAddr:        str("VALKEY_ADDR", ""),
		ValkeyPassword:    str("VALKEY_PASSWORD", ""),
		CORSOrigin:        str("CORS_ORIGIN", "*"),
	}

	var errs []error
	c.StrictRatings = boolean("STRICT_RATINGS", false, &errs)
	c.FetchTimeout = duration("FETCH_TIMEOUT", 15*time.Second, &errs)
	c.DialTimeout = duration("DIAL_TIMEOUT", 5*time.Second, &errs)
	c.CacheTTL = duration("CACHE_TTL", 10*time.Minute, &errs)
	c.MaxBodyBytes = int64Val("MAX_BODY_BYTES", 5*1024*1024, &errs)

	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes))
	}
	selector("REVIEW_SELECTOR", c.ReviewSelector, &errs)
	selector("SCORE_SELECTOR", c.ScoreSelector, &errs)
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return c, nil
}

func str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

// selector rejects CSS that goquery would silently match against nothing.
func selector(key, sel string, errs *[]error) {
	if sel == "" {
		*errs = append(*errs, fmt.Errorf("%s must not be empty", key))
		return
	}
	if _, err := cascadia.Compile(sel); err != nil {
		*errs = append(*errs, fmt.Errorf("%s %q: %w", key, sel, err))
	}
}

func boolean(key string, def bool, errs *[]error) bool {
	v := str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func duration(key string, def time.Duration, errs *[]error) time.Duration {
	v := str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func int64Val(key string, def int64, errs *[]error) int64 {
	v := str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}
