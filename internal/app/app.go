// Package app assembles the pipeline and its optional collaborators from
// configuration. Both binaries start here.
package app

import (
	"review-sentiment/internal/cache"
	"review-sentiment/internal/classifier"
	"review-sentiment/internal/config"
	"review-sentiment/internal/crawler"
	"review-sentiment/internal/parser"
	"review-sentiment/internal/pipeline"
	"review-sentiment/internal/rating"
	"review-sentiment/internal/store"
	"review-sentiment/pkg/logger"
)

type App struct {
	Pipeline   *pipeline.Pipeline
	Classifier *classifier.Service
	// Store is nil when DB_PATH is unset.
	Store *store.DB

	closers []func()
}

// New loads the classifier once and wires fetch, cache and storage. A
// classifier that fails to load is logged and left unavailable so callers
// get ServiceUnavailable instead of a dead process.
func New(cfg config.Config, log *logger.Logger) (*App, error) {
	a := &App{}

	cls, err := classifier.Load(classifier.Options{
		Backend:        cfg.ClassifierBackend,
		ModelPath:      cfg.ModelPath,
		VectorizerPath: cfg.VectorizerPath,
	})
	if err != nil {
		log.Error("classifier unavailable", "backend", cfg.ClassifierBackend, "error", err)
	} else {
		log.Info("classifier loaded", "backend", cls.Status().Backend)
	}
	a.Classifier = cls

	var fetcher pipeline.Fetcher = crawler.NewHTTPClient(cfg.FetchTimeout, cfg.DialTimeout, cfg.MaxBodyBytes, cfg.UserAgent)
	if cfg.ValkeyAddr != "" {
		vk, err := cache.NewValkey(cfg.ValkeyAddr, cfg.ValkeyPassword)
		if err != nil {
			log.Warn("page cache disabled", "addr", cfg.ValkeyAddr, "error", err)
		} else {
			a.closers = append(a.closers, vk.Close)
			fetcher = cache.NewPageFetcher(fetcher, vk, cfg.CacheTTL, log)
			log.Info("page cache enabled", "addr", cfg.ValkeyAddr, "ttl", cfg.CacheTTL)
		}
	}

	if cfg.DBPath != "" {
		db, err := store.Open(cfg.DBPath)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Store = db
		a.closers = append(a.closers, func() { _ = db.Close() })
		log.Info("analysis history enabled", "path", cfg.DBPath)
	}

	parse := rating.Parse
	if cfg.StrictRatings {
		parse = rating.ParseStrict
	}
	a.Pipeline = pipeline.New(fetcher, cls, parser.New(parse), pipeline.Options{
		ReviewSelector: cfg.ReviewSelector,
		ScoreSelector:  cfg.ScoreSelector,
	}, log)
	return a, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
