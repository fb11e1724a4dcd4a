package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"review-sentiment/internal/models"
	"review-sentiment/pkg/logger"
)

type Fetcher interface {
	Fetch(ctx context.Context, target models.FetchTarget) (io.ReadCloser, string, error)
}

// PageFetcher serves pages from a Store and falls through to the wrapped
// Fetcher on a miss. Store failures are logged and treated as misses.
type PageFetcher struct {
	next  Fetcher
	store Store
	ttl   time.Duration
	log   *logger.Logger
}

func NewPageFetcher(next Fetcher, store Store, ttl time.Duration, log *logger.Logger) *PageFetcher {
	return &PageFetcher{next: next, store: store, ttl: ttl, log: log}
}

func (f *PageFetcher) Fetch(ctx context.Context, target models.FetchTarget) (io.ReadCloser, string, error) {
	key := Key(target)

	cached, ok, err := f.store.Get(ctx, key)
	if err != nil {
		f.log.Warn("page cache read failed", "url", target.URL, "error", err)
	}
	if ok {
		if ct, body, found := bytes.Cut(cached, []byte{'\n'}); found {
			f.log.Debug("page cache hit", "url", target.URL)
			return io.NopCloser(bytes.NewReader(body)), string(ct), nil
		}
	}

	rc, ct, err := f.next.Fetch(ctx, target)
	if err != nil {
		return nil, "", err
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", err
	}

	entry := make([]byte, 0, len(ct)+1+len(body))
	entry = append(append(append(entry, ct...), '\n'), body...)
	if err := f.store.Set(ctx, key, entry, f.ttl); err != nil {
		f.log.Warn("page cache write failed", "url", target.URL, "error", err)
	}
	return io.NopCloser(bytes.NewReader(body)), ct, nil
}

// Key hashes the URL together with the header overrides, so the same page
// fetched with a different User-Agent or Accept-Language gets its own entry.
func Key(target models.FetchTarget) string {
	h := sha256.New()
	io.WriteString(h, target.URL)

	names := make([]string, 0, len(target.Headers))
	canon := make(map[string]string, len(target.Headers))
	for k, v := range target.Headers {
		name := http.CanonicalHeaderKey(k)
		names = append(names, name)
		canon[name] = v
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(h, "\n%s: %s", name, canon[name])
	}
	return fmt.Sprintf("reviewsent:page:%x", h.Sum(nil))
}
