package cache

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-sentiment/internal/models"
	"review-sentiment/pkg/logger"
)

type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	failGet bool
	failSet bool
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, false, errors.New("connection refused")
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("connection refused")
	}
	m.data[key] = append([]byte(nil), val...)
	m.ttls[key] = ttl
	return nil
}

type countingFetcher struct {
	calls int
	err   error
}

func (c *countingFetcher) Fetch(_ context.Context, _ models.FetchTarget) (io.ReadCloser, string, error) {
	c.calls++
	if c.err != nil {
		return nil, "", c.err
	}
	return io.NopCloser(strings.NewReader("<html>page\nbody</html>")), "text/html; charset=utf-8", nil
}

func read(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestPageFetcherCachesBodyAndContentType(t *testing.T) {
	next := &countingFetcher{}
	store := newMemStore()
	f := NewPageFetcher(next, store, 10*time.Minute, logger.Discard())
	target := models.FetchTarget{URL: "https://shop.example/p/1"}

	for i := 0; i < 3; i++ {
		rc, ct, err := f.Fetch(context.Background(), target)
		require.NoError(t, err)
		assert.Equal(t, "text/html; charset=utf-8", ct)
		assert.Equal(t, "<html>page\nbody</html>", read(t, rc))
	}
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, 10*time.Minute, store.ttls[Key(target)])
}

func TestPageFetcherStoreFailuresFallThrough(t *testing.T) {
	next := &countingFetcher{}
	store := newMemStore()
	store.failGet, store.failSet = true, true
	f := NewPageFetcher(next, store, time.Minute, logger.Discard())

	for i := 0; i < 2; i++ {
		rc, _, err := f.Fetch(context.Background(), models.FetchTarget{URL: "https://shop.example/p/2"})
		require.NoError(t, err)
		read(t, rc)
	}
	assert.Equal(t, 2, next.calls)
}

func TestPageFetcherFetchErrorNotCached(t *testing.T) {
	next := &countingFetcher{err: errors.New("503 Service Unavailable")}
	store := newMemStore()
	f := NewPageFetcher(next, store, time.Minute, logger.Discard())

	_, _, err := f.Fetch(context.Background(), models.FetchTarget{URL: "https://shop.example/p/3"})
	require.Error(t, err)
	assert.Empty(t, store.data)
}

func TestKeyIsStable(t *testing.T) {
	a := models.FetchTarget{URL: "https://a"}
	assert.Equal(t, Key(a), Key(models.FetchTarget{URL: "https://a"}))
	assert.NotEqual(t, Key(a), Key(models.FetchTarget{URL: "https://b"}))
	assert.True(t, strings.HasPrefix(Key(a), "reviewsent:page:"))
}

func TestKeyIncludesHeaders(t *testing.T) {
	plain := models.FetchTarget{URL: "https://a"}
	en := models.FetchTarget{URL: "https://a", Headers: map[string]string{"Accept-Language": "en-US", "User-Agent": "x"}}
	enLower := models.FetchTarget{URL: "https://a", Headers: map[string]string{"user-agent": "x", "accept-language": "en-US"}}
	de := models.FetchTarget{URL: "https://a", Headers: map[string]string{"Accept-Language": "de-DE", "User-Agent": "x"}}

	assert.NotEqual(t, Key(plain), Key(en))
	assert.NotEqual(t, Key(en), Key(de))
	for i := 0; i < 20; i++ {
		assert.Equal(t, Key(en), Key(enLower))
	}
}

func TestPageFetcherSeparatesHeaderVariants(t *testing.T) {
	next := &countingFetcher{}
	f := NewPageFetcher(next, newMemStore(), time.Minute, logger.Discard())
	ctx := context.Background()

	for _, lang := range []string{"en-US", "de-DE", "en-US"} {
		rc, _, err := f.Fetch(ctx, models.FetchTarget{URL: "https://shop.example/p/4", Headers: map[string]string{"Accept-Language": lang}})
		require.NoError(t, err)
		read(t, rc)
	}
	assert.Equal(t, 2, next.calls)
}
