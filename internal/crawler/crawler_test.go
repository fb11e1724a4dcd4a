package crawler

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"review-sentiment/internal/models"
)

func TestFetchHTML(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(200)
		_, _ = w.Write([]byte("<html><title>x</title></html>"))
	}))
	defer ts.Close()

	client := NewHTTPClient(5*time.Second, 2*time.Second, 1024, "")
	rc, ct, err := client.Fetch(context.Background(), models.FetchTarget{URL: ts.URL})
	if err != nil {
		t.Fatalf("fetch err: %v", err)
	}
	defer rc.Close()
	if ct != "text/html" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if gotUA != DefaultUserAgent {
		t.Fatalf("want default user agent, got %q", gotUA)
	}
}

func TestFetchHeaderOverride(t *testing.T) {
	var gotUA, gotLang string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer ts.Close()

	client := NewHTTPClient(5*time.Second, 2*time.Second, 1024, "")
	rc, _, err := client.Fetch(context.Background(), models.FetchTarget{
		URL:     ts.URL,
		Headers: map[string]string{"User-Agent": "custom/1.0", "Accept-Language": "en-IN"},
	})
	if err != nil {
		t.Fatalf("fetch err: %v", err)
	}
	rc.Close()
	if gotUA != "custom/1.0" || gotLang != "en-IN" {
		t.Fatalf("headers not applied: ua=%q lang=%q", gotUA, gotLang)
	}
}

func gzipServer(t *testing.T, n int) *httptest.Server {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = gz.Write(bytes.Repeat([]byte("a"), n))
	gz.Close()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestFetchGzip(t *testing.T) {
	ts := gzipServer(t, 4096)

	// exactly at the cap is fine
	client := NewHTTPClient(5*time.Second, 2*time.Second, 4096, "")
	rc, _, err := client.Fetch(context.Background(), models.FetchTarget{URL: ts.URL})
	if err != nil {
		t.Fatalf("fetch err: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read err: %v", err)
	}
	if len(data) != 4096 || data[0] != 'a' {
		t.Fatalf("want 4096 decompressed bytes, got %d", len(data))
	}
}

func TestFetchOverSizeCap(t *testing.T) {
	ts := gzipServer(t, 4096)

	client := NewHTTPClient(5*time.Second, 2*time.Second, 100, "")
	rc, _, err := client.Fetch(context.Background(), models.FetchTarget{URL: ts.URL})
	if err != nil {
		t.Fatalf("fetch err: %v", err)
	}
	defer rc.Close()
	_, err = io.ReadAll(rc)
	if err == nil || !strings.Contains(err.Error(), "page exceeds 100 bytes") {
		t.Fatalf("want size cap error, got %v", err)
	}
}

func TestRejectNonHTML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(200)
		w.Write([]byte("{}"))
	}))
	defer ts.Close()

	client := NewHTTPClient(5*time.Second, 2*time.Second, 1024, "")
	_, _, err := client.Fetch(context.Background(), models.FetchTarget{URL: ts.URL})
	if err == nil {
		t.Fatal("expected error for non-html")
	}
}

func TestRejectNon2xx(t *testing.T) {
	for _, code := range []int{http.StatusMovedPermanently, http.StatusNotFound, http.StatusServiceUnavailable} {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if code == http.StatusMovedPermanently {
				// no Location header, so the client cannot follow it
				w.WriteHeader(code)
				return
			}
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(code)
		}))
		client := NewHTTPClient(5*time.Second, 2*time.Second, 1024, "")
		_, _, err := client.Fetch(context.Background(), models.FetchTarget{URL: ts.URL})
		ts.Close()
		if err == nil {
			t.Fatalf("expected error for status %d", code)
		}
	}
}
