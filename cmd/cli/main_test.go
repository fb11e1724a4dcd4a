package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"review-sentiment/internal/models"
	"review-sentiment/internal/pipeline"
)

const page = `<html><body>
<span data-hook="review-body">Great product</span><i data-hook="review-star-rating">5.0 out of 5 stars</i>
<span data-hook="review-body">Terrible</span><i data-hook="review-star-rating">1.0 out of 5 stars</i>
</body></html>`

func testEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, nil, 0o644))
	t.Setenv("ENV_FILE", envFile)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("CLASSIFIER_BACKEND", "linear")
	t.Setenv("MODEL_PATH", filepath.Join("..", "..", "internal", "classifier", "testdata", "model.yaml"))
	t.Setenv("VECTORIZER_PATH", filepath.Join("..", "..", "internal", "classifier", "testdata", "vectorizer.yaml"))
	t.Setenv("DB_PATH", "")
	t.Setenv("VALKEY_ADDR", "")
}

func upstream(t *testing.T) *httptest.Server {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/p" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, page)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := newApp()
	a.Writer = &out
	a.ErrWriter = io.Discard
	a.ExitErrHandler = func(*cli.Context, error) {}
	err := a.Run(append([]string{"reviewsent"}, args...))
	return out.String(), err
}

func TestPredictCommand(t *testing.T) {
	testEnv(t)
	ts := upstream(t)

	out, err := run(t, "predict", "--url", ts.URL+"/p")
	require.NoError(t, err)
	var res models.PredictResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.TotalReviews)
	assert.Equal(t, models.SummaryCounts{Positive: 1, Negative: 1}, res.SentimentCounts)
}

func TestPredictCommandInvalidURL(t *testing.T) {
	testEnv(t)
	_, err := run(t, "predict", "--url", "not-a-url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "InvalidInput")
}

func TestBatchCommand(t *testing.T) {
	testEnv(t)
	ts := upstream(t)

	in := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(in, []byte(ts.URL+"/p\nnot-a-url\n"+ts.URL+"/missing\n"), 0o644))
	outPath := filepath.Join(t.TempDir(), "out.ndjson")

	_, err := run(t, "batch", "--input", in, "--output", outPath, "--concurrency", "2")
	require.NoError(t, err)

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()
	var recs []outRec
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r outRec
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		recs = append(recs, r)
	}
	require.Len(t, recs, 3)

	require.NotNil(t, recs[0].Result)
	assert.Equal(t, 2, recs[0].Result.TotalReviews)
	assert.Equal(t, pipeline.InvalidInput, recs[1].Kind)
	assert.Equal(t, pipeline.FetchFailed, recs[2].Kind)
	assert.True(t, strings.HasPrefix(recs[2].Error, "404"))
}

func TestClassifyCommand(t *testing.T) {
	testEnv(t)
	out, err := run(t, "classify", "I love it", "awful")
	require.NoError(t, err)
	assert.Equal(t, "Positive\tI love it\nNegative\tawful\n", out)
}

func TestParseHeaders(t *testing.T) {
	h, err := parseHeaders([]string{"User-Agent: test/1", "Accept-Language:en-IN"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"User-Agent": "test/1", "Accept-Language": "en-IN"}, h)

	_, err = parseHeaders([]string{"no colon"})
	assert.Error(t, err)
}
