package ioformats

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadURLs reads product URLs from a CSV (header with a "url" column), an
// NDJSON file (JSON strings or {"url": "..."} objects) or a plain list with
// one URL per line. Unknown extensions try CSV first, then line formats.
func ReadURLs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ParseCSV(bytes.NewReader(data))
	case ".ndjson", ".jsonl", ".txt":
		return ParseLines(bytes.NewReader(data))
	default:
		if urls, err := ParseCSV(bytes.NewReader(data)); err == nil && len(urls) > 0 {
			return urls, nil
		}
		return ParseLines(bytes.NewReader(data))
	}
}

func ParseCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty csv")
	}
	col := -1
	for i, h := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(h), "url") {
			col = i
			break
		}
	}
	if col == -1 {
		return nil, errors.New("csv must contain a 'url' header column")
	}
	var out []string
	for _, row := range rows[1:] {
		if col < len(row) {
			if u := strings.TrimSpace(row[col]); u != "" {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

// ParseLines accepts NDJSON and plain URL lists. Blank lines and lines
// starting with '#' are skipped.
func ParseLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch line[0] {
		case '{':
			var obj struct {
				URL string `json:"url"`
			}
			if err := json.Unmarshal([]byte(line), &obj); err == nil && obj.URL != "" {
				out = append(out, obj.URL)
				continue
			}
		case '"':
			var s string
			if err := json.Unmarshal([]byte(line), &s); err == nil && s != "" {
				out = append(out, s)
				continue
			}
		}
		// fallback: treat whole line as url
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("no urls found")
	}
	return out, nil
}

// WriteNDJSON writes one JSON document per item.
func WriteNDJSON[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, it := range items {
		if err := enc.Encode(it); err != nil {
			return err
		}
	}
	return nil
}
