package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"review-sentiment/internal/app"
	"review-sentiment/internal/config"
	"review-sentiment/internal/ioformats"
	"review-sentiment/internal/models"
	"review-sentiment/internal/pipeline"
	"review-sentiment/pkg/logger"
)

type outRec struct {
	URL    string                `json:"url"`
	Result *models.PredictResult `json:"result,omitempty"`
	Error  string                `json:"error,omitempty"`
	Kind   pipeline.Kind         `json:"kind,omitempty"`
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "reviewsent",
		Usage: "scrape product reviews and classify their sentiment",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Usage: "override LOG_LEVEL"},
		},
		Commands: []*cli.Command{
			{
				Name:  "predict",
				Usage: "analyze the reviews on one product page",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Required: true, Usage: "product page url"},
					&cli.StringSliceFlag{Name: "header", Usage: "extra request header as 'Name: value' (repeatable)"},
				},
				Action: predictAction,
			},
			{
				Name:  "batch",
				Usage: "analyze every url in a csv / ndjson / text file, writing NDJSON",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "input file (csv with 'url' column, ndjson, or one url per line)"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output NDJSON file (default stdout)"},
					&cli.IntFlag{Name: "concurrency", Value: 10, Usage: "worker concurrency"},
				},
				Action: batchAction,
			},
			{
				Name:      "classify",
				Usage:     "label free-form texts",
				ArgsUsage: "TEXT...",
				Action:    classifyAction,
			},
		},
	}
}

func setup(c *cli.Context) (*app.App, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, cli.Exit("config: "+err.Error(), 2)
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	l := logger.New(cfg.LogLevel)
	a, err := app.New(cfg, l)
	if err != nil {
		return nil, nil, cli.Exit("startup: "+err.Error(), 1)
	}
	return a, l, nil
}

func predictAction(c *cli.Context) error {
	headers, err := parseHeaders(c.StringSlice("header"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	a, l, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()

	url := c.String("url")
	res, err := a.Pipeline.Run(c.Context, pipeline.Input{URL: url, Headers: headers})
	if err != nil {
		return cli.Exit(fmt.Sprintf("%s: %s", pipeline.KindOf(err), err), 1)
	}
	save(c.Context, a, l, url, res)

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func batchAction(c *cli.Context) error {
	urls, err := ioformats.ReadURLs(c.String("input"))
	if err != nil {
		return cli.Exit("read input: "+err.Error(), 1)
	}
	a, l, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()

	var w io.Writer = c.App.Writer
	if out := c.String("output"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return cli.Exit("create output: "+err.Error(), 1)
		}
		defer f.Close()
		w = f
	}

	results := make([]outRec, len(urls))
	g := new(errgroup.Group)
	g.SetLimit(max(c.Int("concurrency"), 1))
	for i, u := range urls {
		g.Go(func() error {
			res, err := a.Pipeline.Run(c.Context, pipeline.Input{URL: u})
			if err != nil {
				results[i] = outRec{URL: u, Error: err.Error(), Kind: pipeline.KindOf(err)}
				return nil
			}
			save(c.Context, a, l, u, res)
			results[i] = outRec{URL: u, Result: &res}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	l.Info("batch complete", "urls", len(urls), "failed", failed)
	return ioformats.WriteNDJSON(w, results)
}

func classifyAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("classify needs at least one TEXT argument", 2)
	}
	a, l, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, text := range c.Args().Slice() {
		out, err := a.Pipeline.ClassifyText(text)
		if err != nil {
			return cli.Exit(fmt.Sprintf("%s: %s", pipeline.KindOf(err), err), 1)
		}
		if a.Store != nil {
			if _, err := a.Store.SaveClassification(c.Context, out); err != nil {
				l.Error("saving classification failed", "error", err)
			}
		}
		fmt.Fprintf(c.App.Writer, "%s\t%s\n", out.Sentiment, out.Text)
	}
	return nil
}

func save(ctx context.Context, a *app.App, l *logger.Logger, url string, res models.PredictResult) {
	if a.Store == nil {
		return
	}
	if _, err := a.Store.SaveAnalysis(ctx, url, res); err != nil {
		l.Error("saving analysis failed", "url", url, "error", err)
	}
}

func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("bad header %q, want 'Name: value'", h)
		}
		out[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return out, nil
}
