package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/letmevibethatforyou/fuzzyx"
	"github.com/letmevibethatforyou/fuzzyx/algolia"
	"github.com/letmevibethatforyou/fuzzyx/inmemory"
	"github.com/urfave/cli/v2"
)

const (
	defaultLimit   = 10
	defaultTimeout = 5 * time.Second
)

func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	app := &cli.App{
		Name:  "query",
		Usage: "Fuzzy-search catalog records from a JSON file or an Algolia index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "JSON array or JSON-lines file to search in memory (\"-\" for stdin)",
				EnvVars: []string{"FUZZYX_FILE"},
			},
			&cli.StringFlag{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Algolia index name, used when --file is not set",
				EnvVars: []string{"ALGOLIA_INDEX"},
			},
			&cli.StringFlag{
				Name:    "algolia-secret-arn",
				Usage:   "ARN of AWS Secrets Manager secret containing Algolia credentials",
				EnvVars: []string{"ALGOLIA_SECRET_ARN"},
			},
			&cli.StringFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Query string to search for; positional arg is a fallback",
			},
			&cli.StringSliceFlag{
				Name:  "field",
				Usage: "Dot path of a searchable field; repeatable (default: common identity fields)",
			},
			&cli.Float64Flag{
				Name:    "threshold",
				Usage:   "Minimum similarity for a fuzzy match",
				EnvVars: []string{"FUZZYX_THRESHOLD"},
				Value:   fuzzyx.DefaultThreshold,
			},
			&cli.Float64Flag{
				Name:    "min-score",
				Usage:   "Drop records scoring below this",
				EnvVars: []string{"FUZZYX_MIN_SCORE"},
				Value:   fuzzyx.DefaultMinScore,
			},
			&cli.IntFlag{
				Name:    "max-distance",
				Usage:   "Largest edit distance a fuzzy match may have",
				EnvVars: []string{"FUZZYX_MAX_DISTANCE"},
				Value:   fuzzyx.DefaultMaxDistance,
			},
			&cli.BoolFlag{
				Name:  "whole-words",
				Usage: "Also match query as a word prefix",
			},
			&cli.BoolFlag{
				Name:  "case-sensitive",
				Usage: "Compare case-sensitively",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of results to return",
				Value:   defaultLimit,
			},
			&cli.IntFlag{
				Name:    "offset",
				Aliases: []string{"o"},
				Usage:   "Number of results to skip before returning hits",
				Value:   0,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout for the search request",
				Value: defaultTimeout,
			},
			&cli.StringSliceFlag{
				Name:  "filter",
				Usage: "Filter in field=value (exact) or field~term (fuzzy) format; repeatable",
			},
			&cli.StringSliceFlag{
				Name:  "sort",
				Usage: "Sort field, prefix with - for descending (_score is relevance); repeatable",
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	ctx := c.Context

	query := strings.TrimSpace(c.String("query"))
	if query == "" && c.NArg() > 0 {
		query = strings.TrimSpace(c.Args().First())
	}

	limit := c.Int("limit")
	if limit <= 0 {
		slog.WarnContext(ctx, "limit must be positive; falling back to default", "limit", limit, "default", defaultLimit)
		limit = defaultLimit
	}

	offset := c.Int("offset")
	if offset < 0 {
		slog.WarnContext(ctx, "offset cannot be negative; resetting to 0", "offset", offset)
		offset = 0
	}

	timeout := c.Duration("timeout")
	if timeout <= 0 {
		slog.WarnContext(ctx, "timeout must be positive; using default", "timeout", timeout, "default", defaultTimeout)
		timeout = defaultTimeout
	}

	filterOptions, err := buildFilterOptions(c.StringSlice("filter"))
	if err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}

	opts := []fuzzyx.SearchOption{
		fuzzyx.WithLimit(limit),
		fuzzyx.WithOffset(offset),
		fuzzyx.WithMinScore(c.Float64("min-score")),
		fuzzyx.WithThreshold(c.Float64("threshold")),
		fuzzyx.WithMaxDistance(c.Int("max-distance")),
		fuzzyx.WithWholeWords(c.Bool("whole-words")),
		fuzzyx.WithCaseSensitive(c.Bool("case-sensitive")),
		fuzzyx.WithLogger(slog.Default()),
	}
	if fields := c.StringSlice("field"); len(fields) > 0 {
		opts = append(opts, fuzzyx.WithFields(fuzzyx.Paths(fields...)))
	}
	opts = append(opts, buildSortOptions(c.StringSlice("sort"))...)
	opts = append(opts, filterOptions...)

	searcher, source, err := openSearcher(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	slog.InfoContext(ctx, "executing query",
		"source", source,
		"query", query,
		"limit", limit,
		"offset", offset,
		"filter_count", len(filterOptions),
		"timeout", timeout,
	)

	results, err := searcher.Search(ctx, query, opts...)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if err := printResults(os.Stdout, results); err != nil {
		return fmt.Errorf("failed to serialize results: %w", err)
	}
	return nil
}

// openSearcher loads --file into memory, or connects to --index.
func openSearcher(c *cli.Context) (fuzzyx.Searcher, string, error) {
	ctx := c.Context

	if path := strings.TrimSpace(c.String("file")); path != "" {
		var r io.Reader = os.Stdin
		if path != "-" {
			f, err := os.Open(path)
			if err != nil {
				return nil, "", fmt.Errorf("failed to open %s: %w", path, err)
			}
			defer f.Close()
			r = f
		}
		searcher := inmemory.New()
		n, err := searcher.Load(r)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load %s: %w", path, err)
		}
		slog.InfoContext(ctx, "loaded records", "file", path, "count", n)
		return searcher, "file:" + path, nil
	}

	indexName := strings.TrimSpace(c.String("index"))
	if indexName == "" {
		return nil, "", fmt.Errorf("either --file or --index is required")
	}

	var fetchSecrets algolia.FetchSecrets
	if secretArn := strings.TrimSpace(c.String("algolia-secret-arn")); secretArn != "" {
		slog.InfoContext(ctx, "using AWS Secrets Manager for Algolia credentials", "secret_arn", secretArn)
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load AWS config: %w", err)
		}
		fetchSecrets = algolia.AWSSecretsFromARN(ctx, secretsmanager.NewFromConfig(cfg), secretArn)
	} else {
		fetchSecrets = algolia.EnvSecrets()
	}

	return algolia.NewSearcher(algolia.NewClient(fetchSecrets), indexName), "algolia:" + indexName, nil
}

// buildFilterOptions parses field=value as Eq and field~term as Matches.
func buildFilterOptions(raw []string) ([]fuzzyx.SearchOption, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	options := make([]fuzzyx.SearchOption, 0, len(raw))
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, fmt.Errorf("filter cannot be empty")
		}

		i := strings.IndexAny(item, "=~")
		if i < 0 {
			return nil, fmt.Errorf("filter must be in field=value or field~term format: %q", item)
		}

		field := strings.TrimSpace(item[:i])
		value := strings.TrimSpace(item[i+1:])
		if field == "" || value == "" {
			return nil, fmt.Errorf("filter field and value must be non-empty: %q", item)
		}

		if item[i] == '~' {
			options = append(options, fuzzyx.Matches(field, value))
			continue
		}
		options = append(options, fuzzyx.Eq(field, parseValue(value)))
	}

	return options, nil
}

// parseValue keeps numbers and booleans typed so they compare as such.
func parseValue(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func buildSortOptions(raw []string) []fuzzyx.SearchOption {
	var options []fuzzyx.SearchOption
	for _, item := range raw {
		item = strings.TrimSpace(item)
		desc := strings.HasPrefix(item, "-")
		field := strings.TrimPrefix(item, "-")
		if field == "" {
			continue
		}
		options = append(options, fuzzyx.WithSort(field, desc))
	}
	return options
}

func printResults(w io.Writer, res *fuzzyx.Results) error {
	if res == nil {
		_, err := fmt.Fprintln(w, "{}")
		return err
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}
