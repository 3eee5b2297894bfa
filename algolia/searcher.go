package algolia

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/opt"
	"github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/fuzzyx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultLimit = 10
	// maxHitsPerPage is Algolia's ceiling for a single page.
	maxHitsPerPage = 1000
)

// SearchTextField holds the denormalized identity text written with each
// indexed object. The searcher scores it alongside the default fields.
const SearchTextField = "_searchText"

// hitIndex is the slice of *search.Index the searcher needs.
type hitIndex interface {
	Search(query string, opts ...interface{}) (search.QueryRes, error)
}

// Searcher implements fuzzyx.Searcher on top of an Algolia index.
type Searcher struct {
	indexName string
	open      func() (hitIndex, error)
	tracer    trace.Tracer
	// candidates is the number of hits fetched for every query.
	candidates int
}

// SearcherOption configures a Searcher.
type SearcherOption func(*Searcher)

// WithCandidates sets how many hits are fetched and re-ranked per query.
// Every page is cut from the same window, so results past it are never
// returned. Values outside 1..1000 fall back to 1000.
func WithCandidates(n int) SearcherOption {
	return func(s *Searcher) {
		if n > 0 && n <= maxHitsPerPage {
			s.candidates = n
		}
	}
}

// NewSearcher creates a new Algolia searcher for the specified index.
func NewSearcher(client *Client, indexName string, opts ...SearcherOption) *Searcher {
	s := &Searcher{
		indexName: indexName,
		open: func() (hitIndex, error) {
			return client.searchIndex(indexName)
		},
		tracer:     client.tracer,
		candidates: maxHitsPerPage,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search fetches a fixed window of candidate hits from Algolia, applies fuzzy
// filters locally, re-ranks the whole window with fuzzyx over the configured
// fields and returns the requested page of that one ranking. An empty query
// keeps Algolia's order.
func (s *Searcher) Search(ctx context.Context, query string, opts ...fuzzyx.SearchOption) (*fuzzyx.Results, error) {
	startTime := time.Now()

	if err := fuzzyx.ContextError(ctx); err != nil {
		return nil, err
	}

	cfg := fuzzyx.NewSearchConfig(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	limit := cfg.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	window := s.candidates
	if window <= 0 {
		window = maxHitsPerPage
	}

	ctx, span := s.tracer.Start(ctx, "algolia.search", trace.WithAttributes(
		attribute.String("algolia.index_name", s.indexName),
		attribute.Int("fuzzyx.query_length", len(query)),
		attribute.Int("fuzzyx.window", window),
	))
	defer span.End()

	index, err := s.open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get Algolia client")
		return nil, errors.WithSecondaryError(
			fuzzyx.ErrBackendUnavailable,
			errors.Wrapf(err, "failed to get Algolia client"),
		)
	}

	remote, local := splitFilters(cfg.Filters)
	res, err := index.Search(query, buildSearchParams(window, remote)...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fuzzyx.ErrTimeout
		}
		if errors.Is(err, context.Canceled) {
			return nil, fuzzyx.ErrCanceled
		}
		return nil, errors.WithSecondaryError(
			fuzzyx.ErrBackendUnavailable,
			errors.Wrapf(err, "Algolia search failed"),
		)
	}
	if err := fuzzyx.ContextError(ctx); err != nil {
		return nil, err
	}

	localCfg := *cfg
	localCfg.Filters = local
	hits := make([]map[string]any, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if localCfg.Accepts(hit) {
			hits = append(hits, hit)
		}
	}

	items := rerank(hits, query, cfg)
	fuzzyx.SortResults(items, cfg.Sort)
	dropped := len(res.Hits) - len(items)

	page, next := fuzzyx.Page(items, cfg.Offset, limit)

	results := &fuzzyx.Results{
		Items:      page,
		Total:      int64(max(res.NbHits-dropped, len(items))),
		Query:      query,
		NextOffset: next,
	}
	for _, item := range page {
		results.MaxScore = max(results.MaxScore, item.Score)
	}
	results.Took = time.Since(startTime).Milliseconds()

	span.SetAttributes(
		attribute.Int("algolia.hits", len(res.Hits)),
		attribute.Int("fuzzyx.kept", len(items)),
	)
	span.SetStatus(codes.Ok, "search succeeded")
	return results, nil
}

// rerank scores hits with fuzzyx. Without a query, hits keep Algolia's order
// and get a rank-based score.
func rerank(hits []map[string]any, query string, cfg *fuzzyx.SearchConfig) []fuzzyx.Result {
	if strings.TrimSpace(query) == "" {
		items := make([]fuzzyx.Result, len(hits))
		for i, hit := range hits {
			items[i] = fuzzyx.Result{
				ID:     objectID(hit),
				Score:  calculateScore(len(hits), i),
				Type:   fuzzyx.MatchNone,
				Fields: hit,
			}
		}
		return items
	}

	rankCfg := *cfg
	rankCfg.Limit = 0
	if rankCfg.Fields == nil {
		rankCfg.Fields = defaultHitFields
	}
	ranked := fuzzyx.RankConfig(hits, query, &rankCfg)
	items := make([]fuzzyx.Result, len(ranked))
	for i, r := range ranked {
		items[i] = fuzzyx.Result{
			ID:     objectID(r.Item),
			Score:  r.Score,
			Type:   r.Type,
			Fields: r.Item,
		}
	}
	return items
}

// defaultHitFields are scored when the caller names no fields.
var defaultHitFields = fuzzyx.Fields(fuzzyx.DefaultFields, fuzzyx.Path(SearchTextField))

func objectID(hit map[string]any) string {
	id, _ := hit["objectID"].(string)
	return id
}

// splitFilters separates filters Algolia can evaluate from those holding a
// fuzzy Matches clause, which only fuzzyx can evaluate.
func splitFilters(filters []fuzzyx.Expression) (remote, local []fuzzyx.Expression) {
	for _, f := range filters {
		if fuzzyx.HasMatches(f) {
			local = append(local, f)
		} else {
			remote = append(remote, f)
		}
	}
	return remote, local
}

// buildSearchParams requests the first hitsPerPage hits matching filters.
func buildSearchParams(hitsPerPage int, filters []fuzzyx.Expression) []interface{} {
	params := []interface{}{opt.HitsPerPage(hitsPerPage)}

	if len(filters) > 0 {
		filterStrings := make([]string, 0, len(filters))
		for _, expr := range filters {
			if filterStr := convertExpressionToFilter(expr); filterStr != "" {
				filterStrings = append(filterStrings, filterStr)
			}
		}
		if len(filterStrings) > 0 {
			params = append(params, opt.Filters(strings.Join(filterStrings, " AND ")))
		}
	}

	return params
}

// calculateScore is a rank-based score in (0,1] for unscored hits.
func calculateScore(totalResults, position int) float64 {
	if totalResults == 0 {
		return 1.0
	}
	return float64(totalResults-position) / float64(totalResults)
}

// convertExpressionToFilter renders expr in Algolia filter syntax. Expressions
// Algolia cannot express render as "".
func convertExpressionToFilter(expr fuzzyx.Expression) string {
	switch e := expr.(type) {
	case fuzzyx.AndExpr:
		return joinFilters(e.Exprs, " AND ")
	case fuzzyx.OrExpr:
		return joinFilters(e.Exprs, " OR ")
	case fuzzyx.NotExpr:
		inner := convertExpressionToFilter(e.Inner)
		if inner == "" {
			return ""
		}
		return "NOT (" + inner + ")"
	case fuzzyx.CompareExpr:
		return convertCompare(e)
	case fuzzyx.RangeExpr:
		var parts []string
		if e.Min != nil {
			parts = append(parts, fmt.Sprintf("%s >= %s", escapeField(e.Field), escapeNumericValue(e.Min)))
		}
		if e.Max != nil {
			parts = append(parts, fmt.Sprintf("%s <= %s", escapeField(e.Field), escapeNumericValue(e.Max)))
		}
		return strings.Join(parts, " AND ")
	default:
		return ""
	}
}

func joinFilters(exprs []fuzzyx.Expression, sep string) string {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		if f := convertExpressionToFilter(e); f != "" {
			parts = append(parts, "("+f+")")
		}
	}
	return strings.Join(parts, sep)
}

func convertCompare(e fuzzyx.CompareExpr) string {
	field := escapeField(e.Field)
	switch e.Op {
	case fuzzyx.OpEq:
		return fmt.Sprintf("%s:%s", field, escapeValue(e.Value))
	case fuzzyx.OpNe:
		return fmt.Sprintf("NOT %s:%s", field, escapeValue(e.Value))
	case fuzzyx.OpGt:
		return fmt.Sprintf("%s > %s", field, escapeNumericValue(e.Value))
	case fuzzyx.OpGte:
		return fmt.Sprintf("%s >= %s", field, escapeNumericValue(e.Value))
	case fuzzyx.OpLt:
		return fmt.Sprintf("%s < %s", field, escapeNumericValue(e.Value))
	case fuzzyx.OpLte:
		return fmt.Sprintf("%s <= %s", field, escapeNumericValue(e.Value))
	case fuzzyx.OpExists:
		return fmt.Sprintf("%s:*", field)
	default:
		return ""
	}
}

// escapeField quotes attribute names containing filter syntax characters.
func escapeField(field string) string {
	if strings.ContainsAny(field, " :-()") {
		return fmt.Sprintf(`"%s"`, field)
	}
	return field
}

// escapeValue quotes a facet value, escaping inner quotes.
func escapeValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	case bool:
		return `"` + strconv.FormatBool(v) + `"`
	default:
		return fmt.Sprintf(`"%v"`, value)
	}
}

// escapeNumericValue renders numbers bare and anything else as a facet value.
func escapeNumericValue(value any) string {
	if value == nil {
		return "0"
	}
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprintf("%v", v)
	}
	if str := fmt.Sprintf("%v", value); str != "" {
		if _, err := strconv.ParseFloat(str, 64); err == nil {
			return str
		}
	}
	return escapeValue(value)
}
