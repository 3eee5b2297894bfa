// Package inmemory is a fuzzyx.Searcher over records held in process memory,
// suited to catalogs that are fetched once and searched on every keystroke.
package inmemory

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/fuzzyx"
	"github.com/segmentio/ksuid"
)

const (
	defaultLimit = 10
	// ctxCheckEvery bounds how many documents are filtered between context checks.
	ctxCheckEvery = 256
	// IDField is the record field used as document ID when loading JSON.
	IDField = "id"
)

// Document is one searchable record.
type Document struct {
	// ID is the unique identifier for the document.
	ID string
	// Fields contains the document's data as key-value pairs.
	Fields map[string]any
}

// Searcher implements fuzzyx.Searcher using an in-memory store.
type Searcher struct {
	mu        sync.RWMutex
	documents []Document
	idIndex   map[string]int // document ID -> position in documents
}

// New creates a new in-memory searcher. It is safe for concurrent use.
func New() *Searcher {
	return &Searcher{
		documents: make([]Document, 0),
		idIndex:   make(map[string]int),
	}
}

// AddDocument adds doc, replacing any document with the same ID in place.
func (s *Searcher) AddDocument(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, exists := s.idIndex[doc.ID]; exists {
		s.documents[idx] = doc
		return
	}
	s.idIndex[doc.ID] = len(s.documents)
	s.documents = append(s.documents, doc)
}

// Add stores fields under a freshly generated KSUID and returns it.
func (s *Searcher) Add(fields map[string]any) string {
	id := ksuid.New().String()
	s.AddDocument(Document{ID: id, Fields: fields})
	return id
}

// AddJSON parses a JSON object and stores it under id.
func (s *Searcher) AddJSON(id string, jsonData []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(jsonData, &fields); err != nil {
		return errors.Wrap(err, "failed to unmarshal JSON")
	}

	s.AddDocument(Document{
		ID:     id,
		Fields: fields,
	})
	return nil
}

// Load reads either a JSON array of objects or JSON lines from r. Each
// object's "id" field becomes its document ID; objects without one get a
// KSUID. It returns the number of documents added.
func (s *Searcher) Load(r io.Reader) (int, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "failed to read input")
	}

	var records []map[string]any
	if first == '[' {
		if err := json.NewDecoder(br).Decode(&records); err != nil {
			return 0, errors.Wrap(err, "failed to decode JSON array")
		}
	} else {
		dec := json.NewDecoder(br)
		for {
			var rec map[string]any
			err := dec.Decode(&rec)
			if err == io.EOF {
				break
			}
			if err != nil {
				return 0, errors.Wrapf(err, "failed to decode JSON record %d", len(records)+1)
			}
			records = append(records, rec)
		}
	}

	for _, rec := range records {
		id := strings.TrimSpace(fuzzyx.Text(rec[IDField]))
		if id == "" {
			s.Add(rec)
			continue
		}
		s.AddDocument(Document{ID: id, Fields: rec})
	}
	return len(records), nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

// RemoveDocument removes a document by ID and reports whether it existed.
func (s *Searcher) RemoveDocument(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, exists := s.idIndex[id]
	if !exists {
		return false
	}

	s.documents = append(s.documents[:idx], s.documents[idx+1:]...)
	delete(s.idIndex, id)
	for i := idx; i < len(s.documents); i++ {
		s.idIndex[s.documents[i].ID] = i
	}
	return true
}

// Get returns the document stored under id.
func (s *Searcher) Get(id string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.idIndex[id]
	if !ok {
		return Document{}, false
	}
	return s.documents[idx], true
}

// Clear removes all documents from the store.
func (s *Searcher) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.documents = make([]Document, 0)
	s.idIndex = make(map[string]int)
}

// Size returns the number of documents currently stored.
func (s *Searcher) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// Search implements fuzzyx.Searcher. Documents passing the filters are ranked
// against query over the configured fields; an empty query lists them in
// insertion order. The default page size is 10.
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

	candidates, err := s.filter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Pagination happens after sorting, so rank everything.
	rankCfg := *cfg
	rankCfg.Limit = 0
	records := make([]map[string]any, len(candidates))
	for i, doc := range candidates {
		records[i] = doc.Fields
	}
	ranked := fuzzyx.RankConfig(records, query, &rankCfg)

	items := make([]fuzzyx.Result, len(ranked))
	for i, r := range ranked {
		items[i] = fuzzyx.Result{
			ID:     candidates[r.Index].ID,
			Score:  r.Score,
			Type:   r.Type,
			Fields: r.Item,
		}
	}
	fuzzyx.SortResults(items, cfg.Sort)

	page, next := fuzzyx.Page(items, cfg.Offset, limit)
	results := &fuzzyx.Results{
		Items:      page,
		Total:      int64(len(items)),
		Query:      query,
		NextOffset: next,
	}
	for _, item := range page {
		results.MaxScore = max(results.MaxScore, item.Score)
	}
	results.Took = time.Since(startTime).Milliseconds()
	return results, nil
}

// filter snapshots the documents that pass cfg's filters.
func (s *Searcher) filter(ctx context.Context, cfg *fuzzyx.SearchConfig) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Document, 0, len(s.documents))
	for i, doc := range s.documents {
		if i%ctxCheckEvery == 0 {
			if err := fuzzyx.ContextError(ctx); err != nil {
				return nil, err
			}
		}
		if cfg.Accepts(doc.Fields) {
			out = append(out, doc)
		}
	}
	return out, nil
}
