package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/mvp-joe/treeparser/internal/lang"
	"github.com/mvp-joe/treeparser/internal/parser"
)

const (
	defaultTextLimit = 20
	maxTextLimit     = 100
	indexBatchSize   = 1000
	maxHighlights    = 3
)

// TextOptions narrows a full-text search. Zero values apply no filter.
type TextOptions struct {
	Limit    int
	Kind     string
	Language lang.Language
	// PathPattern is a wildcard over the full file path, e.g. "*/internal/*".
	PathPattern string
}

// TextHit is one construct matched by a full-text search.
type TextHit struct {
	Path       string        `json:"path"`
	Language   lang.Language `json:"language"`
	Index      int           `json:"index"`
	Kind       string        `json:"kind"`
	Name       string        `json:"name,omitempty"`
	StartLine  int           `json:"start_line"`
	EndLine    int           `json:"end_line"`
	Score      float64       `json:"score"`
	Highlights []string      `json:"highlights,omitempty"`
}

// TextIndex is an in-memory bleve index over every construct of a project.
type TextIndex struct {
	mu    sync.RWMutex
	index bleve.Index
}

// NewTextIndex indexes every construct of project.
func NewTextIndex(ctx context.Context, project *parser.ParsedProject) (*TextIndex, error) {
	index, err := bleve.NewMemOnly(buildTextMapping())
	if err != nil {
		return nil, fmt.Errorf("create text index: %w", err)
	}

	t := &TextIndex{index: index}
	if project != nil {
		if err := t.Add(ctx, project.Files...); err != nil {
			index.Close()
			return nil, err
		}
	}
	return t, nil
}

func buildTextMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	text := bleve.NewTextFieldMapping()
	text.Analyzer = "standard"
	text.Store = true
	text.Index = true
	text.IncludeTermVectors = true

	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"
	keyword.Store = true
	keyword.Index = true

	numeric := bleve.NewNumericFieldMapping()
	numeric.Store = true
	numeric.Index = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("path", keyword)
	doc.AddFieldMappingsAt("language", keyword)
	doc.AddFieldMappingsAt("kind", keyword)
	doc.AddFieldMappingsAt("name", text)
	doc.AddFieldMappingsAt("source", text)
	doc.AddFieldMappingsAt("documentation", text)
	doc.AddFieldMappingsAt("index", numeric)
	doc.AddFieldMappingsAt("start_line", numeric)
	doc.AddFieldMappingsAt("end_line", numeric)

	indexMapping.DefaultMapping = doc
	return indexMapping
}

func docID(path string, index int) string {
	return path + "#" + strconv.Itoa(index)
}

// Add indexes the constructs of files, replacing earlier documents with the
// same path and construct index.
func (t *TextIndex) Add(ctx context.Context, files ...*parser.ParsedFile) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	batch := t.index.NewBatch()
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, c := range f.Constructs {
			doc := map[string]interface{}{
				"path":          f.Path,
				"language":      f.Language.String(),
				"kind":          c.Kind,
				"name":          c.Name,
				"source":        c.Source,
				"documentation": c.Metadata.Documentation,
				"index":         c.Index,
				"start_line":    c.StartLine,
				"end_line":      c.EndLine,
			}
			if err := batch.Index(docID(f.Path, c.Index), doc); err != nil {
				return fmt.Errorf("index %s construct %d: %w", f.Path, c.Index, err)
			}
			if batch.Size() >= indexBatchSize {
				if err := t.index.Batch(batch); err != nil {
					return fmt.Errorf("execute batch: %w", err)
				}
				batch = t.index.NewBatch()
			}
		}
	}
	if batch.Size() > 0 {
		if err := t.index.Batch(batch); err != nil {
			return fmt.Errorf("execute final batch: %w", err)
		}
	}
	return nil
}

// Count returns the number of indexed constructs.
func (t *TextIndex) Count() (uint64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.index.DocCount()
}

// Search runs a bleve query-string search ("area", "name:Circle", "kind:method AND +foo").
func (t *TextIndex) Search(ctx context.Context, q string, opts *TextOptions) ([]TextHit, error) {
	if strings.TrimSpace(q) == "" {
		return nil, fmt.Errorf("empty query")
	}
	if opts == nil {
		opts = &TextOptions{}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultTextLimit
	}
	if limit > maxTextLimit {
		limit = maxTextLimit
	}

	queries := []query.Query{bleve.NewQueryStringQuery(q)}
	if opts.Kind != "" {
		kq := bleve.NewMatchQuery(opts.Kind)
		kq.SetField("kind")
		queries = append(queries, kq)
	}
	if opts.Language != lang.Unknown {
		lq := bleve.NewMatchQuery(opts.Language.String())
		lq.SetField("language")
		queries = append(queries, lq)
	}
	if opts.PathPattern != "" {
		pq := bleve.NewWildcardQuery(opts.PathPattern)
		pq.SetField("path")
		queries = append(queries, pq)
	}

	var final query.Query = queries[0]
	if len(queries) > 1 {
		final = bleve.NewConjunctionQuery(queries...)
	}

	req := bleve.NewSearchRequestOptions(final, limit, 0, false)
	style := "html"
	req.Highlight = bleve.NewHighlight()
	req.Highlight.Style = &style
	req.Highlight.Fields = []string{"source"}
	req.Fields = []string{"path", "language", "kind", "name", "index", "start_line", "end_line"}

	t.mu.RLock()
	defer t.mu.RUnlock()

	res, err := t.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}

	hits := make([]TextHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := TextHit{Score: h.Score}
		hit.Path, _ = h.Fields["path"].(string)
		hit.Kind, _ = h.Fields["kind"].(string)
		hit.Name, _ = h.Fields["name"].(string)
		if s, ok := h.Fields["language"].(string); ok {
			hit.Language, _ = lang.Parse(s)
		}
		hit.Index = intField(h.Fields["index"])
		hit.StartLine = intField(h.Fields["start_line"])
		hit.EndLine = intField(h.Fields["end_line"])

		for _, fragments := range h.Fragments {
			hit.Highlights = append(hit.Highlights, fragments...)
		}
		if len(hit.Highlights) > maxHighlights {
			hit.Highlights = hit.Highlights[:maxHighlights]
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func intField(v interface{}) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return 0
}

// Close releases the index.
func (t *TextIndex) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.index.Close()
}
