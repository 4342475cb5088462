// Package search keeps a bleve full-text index over enriched documents.
package search

import (
	"errors"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"docvault/internal/model"
)

// Index wraps a bleve index of completed documents.
type Index struct {
	index bleve.Index
}

// indexedDocument is the shape stored in bleve.
type indexedDocument struct {
	Name     string
	Summary  string
	Markdown string
	FolderID string
	Type     string
}

// Hit is one search result.
type Hit struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Score     float64             `json:"score"`
	Fragments map[string][]string `json:"fragments,omitempty"`
}

// Open opens the index at path, creating it if missing. An empty path keeps it in memory.
func Open(path string) (*Index, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		return &Index{index: idx}, nil
	}

	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return &Index{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	english := bleve.NewTextFieldMapping()
	english.Analyzer = "en"

	keyword := bleve.NewKeywordFieldMapping()

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("Name", english)
	docMapping.AddFieldMappingsAt("Summary", english)
	docMapping.AddFieldMappingsAt("Markdown", english)
	docMapping.AddFieldMappingsAt("FolderID", keyword)
	docMapping.AddFieldMappingsAt("Type", keyword)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	// Unqualified queries hit _all and are analyzed with the default analyzer,
	// which must stem the same way the text fields do.
	indexMapping.DefaultAnalyzer = "en"
	return indexMapping
}

// Close closes the index.
func (i *Index) Close() error {
	return i.index.Close()
}

// Index adds or replaces a document. Documents that are not completed are removed instead,
// so only enriched artifacts are searchable.
func (i *Index) Index(doc model.Document) error {
	if doc.ProcessingStatus != model.StatusCompleted || doc.Summary == nil || doc.Markdown == nil {
		return i.Delete(doc.ID)
	}
	entry := indexedDocument{
		Name:     doc.OriginalName,
		Summary:  *doc.Summary,
		Markdown: *doc.Markdown,
		Type:     doc.Type,
	}
	if doc.FolderID != nil {
		entry.FolderID = *doc.FolderID
	}
	return i.index.Index(doc.ID, entry)
}

// Delete removes a document from the index.
func (i *Index) Delete(id string) error {
	return i.index.Delete(id)
}

// Rebuild indexes every completed document in docs.
func (i *Index) Rebuild(docs []model.Document) (int, error) {
	batch := i.index.NewBatch()
	n := 0
	for _, d := range docs {
		if d.ProcessingStatus != model.StatusCompleted || d.Summary == nil || d.Markdown == nil {
			continue
		}
		entry := indexedDocument{Name: d.OriginalName, Summary: *d.Summary, Markdown: *d.Markdown, Type: d.Type}
		if d.FolderID != nil {
			entry.FolderID = *d.FolderID
		}
		if err := batch.Index(d.ID, entry); err != nil {
			return n, fmt.Errorf("batch index %s: %w", d.ID, err)
		}
		n++
	}
	if err := i.index.Batch(batch); err != nil {
		return 0, fmt.Errorf("apply batch: %w", err)
	}
	return n, nil
}

// Search runs a query-string query (quotes, +/-, field:term) and returns up to limit hits.
func (i *Index) Search(queryStr string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	req := bleve.NewSearchRequestOptions(bleve.NewQueryStringQuery(queryStr), limit, 0, false)
	req.Fields = []string{"Name"}
	req.Highlight = bleve.NewHighlight()
	req.Highlight.Fields = []string{"Summary", "Markdown"}

	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score, Fragments: h.Fragments}
		if name, ok := h.Fields["Name"].(string); ok {
			hit.Name = name
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
