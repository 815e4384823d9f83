package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/fekuna/fabshop-inventory-service/internal/logger"
	"github.com/fekuna/fabshop-inventory-service/internal/material/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/fekuna/fabshop-inventory-service/internal/search"
	"go.uber.org/zap"
)

const indexName = "materials"

const indexMapping = `{
	"mappings": {
		"properties": {
			"id": { "type": "keyword" },
			"sku": { "type": "keyword" },
			"name": { "type": "text" },
			"category": { "type": "keyword" },
			"unit": { "type": "keyword" },
			"isActive": { "type": "boolean" },
			"lowStock": { "properties": { "isLow": { "type": "boolean" } } },
			"createdAt": { "type": "date" }
		}
	}
}`

// Searcher is the subset of the Elasticsearch client the registry uses.
type Searcher interface {
	CreateIndex(ctx context.Context, index, mapping string) error
	Index(ctx context.Context, index, id string, doc any) error
	Search(ctx context.Context, index string, query map[string]any) (*search.SearchResult, error)
}

type searchIndex struct {
	es     Searcher
	logger logger.ZapLogger
	once   sync.Once
}

func newSearchIndex(es Searcher, log logger.ZapLogger) *searchIndex {
	return &searchIndex{es: es, logger: log}
}

func (s *searchIndex) ensure(ctx context.Context) {
	s.once.Do(func() {
		if err := s.es.CreateIndex(ctx, indexName, indexMapping); err != nil {
			s.logger.Warn("failed to create materials index", zap.Error(err))
		}
	})
}

func (s *searchIndex) sync(ctx context.Context, m *model.Material) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	s.ensure(ctx)
	if err := s.es.Index(ctx, indexName, m.ID, m); err != nil {
		s.logger.Error("failed to index material", zap.String("material_id", m.ID), zap.Error(err))
	}
}

func (s *searchIndex) search(ctx context.Context, f *dto.MaterialFilters) ([]model.Material, int, error) {
	must := []map[string]any{
		{
			"query_string": map[string]any{
				"query":  fmt.Sprintf("*%s*", f.Query),
				"fields": []string{"name^3", "sku"},
			},
		},
	}
	var filter []map[string]any
	if f.LowOnly {
		filter = append(filter, map[string]any{"term": map[string]any{"lowStock.isLow": true}})
	}
	if f.ActiveOnly {
		filter = append(filter, map[string]any{"term": map[string]any{"isActive": true}})
	}
	boolQuery := map[string]any{"must": must}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}
	q := map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"from":  (f.Page - 1) * f.PageSize,
		"size":  f.PageSize,
	}

	res, err := s.es.Search(ctx, indexName, q)
	if err != nil {
		return nil, 0, err
	}
	items := make([]model.Material, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var m model.Material
		if err := json.Unmarshal(hit.Source, &m); err != nil {
			return nil, 0, fmt.Errorf("decode hit %s: %w", hit.ID, err)
		}
		items = append(items, m)
	}
	return items, res.Hits.Total.Value, nil
}
