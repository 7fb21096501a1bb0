package services

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/provelab/go-demand-backend/internal/repo"
	"github.com/provelab/go-demand-backend/internal/search"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// defaultIndexRefresh bounds how stale the product search index may get
// before a query rebuilds it from the database.
const defaultIndexRefresh = time.Minute

// defaultSearchLimit is the result count served when the caller asks for
// none, mirroring the pagination default elsewhere.
const defaultSearchLimit = 20

// SearchService maps free-text product queries ("spf 50 sunscreen") onto the
// barcodes of known demand records. The index is an in-memory snapshot over
// every record's name, brand, and category, rebuilt at most once per
// RefreshInterval; a freshly created record becomes searchable on the next
// rebuild, which is acceptable for a discovery surface.
type SearchService struct {
	DB *gorm.DB

	// RefreshInterval controls index staleness; <=0 uses the default.
	RefreshInterval time.Duration

	mu      sync.RWMutex
	idx     search.Index
	builtAt time.Time
}

// Match is one search hit enriched with the record's display fields.
type Match struct {
	Barcode     string  `json:"barcode"`
	ProductName string  `json:"product_name,omitempty"`
	Brand       string  `json:"brand,omitempty"`
	Score       float64 `json:"score"`
}

// Search returns up to limit records ranked by similarity to query. A limit
// <= 0 falls back to the default; an unknown or empty query yields an empty
// result, never an error.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]Match, error) {
	tr := otel.Tracer("services/SearchService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(attribute.Int("limit", limit)),
	)
	defer span.End()

	if limit <= 0 {
		limit = defaultSearchLimit
	}

	idx, err := s.index(ctx)
	if err != nil {
		return nil, err
	}

	hits := idx.TopK(query, limit)
	if len(hits) == 0 {
		return []Match{}, nil
	}

	out := make([]Match, 0, len(hits))
	for _, h := range hits {
		m := Match{Barcode: h.Barcode, Score: h.Score}
		if rec, err := repo.GetDemandByBarcode(ctx, s.DB, h.Barcode); err == nil {
			m.ProductName = rec.ProductName
			m.Brand = rec.Brand
		}
		out = append(out, m)
	}
	span.SetAttributes(attribute.Int("hits", len(out)))
	return out, nil
}

// Invalidate drops the cached index so the next Search rebuilds it.
func (s *SearchService) Invalidate() {
	s.mu.Lock()
	s.builtAt = time.Time{}
	s.idx = nil
	s.mu.Unlock()
}

// index returns the current snapshot, rebuilding it when stale. On a rebuild
// failure a stale index keeps serving; only a cold cache surfaces the error.
func (s *SearchService) index(ctx context.Context) (search.Index, error) {
	now := time.Now()
	interval := s.RefreshInterval
	if interval <= 0 {
		interval = defaultIndexRefresh
	}

	s.mu.RLock()
	if s.idx != nil && now.Sub(s.builtAt) < interval {
		idx := s.idx
		s.mu.RUnlock()
		return idx, nil
	}
	s.mu.RUnlock()

	docs, err := repo.ListProductDocs(ctx, s.DB)
	if err != nil {
		s.mu.RLock()
		idx := s.idx
		s.mu.RUnlock()
		if idx != nil {
			return idx, nil
		}
		return nil, err
	}

	in := make([]search.Doc, 0, len(docs))
	for _, d := range docs {
		in = append(in, search.Doc{
			Barcode: d.Barcode,
			Text:    search.ProductText(d.ProductName, d.Brand, d.Category),
		})
	}
	idx := search.NewIndex(in, search.WithStopwords(search.DefaultStopwords))

	s.mu.Lock()
	s.idx = idx
	s.builtAt = now
	s.mu.Unlock()
	return idx, nil
}
