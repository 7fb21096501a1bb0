// Package search provides a simple, deterministic, concurrency-safe in-memory
// index over product text (name, brand, category, boost keywords). It lets
// clients resolve a free-text query ("spf 50 sunscreen") to the barcodes of
// known demand records. It is intentionally small and dependency-free:
//
//   - No logging in the library (callers decide how/what to log)
//   - Clear, documented types and functional options (Option pattern)
//   - Unicode-aware tokenization with optional stop-word removal
//   - Immutable, read-only index after construction (safe for concurrent use)
//   - Deterministic scoring and sorting (stable order for ties)
//
// Scoring uses Jaccard similarity between the query token set and each
// document's token set: score = |Q ∩ D| / |Q ∪ D|.
package search

import (
	"sort"
	"strings"
)

// Doc is one indexable product: a barcode plus the text describing it.
type Doc struct {
	Barcode string
	Text    string
}

// Result is a ranked barcode with its similarity score.
type Result struct {
	Barcode string  `json:"barcode"`
	Score   float64 `json:"score"`
}

// Index is the minimal interface implemented by all search indices.
type Index interface {
	TopK(query string, k int) []Result
	Len() int
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	stopwords map[string]struct{}
	maxDocs   int
}

func defaultConfig() config {
	return config{
		stopwords: nil,
		maxDocs:   0,
	}
}

// WithStopwords removes the given words from both documents and queries
// before scoring. Comparison is case-insensitive.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxDocs caps how many documents the index retains.
func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	barcode string
	tokens  map[string]struct{}
	tLen    int
}

type index struct {
	cfg  config
	docs []doc
}

// NewIndex builds an Index from product documents. Documents with an empty
// barcode or no usable tokens are skipped; a barcode seen twice keeps its
// first document.
func NewIndex(docs []Doc, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return buildIndex(docs, cfg)
}

func buildIndex(in []Doc, cfg config) *index {
	docs := make([]doc, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, d := range in {
		barcode := strings.TrimSpace(d.Barcode)
		if barcode == "" {
			continue
		}
		if _, dup := seen[barcode]; dup {
			continue
		}
		toks := tokenize(normalizeWhitespace(d.Text), cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		seen[barcode] = struct{}{}
		docs = append(docs, doc{barcode: barcode, tokens: toks, tLen: len(toks)})
		if cfg.maxDocs > 0 && len(docs) >= cfg.maxDocs {
			break
		}
	}
	return &index{cfg: cfg, docs: docs}
}

// Len reports how many documents the index holds.
func (i *index) Len() int { return len(i.docs) }

// TopK returns up to k best-matching barcodes by Jaccard similarity.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 {
		return nil
	}
	if strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	type scored struct {
		barcode string
		score   float64
		tLen    int
	}

	buf := make([]scored, 0, min(k*4, len(i.docs)))
	for _, d := range i.docs {
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + d.tLen - over)
		if union <= 0 {
			continue
		}
		score := float64(over) / union
		if score <= 0 {
			continue
		}
		buf = append(buf, scored{barcode: d.barcode, score: score, tLen: d.tLen})
	}
	if len(buf) == 0 {
		return nil
	}

	// Ties: prefer the terser document (a closer total match), then the
	// lexicographically smaller barcode for a stable order.
	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		if buf[a].tLen != buf[b].tLen {
			return buf[a].tLen < buf[b].tLen
		}
		return buf[a].barcode < buf[b].barcode
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for i := 0; i < k; i++ {
		out[i] = Result{Barcode: buf[i].barcode, Score: buf[i].score}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := 0
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
