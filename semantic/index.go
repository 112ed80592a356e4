// Package semantic ranks catalog products against free text with a
// term-frequency cosine index. It only feeds candidate hints to the
// interpreter; product lookups never depend on it.
package semantic

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/rs/zerolog/log"

	contractx "github.com/sirawit-b/stocktalk/agent/contract"
	"github.com/sirawit-b/stocktalk/inventory"
)

const indexLoadLimit = 1000

type document struct {
	name   string
	vector map[string]float64
	norm   float64
}

// Index holds one document per active product. Rebuilds swap the whole
// document set, so readers never see a half-built index.
type Index struct {
	mu   sync.RWMutex
	docs []document
}

var _ contractx.EntitySource = (*Index)(nil)

func NewIndex() *Index {
	return &Index{}
}

// IndexProducts rebuilds the index from the store's active products.
func (ix *Index) IndexProducts(ctx context.Context, store inventory.Store) error {
	products, err := store.ListProducts(ctx, indexLoadLimit)
	if err != nil {
		return err
	}

	docs := make([]document, 0, len(products))
	for _, p := range products {
		text := productText(p)
		vector, norm := vectorize(text)
		if norm == 0 {
			continue
		}
		docs = append(docs, document{name: p.Name, vector: vector, norm: norm})
	}

	ix.mu.Lock()
	ix.docs = docs
	ix.mu.Unlock()

	log.Debug().Int("products", len(docs)).Msg("semantic index rebuilt")
	return nil
}

// Candidates returns up to limit product names ranked by similarity to the
// query. Unmatched queries return nil without error.
func (ix *Index) Candidates(ctx context.Context, query string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	vector, norm := vectorize(query)
	if norm == 0 {
		return nil, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	type scored struct {
		name  string
		score float64
	}

	var results []scored
	for _, doc := range ix.docs {
		score := cosine(vector, norm, doc.vector, doc.norm)
		if score > 0 {
			results = append(results, scored{name: doc.name, score: score})
		}
	}

	if len(results) == 0 {
		return nil, nil
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].name < results[j].name
	})
	if len(results) > limit {
		results = results[:limit]
	}

	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.name
	}
	return names, nil
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

func productText(p inventory.Product) string {
	parts := []string{p.Name, p.SKU, p.Description}
	if p.Category != nil {
		parts = append(parts, p.Category.Name)
	}
	if p.Supplier != nil {
		parts = append(parts, p.Supplier.Name)
	}
	return strings.Join(parts, " ")
}

func vectorize(text string) (map[string]float64, float64) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, 0
	}

	vector := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		vector[tok]++
	}

	var sum float64
	for _, f := range vector {
		sum += f * f
	}
	return vector, math.Sqrt(sum)
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func cosine(a map[string]float64, normA float64, b map[string]float64, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}

	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}

	var dot float64
	for tok, f := range small {
		dot += f * large[tok]
	}
	return dot / (normA * normB)
}
