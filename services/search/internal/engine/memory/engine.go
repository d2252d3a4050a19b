// Package memory implements the search engine in process memory.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/utafrali/shopmesh/services/search/internal/domain"
)

// Engine is an in-memory engine.Engine. Indices exist only after
// EnsureIndices or the first write to them, mirroring Elasticsearch's
// auto-creation.
type Engine struct {
	mu         sync.RWMutex
	indices    map[string]bool
	shops      map[string]domain.Shop
	products   map[string]domain.Product
	variations map[string]domain.Variation
}

// New creates an engine with no indices.
func New() *Engine {
	return &Engine{
		indices:    make(map[string]bool),
		shops:      make(map[string]domain.Shop),
		products:   make(map[string]domain.Product),
		variations: make(map[string]domain.Variation),
	}
}

func (e *Engine) EnsureIndices(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, name := range domain.Indices {
		e.indices[name] = true
	}
	return nil
}

func (e *Engine) IndexShop(_ context.Context, shop domain.Shop) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.indices[domain.IndexShops] = true
	e.shops[shop.ID] = shop
	return nil
}

func (e *Engine) IndexProduct(_ context.Context, product domain.Product) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.indices[domain.IndexProducts] = true
	e.products[product.ID] = product
	return nil
}

func (e *Engine) IndexVariation(_ context.Context, variation domain.Variation) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.indices[domain.IndexVariations] = true
	e.variations[variation.ID] = variation
	return nil
}

func (e *Engine) Delete(_ context.Context, index, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch index {
	case domain.IndexShops:
		delete(e.shops, id)
	case domain.IndexProducts:
		delete(e.products, id)
	case domain.IndexVariations:
		delete(e.variations, id)
	}
	return nil
}

type scored[T any] struct {
	id    string
	score int
	doc   T
}

// top orders by score, then id, and keeps size hits.
func top[T any](hits []scored[T], size int) []T {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].id < hits[j].id
	})
	if len(hits) > size {
		hits = hits[:size]
	}
	out := make([]T, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.doc)
	}
	return out
}

func (e *Engine) SearchShops(_ context.Context, query string, size int) ([]domain.Shop, error) {
	terms := tokenize(query)
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.indices[domain.IndexShops] {
		return nil, domain.ErrIndexNotFound
	}

	var hits []scored[domain.Shop]
	for id, s := range e.shops {
		if n := matches(terms, s.Name); n > 0 {
			hits = append(hits, scored[domain.Shop]{id, n, s})
		}
	}
	return top(hits, size), nil
}

// SearchProducts weights title matches three times description matches.
func (e *Engine) SearchProducts(_ context.Context, query string, size int) ([]domain.Product, error) {
	terms := tokenize(query)
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.indices[domain.IndexProducts] {
		return nil, domain.ErrIndexNotFound
	}

	var hits []scored[domain.Product]
	for id, p := range e.products {
		if n := 3*matches(terms, p.Title) + matches(terms, p.About); n > 0 {
			hits = append(hits, scored[domain.Product]{id, n, p})
		}
	}
	return top(hits, size), nil
}

func (e *Engine) ProductsByShop(_ context.Context, shopID string, size int) ([]domain.Product, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.indices[domain.IndexProducts] {
		return nil, domain.ErrIndexNotFound
	}

	var hits []scored[domain.Product]
	for id, p := range e.products {
		if p.ShopID == shopID {
			hits = append(hits, scored[domain.Product]{id: id, doc: p})
		}
	}
	return top(hits, size), nil
}

func (e *Engine) VariationsByProduct(_ context.Context, productID string, size int) ([]domain.Variation, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.indices[domain.IndexVariations] {
		return nil, domain.ErrIndexNotFound
	}

	var hits []scored[domain.Variation]
	for id, v := range e.variations {
		if v.ProductID == productID {
			hits = append(hits, scored[domain.Variation]{id: id, doc: v})
		}
	}
	return top(hits, size), nil
}

func (e *Engine) Ping(context.Context) error { return nil }

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// matches counts query terms that fuzzily match some word of text.
func matches(terms []string, text string) int {
	words := tokenize(text)
	n := 0
	for _, t := range terms {
		for _, w := range words {
			if levenshtein(t, w) <= fuzziness(t) {
				n++
				break
			}
		}
	}
	return n
}

// fuzziness follows Elasticsearch's AUTO setting: exact for one or two
// characters, one edit up to five, two beyond.
func fuzziness(term string) int {
	switch n := len([]rune(term)); {
	case n <= 2:
		return 0
	case n <= 5:
		return 1
	default:
		return 2
	}
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
