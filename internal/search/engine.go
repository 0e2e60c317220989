// Package search implements the product search strategy used by the backend.
//
// The upstream directory is a plain substring matcher: multi-word queries like
// "Amul Butter 500g Packet" often return nothing even though a single
// distinguishing token would match. The engine therefore runs a two-stage
// strategy:
//
//  1. Exact-term search. Any result at all is a terminal success and is
//     returned exactly as the directory produced it.
//  2. When the exact search is empty and the query has more than one word,
//     the three longest words (ties kept in original order) are searched
//     independently and the results merged in word order, deduplicated by
//     barcode. Longer words tend to be brand or product names rather than
//     fillers like "500g".
//
// Sub-search failures are treated as empty results for that sub-search only;
// the engine itself never returns a transport error.
package search

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/healthybites/go-food-backend/internal/openfoodfacts"
)

// Directory is the remote search dependency, satisfied by *openfoodfacts.Client.
type Directory interface {
	Search(ctx context.Context, term string, pageSize int) ([]openfoodfacts.Product, error)
}

// Engine runs the fallback search strategy over a Directory.
type Engine struct {
	dir Directory
}

// NewEngine constructs an Engine bound to the given directory.
func NewEngine(dir Directory) *Engine {
	return &Engine{dir: dir}
}

// maxFallbackWords caps how many per-word sub-searches the fallback runs.
const maxFallbackWords = 3

// Search returns products matching query, up to limit per sub-search. The
// merged fallback result may exceed limit since each sub-search is capped
// independently.
func (e *Engine) Search(ctx context.Context, query string, limit int) []openfoodfacts.Product {
	products := e.execute(ctx, query, limit)
	if len(products) > 0 {
		log.Info().Str("query", query).Int("count", len(products)).Msg("exact search hit")
		return products
	}

	words := strings.Fields(query)
	if len(words) > 1 {
		log.Info().Str("query", query).Msg("exact search empty, trying longest-word fallback")
		return e.fallback(ctx, words, limit)
	}

	log.Warn().Str("query", query).Msg("no products found for single-word query")
	return []openfoodfacts.Product{}
}

// fallback searches the longest words independently and merges the results in
// word order, skipping barcodes already collected from an earlier word.
func (e *Engine) fallback(ctx context.Context, words []string, limit int) []openfoodfacts.Product {
	longest := longestWords(words, maxFallbackWords)

	merged := make([]openfoodfacts.Product, 0, limit)
	seen := make(map[string]struct{})

	for _, word := range longest {
		for _, p := range e.execute(ctx, word, limit) {
			if _, dup := seen[p.Code]; dup {
				continue
			}
			seen[p.Code] = struct{}{}
			merged = append(merged, p)
		}
	}

	log.Info().Strs("words", longest).Int("count", len(merged)).Msg("fallback search done")
	return merged
}

// execute runs one directory search, swallowing failures as empty results.
func (e *Engine) execute(ctx context.Context, term string, limit int) []openfoodfacts.Product {
	products, err := e.dir.Search(ctx, term, limit)
	if err != nil {
		log.Error().Err(err).Str("term", term).Msg("directory search failed")
		return nil
	}
	return products
}

// longestWords returns up to n words sorted by character length descending,
// with ties kept in their original left-to-right order.
func longestWords(words []string, n int) []string {
	out := make([]string, len(words))
	copy(out, words)
	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i]) > utf8.RuneCountInString(out[j])
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
