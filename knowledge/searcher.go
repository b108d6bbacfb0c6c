// Package knowledge stores agricultural research passages and answers
// retrieval queries with hybrid term and vector search.
package knowledge

import "context"

// Searcher returns up to k passages ranked best first. An empty result means
// nothing matched and is not an error.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]string, error)
}
