package knowledge

import (
	"sort"
	"strings"
)

const DefaultLimit = 5

// Store is an in-process, read-only catalog with a keyword-overlap scorer.
// The catalog is small and static, so substring matching is an acceptable
// relevance signal; there is no index to maintain.
type Store struct {
	docs []Document
}

// NewStore builds a store over the given documents, preserving order.
// Catalog order breaks score ties, so seed order matters.
func NewStore(docs []Document) *Store {
	return &Store{docs: docs}
}

// NewDefaultStore builds a store seeded from the in-code catalog.
func NewDefaultStore() *Store {
	return NewStore(DefaultCatalog())
}

// Documents returns the full catalog.
func (s *Store) Documents() []Document {
	return s.docs
}

// Search scores the query against every document (optionally pre-filtered by
// category) and returns the top hits, highest score first. An empty query or
// a query with no recognized tokens yields an empty list, never an error.
//
// Score = matched query tokens / total query tokens, where a token matches
// when it appears as a case-insensitive substring of title+content+category.
// Tokens of length <= 2 are discarded.
func (s *Store) Search(query string, category Category, limit int) []Hit {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	var hits []Hit
	for _, doc := range s.docs {
		if category != "" && doc.Category != category {
			continue
		}

		haystack := strings.ToLower(doc.Title + " " + doc.Content + " " + string(doc.Category))
		matched := 0
		for _, token := range tokens {
			if strings.Contains(haystack, token) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}

		hits = append(hits, Hit{
			DocumentID: doc.ID,
			Content:    doc.Content,
			Score:      float64(matched) / float64(len(tokens)),
			Category:   doc.Category,
			Title:      doc.Title,
		})
	}

	// Stable: ties keep catalog order
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func tokenize(query string) []string {
	var tokens []string
	for _, field := range strings.Fields(strings.ToLower(query)) {
		if len(field) <= 2 {
			continue
		}
		tokens = append(tokens, field)
	}
	return tokens
}
