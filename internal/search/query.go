package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/listenupapp/bookrec/internal/domain"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query string // User's search query

	// Filters
	Category string // Exact simple category
	MinYear  int    // Minimum publish year
	MaxYear  int    // Maximum publish year

	// Pagination
	Limit  int
	Offset int

	// Options
	IncludeFacets bool // Include category counts in results
	Highlight     bool // Include match highlighting
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:         20,
		IncludeFacets: true,
		Highlight:     true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"took_ms"`
	Hits   []SearchHit  `json:"hits"`
	Facets []FacetCount `json:"categories,omitempty"`
}

// SearchHit represents a single search result.
type SearchHit struct {
	ISBN13      int64             `json:"isbn13"`
	Score       float64           `json:"score"`
	Title       string            `json:"title,omitempty"`
	Authors     string            `json:"authors,omitempty"`
	Category    string            `json:"category,omitempty"`
	PublishYear int               `json:"publish_year,omitempty"`
	Tagged      string            `json:"-"`
	Highlights  map[string]string `json:"highlights,omitempty"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search executes a search query.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultSearchParams().Limit
	}

	searchQuery := buildSearchQuery(params)
	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)
	searchRequest.SortBy([]string{"-_score", "_id"})

	if params.IncludeFacets {
		searchRequest.AddFacet("category", bleve.NewFacetRequest("category", 20))
	}

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("title")
		searchRequest.Highlight.AddField("description")
	}

	searchRequest.Fields = []string{"title", "authors", "category", "publish_year", "tagged"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		isbn, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			s.logger.Warn("skipping search hit with non-numeric id", "id", hit.ID)
			continue
		}
		searchHit := SearchHit{
			ISBN13: isbn,
			Score:  hit.Score,
		}

		// Extract stored fields
		if t, ok := hit.Fields["title"].(string); ok {
			searchHit.Title = t
		}
		if a, ok := hit.Fields["authors"].(string); ok {
			searchHit.Authors = a
		}
		if c, ok := hit.Fields["category"].(string); ok {
			searchHit.Category = c
		}
		if y, ok := hit.Fields["publish_year"].(float64); ok {
			searchHit.PublishYear = int(y)
		}
		if tg, ok := hit.Fields["tagged"].(string); ok {
			searchHit.Tagged = tg
		}

		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	if params.IncludeFacets {
		if categoryFacet, ok := searchResult.Facets["category"]; ok && categoryFacet.Terms != nil {
			for _, term := range categoryFacet.Terms.Terms() {
				result.Facets = append(result.Facets, FacetCount{Value: term.Term, Count: term.Count})
			}
		}
	}

	return result, nil
}

// SimilaritySearch returns the tagged descriptions of the k best lexical matches for query.
func (s *SearchIndex) SimilaritySearch(ctx context.Context, query string, k int) ([]domain.Document, error) {
	res, err := s.Search(ctx, SearchParams{Query: query, Limit: k})
	if err != nil {
		return nil, err
	}
	docs := make([]domain.Document, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if hit.Tagged == "" {
			continue
		}
		docs = append(docs, domain.Document{Text: hit.Tagged, Score: hit.Score})
	}
	return docs, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	// Descriptions carry the theme of a book, titles and authors are boosted for direct lookups.
	if q := strings.TrimSpace(params.Query); q != "" {
		textQueries := []query.Query{}

		descMatch := bleve.NewMatchQuery(q)
		descMatch.SetField("description")
		textQueries = append(textQueries, descMatch)

		titleMatch := bleve.NewMatchQuery(q)
		titleMatch.SetField("title")
		titleMatch.SetBoost(2.0)
		textQueries = append(textQueries, titleMatch)

		authorMatch := bleve.NewMatchQuery(q)
		authorMatch.SetField("authors")
		authorMatch.SetBoost(1.5)
		textQueries = append(textQueries, authorMatch)

		// Fuzzy matching for typo tolerance on single-word title lookups
		if !strings.ContainsAny(q, " \t") {
			fuzzyQuery := bleve.NewFuzzyQuery(strings.ToLower(q))
			fuzzyQuery.SetFuzziness(1)
			fuzzyQuery.SetField("title")
			fuzzyQuery.SetBoost(0.8)
			textQueries = append(textQueries, fuzzyQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if params.Category != "" {
		cq := bleve.NewTermQuery(params.Category)
		cq.SetField("category")
		queries = append(queries, cq)
	}

	if params.MinYear > 0 || params.MaxYear > 0 {
		min := float64(params.MinYear)
		max := float64(params.MaxYear)
		if params.MaxYear == 0 {
			max = 3000 // Far future
		}
		inclusive := true
		rangeQuery := bleve.NewNumericRangeInclusiveQuery(&min, &max, &inclusive, &inclusive)
		rangeQuery.SetField("publish_year")
		queries = append(queries, rangeQuery)
	}

	// Combine all queries with AND
	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}
