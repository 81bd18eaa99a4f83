package rooms

import "strings"

// CatalogSort defines a supported ordering.
type CatalogSort string

const (
	SortByPriceAsc  CatalogSort = "price_asc"
	SortByPriceDesc CatalogSort = "price_desc"
	SortByCapacity  CatalogSort = "capacity_desc"
	SortByNewest    CatalogSort = "newest"

	defaultSearchLimit = 24
	maxSearchLimit     = 100
)

// SearchParams describe catalog filters and paging options.
type SearchParams struct {
	Types         []Type
	Amenities     []string
	MinCapacity   int
	PriceMinCents int64
	PriceMaxCents int64
	Query         string
	OnlyActive    bool
	Sort          CatalogSort
	Limit         int
	Offset        int
}

// Normalized returns a sanitized copy of params.
func (p SearchParams) Normalized() SearchParams {
	n := p
	n.Query = strings.TrimSpace(strings.ToLower(n.Query))
	n.Amenities = normalizeTokens(n.Amenities)
	types := make([]Type, 0, len(n.Types))
	for _, t := range n.Types {
		if parsed, err := ParseType(string(t)); err == nil && strings.TrimSpace(string(t)) != "" {
			types = append(types, parsed)
		}
	}
	n.Types = types
	if n.MinCapacity < 0 {
		n.MinCapacity = 0
	}
	if n.PriceMinCents < 0 {
		n.PriceMinCents = 0
	}
	if n.PriceMaxCents > 0 && n.PriceMaxCents < n.PriceMinCents {
		n.PriceMaxCents = 0
	}
	if n.Limit <= 0 {
		n.Limit = defaultSearchLimit
	}
	if n.Limit > maxSearchLimit {
		n.Limit = maxSearchLimit
	}
	if n.Offset < 0 {
		n.Offset = 0
	}
	switch n.Sort {
	case SortByPriceAsc, SortByPriceDesc, SortByCapacity, SortByNewest:
	default:
		n.Sort = SortByPriceAsc
	}
	return n
}

// Matches applies every filter except paging and sorting.
func (p SearchParams) Matches(r *Room) bool {
	if p.OnlyActive && !r.Active {
		return false
	}
	if len(p.Types) > 0 {
		found := false
		for _, t := range p.Types {
			if r.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if p.MinCapacity > 0 && r.Capacity < p.MinCapacity {
		return false
	}
	price := r.Rate.PricePerNight.Amount
	if p.PriceMinCents > 0 && price < p.PriceMinCents {
		return false
	}
	if p.PriceMaxCents > 0 && price > p.PriceMaxCents {
		return false
	}
	if p.Query != "" {
		haystack := strings.ToLower(r.Name + " " + r.Description + " " + string(r.Type))
		if !strings.Contains(haystack, p.Query) {
			return false
		}
	}
	if len(p.Amenities) > 0 {
		have := make(map[string]struct{}, len(r.Amenities))
		for _, a := range r.Amenities {
			have[a] = struct{}{}
		}
		for _, want := range p.Amenities {
			if _, ok := have[want]; !ok {
				return false
			}
		}
	}
	return true
}

// SearchResult wraps search hits with meta.
type SearchResult struct {
	Items []*Room
	Total int
}
