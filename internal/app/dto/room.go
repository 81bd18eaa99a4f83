package dto

import (
	"time"

	"resortbook/internal/domain/rooms"
)

type Room struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Type           string    `json:"type"`
	Description    string    `json:"description"`
	Capacity       int       `json:"capacity"`
	Amenities      []string  `json:"amenities"`
	Images         []string  `json:"images"`
	PricePerNight  MoneyDTO  `json:"price_per_night"`
	TaxRatePercent float64   `json:"tax_rate_percent"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RoomCatalog is one page of the public room listing.
type RoomCatalog struct {
	Items []Room          `json:"items"`
	Meta  CatalogMetadata `json:"meta"`
}

type CatalogMetadata struct {
	Total  int    `json:"total"`
	Count  int    `json:"count"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Sort   string `json:"sort"`
}

func MapRoom(r *rooms.Room) Room {
	return Room{
		ID:             string(r.ID),
		Name:           r.Name,
		Slug:           r.Slug,
		Type:           string(r.Type),
		Description:    r.Description,
		Capacity:       r.Capacity,
		Amenities:      nonNil(r.Amenities),
		Images:         nonNil(r.Images),
		PricePerNight:  MapMoney(r.Rate.PricePerNight),
		TaxRatePercent: r.Rate.TaxRatePercent,
		Active:         r.Active,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func MapCatalog(result rooms.SearchResult, params rooms.SearchParams) RoomCatalog {
	items := make([]Room, 0, len(result.Items))
	for _, r := range result.Items {
		items = append(items, MapRoom(r))
	}
	return RoomCatalog{
		Items: items,
		Meta: CatalogMetadata{
			Total:  result.Total,
			Count:  len(items),
			Limit:  params.Limit,
			Offset: params.Offset,
			Sort:   string(params.Sort),
		},
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
