// Package fixtures seeds the room catalog from a JSON file at startup.
package fixtures

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"resortbook/internal/domain/pricing"
	"resortbook/internal/domain/rooms"
	"resortbook/internal/domain/shared/money"
)

type roomFixture struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Slug           string   `json:"slug"`
	Type           string   `json:"type"`
	Description    string   `json:"description"`
	Capacity       int      `json:"capacity"`
	Amenities      []string `json:"amenities"`
	Images         []string `json:"images"`
	PricePerNight  string   `json:"price_per_night"`
	Currency       string   `json:"currency"`
	TaxRatePercent float64  `json:"tax_rate_percent"`
	Active         *bool    `json:"active"`
}

// LoadRooms imports rooms from path into repo. Rooms whose id is already stored are
// left untouched, so loading on every start is safe. A missing file is not an error.
func LoadRooms(ctx context.Context, path string, repo rooms.Repository, defaultCurrency string, now time.Time, logger *slog.Logger) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("room fixtures file not found, skipping", "path", path)
			return 0, nil
		}
		return 0, fmt.Errorf("read fixtures: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		logger.Warn("room fixtures file empty", "path", path)
		return 0, nil
	}

	var items []roomFixture
	if err := json.Unmarshal(data, &items); err != nil {
		return 0, fmt.Errorf("decode fixtures: %w", err)
	}

	imported := 0
	for _, fx := range items {
		if _, err := repo.ByID(ctx, rooms.RoomID(fx.ID)); err == nil {
			continue
		} else if !errors.Is(err, rooms.ErrNotFound) {
			return imported, err
		}
		room, err := fx.toRoom(defaultCurrency, now)
		if err != nil {
			logger.Error("fixture invalid", "room_id", fx.ID, "error", err)
			continue
		}
		if err := repo.Save(ctx, room); err != nil {
			logger.Error("cannot store fixture room", "room_id", fx.ID, "error", err)
			continue
		}
		imported++
		logger.Info("room fixture imported", "room_id", room.ID, "slug", room.Slug)
	}
	return imported, nil
}

func (fx roomFixture) toRoom(defaultCurrency string, now time.Time) (*rooms.Room, error) {
	currency := fx.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	price, err := money.Parse(fx.PricePerNight, currency)
	if err != nil {
		return nil, err
	}
	active := true
	if fx.Active != nil {
		active = *fx.Active
	}
	room, err := rooms.NewRoom(rooms.CreateParams{
		ID: rooms.RoomID(fx.ID),
		Details: rooms.Details{
			Name:        fx.Name,
			Slug:        fx.Slug,
			Type:        rooms.Type(fx.Type),
			Description: fx.Description,
			Capacity:    fx.Capacity,
			Amenities:   fx.Amenities,
			Images:      fx.Images,
			Rate:        pricing.RoomRate{PricePerNight: price, TaxRatePercent: fx.TaxRatePercent},
		},
		Active: active,
		Now:    now,
	})
	if err != nil {
		return nil, err
	}
	room.Drain()
	return room, nil
}

// DefaultRoomsPath picks the first fixtures file that exists.
func DefaultRoomsPath() string {
	candidates := []string{
		filepath.Join("data", "rooms.json"),
		filepath.Join("..", "..", "data", "rooms.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
