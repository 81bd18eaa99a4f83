package rooms

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"resortbook/internal/domain/pricing"
	"resortbook/internal/domain/shared/events"
)

var (
	ErrIDRequired      = errors.New("rooms: id is required")
	ErrNameRequired    = errors.New("rooms: name is required")
	ErrCapacity        = errors.New("rooms: capacity must be at least 1")
	ErrInvalidType     = errors.New("rooms: unknown room type")
	ErrNotFound        = errors.New("rooms: not found")
	ErrInactive        = errors.New("rooms: room is not bookable")
	ErrGuestsCount     = errors.New("rooms: guests exceed room capacity")
	ErrSlugDuplicate   = errors.New("rooms: slug already used")
	ErrHasBookings     = errors.New("rooms: room has active bookings")
	ErrVersionConflict = errors.New("rooms: modified concurrently, reload and retry")
)

type RoomID string

type Type string

const (
	TypeStandard Type = "standard"
	TypeDeluxe   Type = "deluxe"
	TypeSuite    Type = "suite"
	TypeVilla    Type = "villa"
)

func ParseType(raw string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(raw))); t {
	case "":
		return TypeStandard, nil
	case TypeStandard, TypeDeluxe, TypeSuite, TypeVilla:
		return t, nil
	default:
		return "", ErrInvalidType
	}
}

type Room struct {
	ID          RoomID
	Name        string
	Slug        string
	Type        Type
	Description string
	Capacity    int
	Amenities   []string
	Images      []string
	Rate        pricing.RoomRate
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id RoomID) (*Room, error)
	Save(ctx context.Context, room *Room) error
	Delete(ctx context.Context, id RoomID) error
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
}

type Details struct {
	Name        string
	Slug        string
	Type        Type
	Description string
	Capacity    int
	Amenities   []string
	Images      []string
	Rate        pricing.RoomRate
}

type CreateParams struct {
	ID RoomID
	Details
	Active bool
	Now    time.Time
}

func NewRoom(params CreateParams) (*Room, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	now := params.Now.UTC()
	r := &Room{ID: params.ID, Active: params.Active, CreatedAt: now}
	if err := r.apply(params.Details, now); err != nil {
		return nil, err
	}
	r.Record(RoomChanged{RoomID: r.ID, Change: "created", At: now})
	return r, nil
}

// Update replaces editable details; the rate change applies to future quotes only.
func (r *Room) Update(details Details, now time.Time) error {
	if err := r.apply(details, now.UTC()); err != nil {
		return err
	}
	r.Record(RoomChanged{RoomID: r.ID, Change: "updated", At: r.UpdatedAt})
	return nil
}

func (r *Room) SetActive(active bool, now time.Time) {
	if r.Active == active {
		return
	}
	r.Active = active
	r.UpdatedAt = now.UTC()
	change := "deactivated"
	if active {
		change = "activated"
	}
	r.Record(RoomChanged{RoomID: r.ID, Change: change, At: r.UpdatedAt})
}

// CheckBookable verifies a stay for the given party can be requested.
func (r *Room) CheckBookable(guests int) error {
	if !r.Active {
		return ErrInactive
	}
	if guests > r.Capacity {
		return ErrGuestsCount
	}
	return nil
}

func (r *Room) apply(d Details, now time.Time) error {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return ErrNameRequired
	}
	if d.Capacity < 1 {
		return ErrCapacity
	}
	roomType, err := ParseType(string(d.Type))
	if err != nil {
		return err
	}
	if err := d.Rate.Validate(); err != nil {
		return err
	}
	slug := Slugify(d.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	r.Name = name
	r.Slug = slug
	r.Type = roomType
	r.Description = strings.TrimSpace(d.Description)
	r.Capacity = d.Capacity
	r.Amenities = normalizeTokens(d.Amenities)
	r.Images = append([]string(nil), d.Images...)
	r.Rate = d.Rate
	r.UpdatedAt = now
	return nil
}

var slugJunk = regexp.MustCompile(`[^a-z0-9]+`)

func Slugify(value string) string {
	s := slugJunk.ReplaceAllString(strings.ToLower(strings.TrimSpace(value)), "-")
	return strings.Trim(s, "-")
}

func normalizeTokens(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

type RoomChanged struct {
	RoomID RoomID
	Change string
	At     time.Time
}

func (e RoomChanged) EventName() string     { return "room." + e.Change }
func (e RoomChanged) AggregateID() string   { return string(e.RoomID) }
func (e RoomChanged) OccurredAt() time.Time { return e.At }
