package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"resortbook/internal/domain/pricing"
	domainrooms "resortbook/internal/domain/rooms"
	"resortbook/internal/domain/shared/money"
)

const roomSlugIndex = "uniq_room_slug"

type RoomRepository struct {
	col *mongo.Collection
}

func NewRoomRepository(db *mongo.Database) *RoomRepository {
	return &RoomRepository{col: db.Collection(roomsCollection)}
}

func ensureRoomIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(roomsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true).SetName(roomSlugIndex)},
		{Keys: bson.D{{Key: "active", Value: 1}, {Key: "price.amount", Value: 1}}},
	})
	return err
}

func (r *RoomRepository) ByID(ctx context.Context, id domainrooms.RoomID) (*domainrooms.Room, error) {
	var doc roomDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrooms.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save upserts room guarded by its version; the slug index rejects duplicates.
func (r *RoomRepository) Save(ctx context.Context, room *domainrooms.Room) error {
	doc := newRoomDocument(room)
	filter := bson.M{"_id": doc.ID, "version": room.Version}
	doc.Version = room.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if duplicateOn(err, roomSlugIndex) {
			return domainrooms.ErrSlugDuplicate
		}
		if mongo.IsDuplicateKeyError(err) {
			return domainrooms.ErrVersionConflict
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainrooms.ErrVersionConflict
	}
	room.Version = doc.Version
	return nil
}

func (r *RoomRepository) Delete(ctx context.Context, id domainrooms.RoomID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainrooms.ErrNotFound
	}
	return nil
}

func (r *RoomRepository) Search(ctx context.Context, params domainrooms.SearchParams) (domainrooms.SearchResult, error) {
	params = params.Normalized()
	filter := roomFilter(params)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return domainrooms.SearchResult{}, err
	}
	opts := options.Find().
		SetSort(roomSort(params.Sort)).
		SetSkip(int64(params.Offset)).
		SetLimit(int64(params.Limit))
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return domainrooms.SearchResult{}, err
	}
	var docs []roomDocument
	if err := cur.All(ctx, &docs); err != nil {
		return domainrooms.SearchResult{}, err
	}
	items := make([]*domainrooms.Room, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.toAggregate())
	}
	return domainrooms.SearchResult{Items: items, Total: int(total)}, nil
}

func roomFilter(p domainrooms.SearchParams) bson.M {
	filter := bson.M{}
	if p.OnlyActive {
		filter["active"] = true
	}
	if len(p.Types) > 0 {
		types := make([]string, 0, len(p.Types))
		for _, t := range p.Types {
			types = append(types, string(t))
		}
		filter["type"] = bson.M{"$in": types}
	}
	if p.MinCapacity > 0 {
		filter["capacity"] = bson.M{"$gte": p.MinCapacity}
	}
	price := bson.M{}
	if p.PriceMinCents > 0 {
		price["$gte"] = p.PriceMinCents
	}
	if p.PriceMaxCents > 0 {
		price["$lte"] = p.PriceMaxCents
	}
	if len(price) > 0 {
		filter["price.amount"] = price
	}
	if len(p.Amenities) > 0 {
		filter["amenities"] = bson.M{"$all": p.Amenities}
	}
	if p.Query != "" {
		pattern := regexp.QuoteMeta(p.Query)
		filter["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"type": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	return filter
}

func roomSort(by domainrooms.CatalogSort) bson.D {
	switch by {
	case domainrooms.SortByPriceDesc:
		return bson.D{{Key: "price.amount", Value: -1}, {Key: "name", Value: 1}}
	case domainrooms.SortByCapacity:
		return bson.D{{Key: "capacity", Value: -1}, {Key: "name", Value: 1}}
	case domainrooms.SortByNewest:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "name", Value: 1}}
	default:
		return bson.D{{Key: "price.amount", Value: 1}, {Key: "name", Value: 1}}
	}
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

type roomDocument struct {
	ID             string        `bson:"_id"`
	Name           string        `bson:"name"`
	Slug           string        `bson:"slug"`
	Type           string        `bson:"type"`
	Description    string        `bson:"description"`
	Capacity       int           `bson:"capacity"`
	Amenities      []string      `bson:"amenities"`
	Images         []string      `bson:"images"`
	Price          moneyDocument `bson:"price"`
	TaxRatePercent float64       `bson:"tax_rate_percent"`
	Active         bool          `bson:"active"`
	CreatedAt      time.Time     `bson:"created_at"`
	UpdatedAt      time.Time     `bson:"updated_at"`
	Version        int64         `bson:"version"`
}

func newRoomDocument(r *domainrooms.Room) roomDocument {
	return roomDocument{
		ID:             string(r.ID),
		Name:           r.Name,
		Slug:           r.Slug,
		Type:           string(r.Type),
		Description:    r.Description,
		Capacity:       r.Capacity,
		Amenities:      append([]string{}, r.Amenities...),
		Images:         append([]string{}, r.Images...),
		Price:          newMoneyDocument(r.Rate.PricePerNight),
		TaxRatePercent: r.Rate.TaxRatePercent,
		Active:         r.Active,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
		Version:        r.Version,
	}
}

func (d roomDocument) toAggregate() *domainrooms.Room {
	return &domainrooms.Room{
		ID:          domainrooms.RoomID(d.ID),
		Name:        d.Name,
		Slug:        d.Slug,
		Type:        domainrooms.Type(d.Type),
		Description: d.Description,
		Capacity:    d.Capacity,
		Amenities:   d.Amenities,
		Images:      d.Images,
		Rate: pricing.RoomRate{
			PricePerNight:  d.Price.toMoney(),
			TaxRatePercent: d.TaxRatePercent,
		},
		Active:    d.Active,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
		Version:   d.Version,
	}
}

var _ domainrooms.Repository = (*RoomRepository)(nil)
