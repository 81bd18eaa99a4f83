package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"resortbook/internal/domain/availability"
	domainbooking "resortbook/internal/domain/booking"
	"resortbook/internal/domain/pricing"
	domainrooms "resortbook/internal/domain/rooms"
	"resortbook/internal/domain/shared/daterange"
)

var ErrDuplicateBooking = errors.New("mongo: booking id already stored")

// BookingRepository persists bookings in agg_booking. Every night held by a blocking
// booking is also claimed in room_nights, whose _id is room|date, so two overlapping
// admissions can never both commit.
type BookingRepository struct {
	col    *mongo.Collection
	nights *mongo.Collection
	seqs   *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{
		col:    db.Collection(bookingsCollection),
		nights: db.Collection(nightsCollection),
		seqs:   db.Collection(sequencesCollection),
	}
}

func ensureBookingIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(bookingsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "status", Value: 1}, {Key: "range.check_in", Value: 1}}},
		{Keys: bson.D{{Key: "guest_id", Value: 1}, {Key: "sequence", Value: -1}}},
		{Keys: bson.D{{Key: "sequence", Value: -1}}},
	})
	if err != nil {
		return err
	}
	_, err = db.Collection(nightsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "booking_id", Value: 1}},
	})
	return err
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Create inserts b and claims its nights. A duplicate night or a write conflict with
// a concurrent transaction is reported as ErrNightsClaimed.
func (r *BookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	seq, err := r.nextSequence(ctx)
	if err != nil {
		return err
	}
	b.Sequence = seq
	doc := newBookingDocument(b)
	doc.Version = 1
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateBooking
		}
		if isWriteConflict(err) {
			return domainbooking.ErrNightsClaimed
		}
		return err
	}
	if b.Blocking() {
		if err := r.claimNights(ctx, b); err != nil {
			if mongo.SessionFromContext(ctx) == nil {
				_, _ = r.nights.DeleteMany(ctx, bson.M{"booking_id": doc.ID})
				_, _ = r.col.DeleteOne(ctx, bson.M{"_id": doc.ID})
			}
			return err
		}
	}
	b.Version = doc.Version
	return nil
}

// nextSequence increments the booking counter outside the caller's transaction.
// Rolled back units leave gaps.
func (r *BookingRepository) nextSequence(ctx context.Context) (int64, error) {
	ctx, release := detach(ctx)
	defer release()
	var doc sequenceDocument
	err := r.seqs.FindOneAndUpdate(ctx,
		bson.M{"_id": bookingsCollection},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	return doc.Value, err
}

func (r *BookingRepository) claimNights(ctx context.Context, b *domainbooking.Booking) error {
	dates := b.Range.Dates()
	docs := make([]any, 0, len(dates))
	for _, night := range dates {
		docs = append(docs, nightDocument{
			ID:        nightKey(b.RoomID, night),
			RoomID:    string(b.RoomID),
			Night:     night,
			BookingID: string(b.ID),
		})
	}
	if _, err := r.nights.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) || isWriteConflict(err) {
			return errors.Join(domainbooking.ErrNightsClaimed, err)
		}
		return err
	}
	return nil
}

// Save writes b guarded by its version and releases the nights once b stops blocking.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	res, err := r.col.ReplaceOne(ctx, filter, doc)
	if err != nil {
		if isWriteConflict(err) {
			return domainbooking.ErrVersionConflict
		}
		return err
	}
	if res.MatchedCount == 0 {
		if _, lookupErr := r.ByID(ctx, b.ID); errors.Is(lookupErr, domainbooking.ErrBookingNotFound) {
			return domainbooking.ErrBookingNotFound
		}
		return domainbooking.ErrVersionConflict
	}
	if !b.Blocking() {
		if _, err := r.nights.DeleteMany(ctx, bson.M{"booking_id": doc.ID}); err != nil {
			return err
		}
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ActiveByRoom(ctx context.Context, roomID domainrooms.RoomID) ([]*domainbooking.Booking, error) {
	filter := bson.M{"room_id": string(roomID), "status": bson.M{"$in": blockingStatuses()}}
	opts := options.Find().SetSort(bson.D{{Key: "range.check_in", Value: 1}, {Key: "sequence", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sequence", Value: -1}})
	return r.find(ctx, bson.M{"guest_id": guestID}, opts)
}

func (r *BookingRepository) List(ctx context.Context, params domainbooking.ListParams) ([]*domainbooking.Booking, int, error) {
	filter := bson.M{}
	if params.RoomID != "" {
		filter["room_id"] = string(params.RoomID)
	}
	if params.Status != "" {
		filter["status"] = string(params.Status)
	}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "sequence", Value: -1}})
	if params.Offset > 0 {
		opts.SetSkip(int64(params.Offset))
	}
	if params.Limit > 0 {
		opts.SetLimit(int64(params.Limit))
	}
	items, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return items, int(total), nil
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainbooking.Booking, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func blockingStatuses() []string {
	return []string{string(availability.StatusPending), string(availability.StatusConfirmed)}
}

func nightKey(roomID domainrooms.RoomID, night time.Time) string {
	return string(roomID) + "|" + daterange.FormatDate(night)
}

type sequenceDocument struct {
	ID    string `bson:"_id"`
	Value int64  `bson:"value"`
}

type nightDocument struct {
	ID        string    `bson:"_id"`
	RoomID    string    `bson:"room_id"`
	Night     time.Time `bson:"night"`
	BookingID string    `bson:"booking_id"`
}

type rangeDocument struct {
	CheckIn  time.Time `bson:"check_in"`
	CheckOut time.Time `bson:"check_out"`
}

type quoteDocument struct {
	Nights         int           `bson:"nights"`
	Nightly        moneyDocument `bson:"nightly"`
	TaxRatePercent float64       `bson:"tax_rate_percent"`
	Subtotal       moneyDocument `bson:"subtotal"`
	Tax            moneyDocument `bson:"tax"`
	Total          moneyDocument `bson:"total"`
}

type bookingDocument struct {
	ID         string        `bson:"_id"`
	RoomID     string        `bson:"room_id"`
	GuestID    string        `bson:"guest_id"`
	GuestName  string        `bson:"guest_name"`
	GuestEmail string        `bson:"guest_email"`
	Range      rangeDocument `bson:"range"`
	Guests     int           `bson:"guests"`
	Quote      quoteDocument `bson:"quote"`
	Status     string        `bson:"status"`
	Sequence   int64         `bson:"sequence"`
	Notes      string        `bson:"notes"`
	CancelNote string        `bson:"cancel_note"`
	CreatedAt  time.Time     `bson:"created_at"`
	UpdatedAt  time.Time     `bson:"updated_at"`
	Version    int64         `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:         string(b.ID),
		RoomID:     string(b.RoomID),
		GuestID:    b.GuestID,
		GuestName:  b.GuestName,
		GuestEmail: b.GuestEmail,
		Range:      rangeDocument{CheckIn: b.Range.CheckIn.UTC(), CheckOut: b.Range.CheckOut.UTC()},
		Guests:     b.Guests,
		Quote: quoteDocument{
			Nights:         b.Quote.Nights,
			Nightly:        newMoneyDocument(b.Quote.Nightly),
			TaxRatePercent: b.Quote.TaxRatePercent,
			Subtotal:       newMoneyDocument(b.Quote.Subtotal),
			Tax:            newMoneyDocument(b.Quote.Tax),
			Total:          newMoneyDocument(b.Quote.Total),
		},
		Status:     string(b.Status),
		Sequence:   b.Sequence,
		Notes:      b.Notes,
		CancelNote: b.CancelNote,
		CreatedAt:  b.CreatedAt.UTC(),
		UpdatedAt:  b.UpdatedAt.UTC(),
		Version:    b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	dr := daterange.DateRange{CheckIn: d.Range.CheckIn.UTC(), CheckOut: d.Range.CheckOut.UTC()}
	return &domainbooking.Booking{
		ID:         domainbooking.BookingID(d.ID),
		RoomID:     domainrooms.RoomID(d.RoomID),
		GuestID:    d.GuestID,
		GuestName:  d.GuestName,
		GuestEmail: d.GuestEmail,
		Range:      dr,
		Guests:     d.Guests,
		Quote: pricing.Quote{
			Range:          dr,
			Nights:         d.Quote.Nights,
			Nightly:        d.Quote.Nightly.toMoney(),
			TaxRatePercent: d.Quote.TaxRatePercent,
			Subtotal:       d.Quote.Subtotal.toMoney(),
			Tax:            d.Quote.Tax.toMoney(),
			Total:          d.Quote.Total.toMoney(),
		},
		Status:     domainbooking.Status(d.Status),
		Sequence:   d.Sequence,
		Notes:      d.Notes,
		CancelNote: d.CancelNote,
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
		Version:    d.Version,
	}
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
