package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resortbook/internal/app/reqctx"
	"resortbook/internal/domain/shared/events"
)

type sampleEvent struct {
	BookingID string    `json:"booking_id"`
	At        time.Time `json:"at"`
}

func (e sampleEvent) EventName() string     { return "booking.sample" }
func (e sampleEvent) AggregateID() string   { return e.BookingID }
func (e sampleEvent) OccurredAt() time.Time { return e.At }

type aggregate struct {
	events.EventRecorder
}

type sliceOutbox struct {
	records []EventRecord
}

func (o *sliceOutbox) Add(_ context.Context, rec EventRecord) error {
	o.records = append(o.records, rec)
	return nil
}

func (o *sliceOutbox) Flush(context.Context) error { return nil }

func TestJSONEventEncoder(t *testing.T) {
	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.FixedZone("EEST", 3*3600))
	rec, err := JSONEventEncoder{IDGenerator: func() string { return "ev-1" }}.Encode(sampleEvent{BookingID: "bk-1", At: at})
	require.NoError(t, err)

	assert.Equal(t, "ev-1", rec.ID)
	assert.Equal(t, "booking.sample", rec.Name)
	assert.Equal(t, "bk-1", rec.Aggregate)
	assert.Equal(t, time.UTC, rec.OccurredAt.Location())
	assert.JSONEq(t, `{"booking_id":"bk-1","at":"2025-06-01T09:00:00+03:00"}`, string(rec.Payload))
	assert.NotNil(t, rec.Headers)
}

func TestRecordFrom_DrainsAndTagsRequest(t *testing.T) {
	agg := &aggregate{}
	agg.Record(sampleEvent{BookingID: "bk-1"})
	agg.Record(sampleEvent{BookingID: "bk-2"})
	box := &sliceOutbox{}
	ctx := reqctx.WithRequestID(context.Background(), "req-1")

	require.NoError(t, RecordFrom(ctx, box, nil, agg))

	require.Len(t, box.records, 2)
	assert.Equal(t, "req-1", box.records[0].Headers["request_id"])
	assert.NotEmpty(t, box.records[0].ID)
	assert.NotEqual(t, box.records[0].ID, box.records[1].ID)
	assert.Empty(t, agg.PendingEvents())
}

func TestRecordDomainEvents_NilOutbox(t *testing.T) {
	assert.NoError(t, RecordDomainEvents(context.Background(), nil, nil, []events.DomainEvent{sampleEvent{}}))
}
