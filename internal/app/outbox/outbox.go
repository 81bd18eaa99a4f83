package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"resortbook/internal/app/reqctx"
	"resortbook/internal/domain/shared/events"
)

type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

// Outbox buffers encoded domain events until the surrounding command completes.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	return EventRecord{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt().UTC(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{},
	}, nil
}

// Recorder is implemented by aggregates embedding events.EventRecorder.
type Recorder interface {
	Drain() []events.DomainEvent
}

// RecordDomainEvents encodes and appends evs to box. A nil box drops them.
func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if requestID := reqctx.RequestID(ctx); requestID != "" {
			rec.Headers["request_id"] = requestID
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordFrom drains the pending events of each recorder into box.
func RecordFrom(ctx context.Context, box Outbox, encoder EventEncoder, recorders ...Recorder) error {
	for _, r := range recorders {
		if err := RecordDomainEvents(ctx, box, encoder, r.Drain()); err != nil {
			return err
		}
	}
	return nil
}
