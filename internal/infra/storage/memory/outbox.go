package memory

import (
	"context"
	"errors"
	"sync"

	appoutbox "resortbook/internal/app/outbox"
	"resortbook/internal/app/uow"
)

// Sink receives flushed records in process, e.g. the audit projector when no broker
// is configured.
type Sink func(ctx context.Context, record appoutbox.EventRecord) error

// Outbox keeps records until Flush hands them to the sinks. A record added under a
// memory unit of work is buffered only when that unit commits.
type Outbox struct {
	mu      sync.Mutex
	records []appoutbox.EventRecord
	sinks   []Sink
}

func NewOutbox(sinks ...Sink) *Outbox {
	return &Outbox{sinks: sinks}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if unit, ok := uow.FromContext(ctx); ok {
		if staged, ok := unit.(*Unit); ok {
			return staged.stage(func(context.Context) error {
				o.buffer(record)
				return nil
			})
		}
	}
	o.buffer(record)
	return nil
}

func (o *Outbox) buffer(record appoutbox.EventRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
}

// Flush delivers buffered records to every sink. Sink errors are joined; the records
// are dropped either way.
func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	records := o.records
	o.records = nil
	o.mu.Unlock()

	var errs []error
	for _, rec := range records {
		for _, sink := range o.sinks {
			if err := sink(ctx, rec); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Pending returns a copy of the buffered records.
func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.records...)
}

var _ appoutbox.Outbox = (*Outbox)(nil)
