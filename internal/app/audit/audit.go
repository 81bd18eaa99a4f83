// Package audit projects published booking events into an append-only trail that
// back-office staff can browse.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"resortbook/internal/app/outbox"
)

var ErrMalformedEvent = errors.New("audit: malformed event")

type Entry struct {
	EventID    string         `json:"event_id"`
	Type       string         `json:"type"`
	BookingID  string         `json:"booking_id,omitempty"`
	RoomID     string         `json:"room_id,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	RecordedAt time.Time      `json:"recorded_at"`
	Data       map[string]any `json:"data"`
}

type ListParams struct {
	BookingID string
	RoomID    string
	Limit     int
	Offset    int
}

type Store interface {
	Append(ctx context.Context, entry Entry) error
	// List returns entries newest first plus the total match count.
	List(ctx context.Context, params ListParams) ([]Entry, int, error)
}

// Inbox deduplicates deliveries by event id.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

type Projector struct {
	Store  Store
	Inbox  Inbox
	Logger *slog.Logger
	Now    func() time.Time
}

// envelope mirrors the CloudEvents JSON the outbox worker publishes.
type envelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Time      time.Time       `json:"time"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

// Project handles one published message.
func (p *Projector) Project(ctx context.Context, payload []byte) error {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return errors.Join(ErrMalformedEvent, err)
	}
	if env.ID == "" || env.Type == "" {
		return ErrMalformedEvent
	}
	entry, err := newEntry(env.ID, strings.TrimSuffix(env.Type, ".v1"), env.RequestID, env.Time, env.Data)
	if err != nil {
		return err
	}
	return p.apply(ctx, entry)
}

// ProjectRecord handles an outbox record delivered in process.
func (p *Projector) ProjectRecord(ctx context.Context, rec outbox.EventRecord) error {
	entry, err := newEntry(rec.ID, rec.Name, rec.Headers["request_id"], rec.OccurredAt, rec.Payload)
	if err != nil {
		return err
	}
	return p.apply(ctx, entry)
}

func (p *Projector) apply(ctx context.Context, entry Entry) error {
	if !strings.HasPrefix(entry.Type, "booking.") {
		return nil
	}
	if p.Inbox != nil {
		seen, err := p.Inbox.Seen(ctx, entry.EventID)
		if err != nil {
			return err
		}
		if seen {
			p.log().Debug("audit event already recorded", "event_id", entry.EventID)
			return nil
		}
	}
	entry.RecordedAt = p.now()
	if err := p.Store.Append(ctx, entry); err != nil {
		if p.Inbox != nil {
			if forgetErr := p.Inbox.Forget(ctx, entry.EventID); forgetErr != nil {
				return errors.Join(err, forgetErr)
			}
		}
		return err
	}
	p.log().Info("audit event recorded", "event_id", entry.EventID, "type", entry.Type, "booking_id", entry.BookingID)
	return nil
}

func newEntry(id, eventType, requestID string, at time.Time, data []byte) (Entry, error) {
	fields := map[string]any{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &fields); err != nil {
			return Entry{}, errors.Join(ErrMalformedEvent, err)
		}
	}
	bookingID, _ := fields["booking_id"].(string)
	roomID, _ := fields["room_id"].(string)
	return Entry{
		EventID:    id,
		Type:       eventType,
		BookingID:  bookingID,
		RoomID:     roomID,
		RequestID:  requestID,
		OccurredAt: at.UTC(),
		Data:       fields,
	}, nil
}

func (p *Projector) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func (p *Projector) log() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
