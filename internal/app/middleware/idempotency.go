package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"time"

	"resortbook/internal/app/commands"
	"resortbook/internal/app/reqctx"
)

// IdempotentCommand is implemented by commands carrying a client Idempotency-Key.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any // pointer to the handler result type
}

type IdempotencyRecord struct {
	Key        string
	Payload    []byte
	OccurredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

// Idempotency replays the stored result of a previously successful command with the
// same key. Keys are scoped per caller and command. Failed commands are not stored,
// so the client may retry them with the same key. A zero ttl keeps records forever.
// The command has committed by the time its result is recorded, so a failure to
// record it is logged and the result still returned.
func Idempotency(store IdempotencyStore, codec ResultCodec, ttl time.Duration, logger *slog.Logger) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok || idCmd.IdempotencyKey() == "" {
				return nextFn(ctx, cmd)
			}
			key := scopedKey(ctx, idCmd)
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found && (ttl <= 0 || time.Since(rec.OccurredAt) < ttl) {
				proto := idCmd.ResultPrototype()
				if proto == nil {
					return nil, errMissingPrototype
				}
				if err := codec.Decode(rec.Payload, proto); err != nil {
					return nil, err
				}
				return derefPrototype(proto), nil
			}
			result, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			record := IdempotencyRecord{Key: key, OccurredAt: time.Now().UTC()}
			if result != nil {
				if record.Payload, err = codec.Encode(result); err != nil {
					logRecordFailure(ctx, logger, cmd, err)
					return result, nil
				}
			}
			if err := store.Save(ctx, record); err != nil {
				logRecordFailure(ctx, logger, cmd, err)
			}
			return result, nil
		})
	}
}

func logRecordFailure(ctx context.Context, logger *slog.Logger, cmd commands.Command, err error) {
	if logger != nil {
		logger.Error("idempotency record not stored", "key", cmd.Key(), "request_id", reqctx.RequestID(ctx), "error", err)
	}
}

func scopedKey(ctx context.Context, cmd IdempotentCommand) string {
	owner := "anonymous"
	if p, ok := reqctx.PrincipalFrom(ctx); ok {
		owner = p.ID
	}
	return owner + ":" + cmd.Key() + ":" + cmd.IdempotencyKey()
}

// derefPrototype returns the pointed-to value so replays match handlers that return
// values rather than pointers.
func derefPrototype(proto any) any {
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Elem().Interface()
	}
	return proto
}
