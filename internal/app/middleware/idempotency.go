package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"time"

	"tinyhouse/internal/app/commands"
)

// IdempotentCommand must be implemented by commands that want idempotency guarantees.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any // should match the handler result type
}

type IdempotencyRecord struct {
	Key        string
	Payload    []byte
	Error      string
	ErrorCode  string
	Details    map[string]string
	OccurredAt time.Time
}

// ReplayDetailer is implemented by failures whose identifiers must survive a replay,
// such as the booking and charge ids of an inconsistent booking.
type ReplayDetailer interface {
	ReplayDetails() map[string]string
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

// ErrorPolicy selects which failures are remembered under an idempotency key.
// With an empty Remember map every failure is stored and replayed as a plain error.
// Otherwise only failures matching one of the sentinels are stored; the replayed
// error still matches that sentinel with errors.Is.
type ErrorPolicy struct {
	Remember map[string]error
}

func (p ErrorPolicy) classify(err error) (string, bool) {
	if len(p.Remember) == 0 {
		return "", true
	}
	for code, sentinel := range p.Remember {
		if errors.Is(err, sentinel) {
			return code, true
		}
	}
	return "", false
}

func (p ErrorPolicy) replay(rec IdempotencyRecord) error {
	if sentinel, ok := p.Remember[rec.ErrorCode]; ok {
		return &ReplayedError{Message: rec.Error, Err: sentinel, Details: rec.Details}
	}
	return &ReplayedError{Message: rec.Error, Details: rec.Details}
}

// ReplayedError is a failure returned from the idempotency store instead of the handler.
// Details carries what the original failure reported through ReplayDetailer.
type ReplayedError struct {
	Message string
	Err     error
	Details map[string]string
}

func (e *ReplayedError) Error() string { return e.Message }

func (e *ReplayedError) Unwrap() error { return e.Err }

func (e *ReplayedError) ReplayDetails() map[string]string { return e.Details }

var (
	errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")
)

func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	return IdempotencyWithPolicy(store, codec, ErrorPolicy{}, nil)
}

// IdempotencyWithPolicy replays stored outcomes by key. Once the handler has run, its
// outcome is returned even when storing it fails: the store error is only logged,
// since the command's side effects (a captured charge) already happened.
func IdempotencyWithPolicy(store IdempotencyStore, codec ResultCodec, policy ErrorPolicy, logger *slog.Logger) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := next.Dispatch
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok {
				return nextFn(ctx, cmd)
			}
			key := idCmd.IdempotencyKey()
			if key == "" {
				return nextFn(ctx, cmd)
			}
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found {
				if rec.Error != "" {
					return nil, policy.replay(rec)
				}
				proto := idCmd.ResultPrototype()
				if proto == nil {
					return nil, errMissingPrototype
				}
				if err := codec.Decode(rec.Payload, proto); err != nil {
					return nil, err
				}
				return normalizePrototype(proto), nil
			}
			result, err := nextFn(ctx, cmd)
			record := IdempotencyRecord{
				Key:        key,
				OccurredAt: time.Now().UTC(),
			}
			// the handler may have outlived a cancelled request; the outcome must still be stored
			saveCtx := context.WithoutCancel(ctx)
			if err != nil {
				code, remember := policy.classify(err)
				if !remember {
					return nil, err
				}
				record.Error = err.Error()
				record.ErrorCode = code
				var detailer ReplayDetailer
				if errors.As(err, &detailer) {
					record.Details = detailer.ReplayDetails()
				}
				if saveErr := store.Save(saveCtx, record); saveErr != nil {
					logSaveFailure(ctx, logger, cmd, key, saveErr)
				}
				return nil, err
			}
			if result != nil {
				payload, encErr := codec.Encode(result)
				if encErr != nil {
					logSaveFailure(ctx, logger, cmd, key, encErr)
					return result, nil
				}
				record.Payload = payload
			}
			if saveErr := store.Save(saveCtx, record); saveErr != nil {
				logSaveFailure(ctx, logger, cmd, key, saveErr)
			}
			return result, nil
		})
	}
}

func logSaveFailure(ctx context.Context, logger *slog.Logger, cmd commands.Command, key string, err error) {
	if logger == nil {
		return
	}
	logger.ErrorContext(ctx, "idempotency record not stored", "command", cmd.Key(), "idempotency_key", key, "error", err)
}

func normalizePrototype(proto any) any {
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface()
	}
	return proto
}
