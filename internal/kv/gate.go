package kv

import (
	"context"

	"github.com/sirupsen/logrus"
)

// ErrorCode is the closed failure taxonomy for storage access. Every fault the
// gate observes is classified into exactly one of these values and carried as
// data; the underlying error never crosses the gate.
type ErrorCode int

const (
	// CodeNone marks a successful result.
	CodeNone ErrorCode = iota
	// CodeUnavailable means no store is configured at all.
	CodeUnavailable
	// CodeReadError means the store faulted while reading.
	CodeReadError
	// CodeWriteError means the store faulted on both write attempts.
	CodeWriteError
	// CodeNotFound means the store is healthy but the key is absent.
	CodeNotFound
)

func (c ErrorCode) String() string {
	switch c {
	case CodeNone:
		return "OK"
	case CodeUnavailable:
		return "KV_UNAVAILABLE"
	case CodeReadError:
		return "KV_READ_ERROR"
	case CodeWriteError:
		return "KV_WRITE_ERROR"
	case CodeNotFound:
		return "NOT_FOUND"
	default:
		return "UNKNOWN"
	}
}

// Result is the typed outcome of a gate operation.
type Result struct {
	OK      bool
	Code    ErrorCode
	Message string
}

func okResult() Result {
	return Result{OK: true, Code: CodeNone}
}

func failResult(code ErrorCode, message string) Result {
	return Result{OK: false, Code: code, Message: message}
}

// Gate wraps an eventually-available Store. All faults are converted to typed
// results; callers never see the store's own errors.
type Gate struct {
	store  Store
	logger *logrus.Logger
}

// NewGate constructs a gate around the provided store. A nil store is a valid
// configuration: every operation then reports KV_UNAVAILABLE.
func NewGate(store Store, logger *logrus.Logger) *Gate {
	return &Gate{store: store, logger: logger}
}

// Available reports whether a store handle is configured.
func (g *Gate) Available() bool {
	return g != nil && g.store != nil
}

// Get reads a key. Absence is a valid empty result (found false, OK true), not
// an error; any store fault is classified as KV_READ_ERROR and logged.
func (g *Gate) Get(ctx context.Context, key string) (string, bool, Result) {
	if !g.Available() {
		return "", false, failResult(CodeUnavailable, "storage is not configured")
	}

	value, found, err := g.store.Get(ctx, key)
	if err != nil {
		g.logFault(logrus.ErrorLevel, key, err, "storage read failed")
		return "", false, failResult(CodeReadError, "storage read failed")
	}

	return value, found, okResult()
}

// Put writes a key with at most two physical attempts: the initial write plus
// exactly one immediate retry with identical arguments. The first fault logs
// at warn, an exhausted retry at error.
func (g *Gate) Put(ctx context.Context, key, value string) Result {
	if !g.Available() {
		return failResult(CodeUnavailable, "storage is not configured")
	}

	err := g.store.Put(ctx, key, value)
	if err == nil {
		return okResult()
	}
	g.logFault(logrus.WarnLevel, key, err, "storage write failed, retrying once")

	if err := g.store.Put(ctx, key, value); err != nil {
		g.logFault(logrus.ErrorLevel, key, err, "storage write failed after retry")
		return failResult(CodeWriteError, "storage write failed")
	}

	return okResult()
}

func (g *Gate) logFault(level logrus.Level, key string, err error, message string) {
	if g.logger == nil {
		return
	}

	g.logger.WithFields(logrus.Fields{
		"key":   key,
		"error": err.Error(),
	}).Log(level, message)
}
