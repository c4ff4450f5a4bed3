package analytics

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"launchpage/app/internal/kv"
)

type memStore struct {
	mu     sync.Mutex
	values map[string]string
	putErr error
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *memStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	if s.values == nil {
		s.values = map[string]string{}
	}
	s.values[key] = value
	return nil
}

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestRecordViewIncrementsCounter(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	recorder := NewRecorder(kv.NewGate(store, silentLogger()), silentLogger())

	recorder.RecordView("toko-budi")
	recorder.RecordView("toko-budi")
	recorder.Wait()

	value, found, err := store.Get(context.Background(), "clicks:toko-budi")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !found {
		t.Fatalf("expected counter to exist")
	}
	if value != "2" {
		t.Fatalf("expected counter value 2, got %q", value)
	}
}

func TestRecordViewResetsUnparseableCounter(t *testing.T) {
	t.Parallel()

	store := &memStore{values: map[string]string{"clicks:toko-budi": "garbage"}}
	recorder := NewRecorder(kv.NewGate(store, silentLogger()), silentLogger())

	recorder.RecordView("toko-budi")
	recorder.Wait()

	value, _, _ := store.Get(context.Background(), "clicks:toko-budi")
	if value != "1" {
		t.Fatalf("expected counter restart at 1, got %q", value)
	}
}

func TestRecordViewSwallowsWriteFailures(t *testing.T) {
	t.Parallel()

	store := &memStore{putErr: eris.New("store down")}
	recorder := NewRecorder(kv.NewGate(store, silentLogger()), silentLogger())

	// Must not panic or block; the failure is logged and dropped.
	recorder.RecordView("toko-budi")
	recorder.Wait()
}

func TestRecorderWithoutGateIsNoOp(t *testing.T) {
	t.Parallel()

	recorder := NewRecorder(nil, silentLogger())
	recorder.RecordView("toko-budi")
	recorder.Wait()
}
