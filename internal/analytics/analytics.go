// Package analytics records page-view and deploy counters without ever
// touching the response path: every write happens on its own goroutine and
// failures are logged, never returned.
package analytics

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"launchpage/app/internal/kv"
)

const writeTimeout = 5 * time.Second

// Recorder increments counters through the storage gate.
type Recorder struct {
	gate   *kv.Gate
	logger *logrus.Logger
	wg     sync.WaitGroup
}

// NewRecorder constructs a recorder over the provided gate.
func NewRecorder(gate *kv.Gate, logger *logrus.Logger) *Recorder {
	return &Recorder{gate: gate, logger: logger}
}

// RecordView bumps the click counter for a slug. It returns immediately; the
// write runs detached from the calling request.
func (r *Recorder) RecordView(slug string) {
	r.dispatch(kv.ClicksKey(slug))
}

// RecordDeploy bumps the publish counter for a slug.
func (r *Recorder) RecordDeploy(slug string) {
	r.dispatch(kv.DeploysKey(slug))
}

// dispatch runs the read-increment-write cycle on its own goroutine with a
// fresh context, so a cancelled request never aborts the counter write.
func (r *Recorder) dispatch(key string) {
	if r == nil || r.gate == nil {
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		r.increment(ctx, key)
	}()
}

func (r *Recorder) increment(ctx context.Context, key string) {
	value, found, res := r.gate.Get(ctx, key)
	if !res.OK {
		r.logDrop(key, res)
		return
	}

	count := int64(0)
	if found {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			count = parsed
		}
	}

	if put := r.gate.Put(ctx, key, strconv.FormatInt(count+1, 10)); !put.OK {
		r.logDrop(key, put)
	}
}

// Wait blocks until in-flight counter writes finish. Used by tests and
// graceful shutdown; request handlers never call it.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

func (r *Recorder) logDrop(key string, res kv.Result) {
	if r.logger == nil {
		return
	}

	r.logger.WithFields(logrus.Fields{
		"key":  key,
		"code": res.Code.String(),
	}).Warn("analytics write dropped")
}
