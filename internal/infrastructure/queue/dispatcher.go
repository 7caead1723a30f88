package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/folio/portfolio-api/internal/api/metrics"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 256
	writeTimeout     = 5 * time.Second
)

// LastLoginWriter persists the time of an account's latest successful login.
type LastLoginWriter interface {
	TouchLastLogin(ctx context.Context, accountID int64, at time.Time) error
}

type loginEvent struct {
	accountID int64
	at        time.Time
}

// Dispatcher applies last-login updates off the request path. Updates for the
// same account always land on the same worker so they are applied in order.
type Dispatcher struct {
	workers []chan loginEvent
	store   LastLoginWriter
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers, each
// buffering up to queueSize updates. Non-positive values use defaults.
func NewDispatcher(numWorkers, queueSize int, store LastLoginWriter, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	d := &Dispatcher{
		workers: make([]chan loginEvent, numWorkers),
		store:   store,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan loginEvent, queueSize)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// RecordLogin implements ports.LoginRecorder. It never blocks: when the
// worker's buffer is full the update is dropped.
func (d *Dispatcher) RecordLogin(accountID int64, at time.Time) {
	idx := d.shardIndex(accountID)
	select {
	case d.workers[idx] <- loginEvent{accountID: accountID, at: at}:
		metrics.LoginEventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.LoginEventsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().Int64("account_id", accountID).Int("worker_id", idx).Msg("last-login queue full, update dropped")
	}
}

// shardIndex maps an account id deterministically to a worker index.
func (d *Dispatcher) shardIndex(accountID int64) int {
	h := fnv.New32a()
	_, _ = h.Write(strconv.AppendInt(nil, accountID, 10))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan loginEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			metrics.LoginEventsQueueDepth.WithLabelValues(label).Set(float64(len(ch)))

			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := d.store.TouchLastLogin(writeCtx, ev.accountID, ev.at)
			cancel()
			if err != nil {
				metrics.LoginEventsTotal.WithLabelValues("failed").Inc()
				d.log.Error().Err(err).
					Int64("account_id", ev.accountID).
					Int("worker_id", id).
					Msg("last-login update failed")
				continue
			}
			metrics.LoginEventsTotal.WithLabelValues("applied").Inc()
		}
	}
}
