package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/tracking-service/internal/api/metrics"
	"github.com/99minutos/tracking-service/internal/core/domain"
	"github.com/99minutos/tracking-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// Dispatcher persists lookup audit records off the request path. Records are
// sharded on the skybill number so lookups of one parcel are written in order.
type Dispatcher struct {
	workers []chan domain.LookupRecord
	repo    ports.LookupRepository
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.LookupRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.LookupRecord, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.LookupRecord, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their queue and stop
// when ctx is cancelled; Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker started by Start has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Record enqueues rec for its shard. It never blocks: when the shard is full
// the record is dropped and counted.
func (d *Dispatcher) Record(rec domain.LookupRecord) {
	idx := d.shardIndex(rec.SkybillNumber)
	select {
	case d.workers[idx] <- rec:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.AuditDroppedTotal.Inc()
		d.log.Warn().
			Str("skybill_number", rec.SkybillNumber).
			Int("worker_id", idx).
			Msg("audit queue full, lookup record dropped")
	}
}

// shardIndex maps a skybill number deterministically to a worker index.
func (d *Dispatcher) shardIndex(skybillNumber string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(skybillNumber))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.LookupRecord) {
	defer d.wg.Done()
	depth := metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case rec := <-ch:
			depth.Set(float64(len(ch)))
			d.write(ctx, id, rec)
		}
	}
}

// drain writes what is still queued after shutdown, detached from the
// cancelled context.
func (d *Dispatcher) drain(id int, ch <-chan domain.LookupRecord) {
	for {
		select {
		case rec := <-ch:
			d.write(context.Background(), id, rec)
		default:
			return
		}
	}
}

func (d *Dispatcher) write(ctx context.Context, id int, rec domain.LookupRecord) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := d.repo.InsertLookup(ctx, &rec); err != nil {
		metrics.AuditErrorsTotal.Inc()
		d.log.Error().Err(err).
			Str("skybill_number", rec.SkybillNumber).
			Str("lookup_id", rec.ID).
			Int("worker_id", id).
			Msg("lookup audit write failed")
	}
}
