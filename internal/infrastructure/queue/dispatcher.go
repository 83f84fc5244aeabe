// Package queue runs message synchronizer operations on a fixed set of
// workers so the interactive front end never blocks on the network.
package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/avachat/chat-widget/internal/core/domain"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("dispatcher closed")

// Kind names a synchronizer operation.
type Kind string

const (
	KindLoad   Kind = "load"
	KindSend   Kind = "send"
	KindEdit   Kind = "edit"
	KindDelete Kind = "delete"
)

// Operation is one queued synchronizer call. Done, when set, receives the
// outcome on the worker goroutine.
type Operation struct {
	Kind    Kind
	ID      int64
	Content string
	Done    func(error)
}

// Executor is the subset of the message synchronizer the dispatcher drives.
type Executor interface {
	Load(ctx context.Context) error
	Send(ctx context.Context, content string) ([]domain.Message, error)
	Edit(ctx context.Context, id int64, content string) (*domain.Message, error)
	Delete(ctx context.Context, id int64) (*domain.Message, error)
}

// Dispatcher routes operations to workers. Edits and deletes hash on the
// message id so operations on one message run in issue order; loads and sends
// are spread round-robin and may overlap.
type Dispatcher struct {
	workers []chan Operation
	exec    Executor
	log     zerolog.Logger

	next    atomic.Uint64
	pending sync.WaitGroup
	running sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a Dispatcher with numWorkers workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, exec Executor, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan Operation, numWorkers),
		exec:    exec,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan Operation, channelBuffer)
	}
	return d
}

// Start launches the workers. Operations run with ctx; once it is cancelled
// queued operations are settled with ctx.Err() without running.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.running.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands op to its worker. It blocks only while that worker's buffer
// is full.
func (d *Dispatcher) Enqueue(op Operation) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	d.pending.Add(1)
	d.workers[d.shardIndex(op)] <- op
	return nil
}

// Wait blocks until every enqueued operation has settled.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

// Close stops accepting operations, lets the workers finish the queued ones
// and waits for them to exit.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()
	d.running.Wait()
}

func (d *Dispatcher) shardIndex(op Operation) int {
	switch op.Kind {
	case KindEdit, KindDelete:
		h := fnv.New32a()
		_, _ = h.Write(strconv.AppendInt(nil, op.ID, 10))
		return int(h.Sum32() % uint32(len(d.workers)))
	default:
		return int(d.next.Add(1) % uint64(len(d.workers)))
	}
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan Operation) {
	defer d.running.Done()
	for op := range ch {
		d.settle(op, d.run(ctx, op), id)
	}
}

func (d *Dispatcher) run(ctx context.Context, op Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch op.Kind {
	case KindLoad:
		return d.exec.Load(ctx)
	case KindSend:
		_, err := d.exec.Send(ctx, op.Content)
		return err
	case KindEdit:
		_, err := d.exec.Edit(ctx, op.ID, op.Content)
		return err
	case KindDelete:
		_, err := d.exec.Delete(ctx, op.ID)
		return err
	default:
		return errors.New("unknown operation " + string(op.Kind))
	}
}

func (d *Dispatcher) settle(op Operation, err error, worker int) {
	defer d.pending.Done()
	if err != nil && !errors.Is(err, domain.ErrStaleSession) {
		d.log.Debug().Err(err).
			Str("kind", string(op.Kind)).
			Int64("message_id", op.ID).
			Int("worker_id", worker).
			Msg("operation failed")
	}
	if op.Done != nil {
		op.Done(err)
	}
}
