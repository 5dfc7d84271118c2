// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package device

import (
	"context"
	"sync"

	"github.com/gorse-io/blas/counter"
	"github.com/juju/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const tracerName = "github.com/gorse-io/blas/device"

type task struct {
	name string
	fn   func(ctx context.Context) error
}

// Queue runs tasks on a device one at a time in submission order. A Queue has
// a single producer: Enqueue, Sync and Close must not be called concurrently.
type Queue struct {
	dev       *Device
	mu        sync.Mutex
	tasks     []task
	wake      chan struct{}
	done      chan struct{}
	pending   sync.WaitGroup
	err       error
	closed    atomic.Bool
	tracer    trace.Tracer
	counter   counter.Counter
	workspace []int
}

type queueOptions struct {
	tracerProvider trace.TracerProvider
	counter        counter.Counter
}

// QueueOption configures NewQueue.
type QueueOption func(*queueOptions)

// WithTracerProvider sets the provider of the task spans.
func WithTracerProvider(tp trace.TracerProvider) QueueOption {
	return func(o *queueOptions) {
		o.tracerProvider = tp
	}
}

// WithCounter sets the counter routines launched on the queue record into.
func WithCounter(c counter.Counter) QueueOption {
	return func(o *queueOptions) {
		o.counter = c
	}
}

// NewQueue creates a queue on dev with a workspace sized for batchHint items.
func NewQueue(dev *Device, batchHint int, opts ...QueueOption) (*Queue, error) {
	if dev == nil {
		return nil, errors.NotValidf("nil device")
	}
	if batchHint < 0 {
		return nil, errors.NotValidf("batch hint %d", batchHint)
	}
	o := queueOptions{
		tracerProvider: otel.GetTracerProvider(),
		counter:        counter.Noop{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	q := &Queue{
		dev:       dev,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		tracer:    o.tracerProvider.Tracer(tracerName),
		counter:   o.counter,
		workspace: make([]int, batchHint),
	}
	go q.loop()
	return q, nil
}

func (q *Queue) loop() {
	defer close(q.done)
	for range q.wake {
		for {
			q.mu.Lock()
			tasks := q.tasks
			q.tasks = nil
			q.mu.Unlock()
			if len(tasks) == 0 {
				break
			}
			for _, t := range tasks {
				q.execute(t)
			}
		}
	}
}

func (q *Queue) execute(t task) {
	defer q.pending.Done()
	ctx, span := q.tracer.Start(context.Background(), t.name,
		trace.WithAttributes(attribute.Int("device", q.dev.id)))
	defer span.End()
	if err := q.call(ctx, t); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		q.dev.logger.Debug("queue task failed", zap.String("task", t.name), zap.Error(err))
		q.mu.Lock()
		if q.err == nil {
			q.err = err
		}
		q.mu.Unlock()
	}
}

func (q *Queue) call(ctx context.Context, t task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("%s panicked: %v", t.name, r)
		}
	}()
	return t.fn(ctx)
}

// Enqueue submits fn and returns without waiting for earlier tasks. The
// pending list is unbounded. Errors returned by fn are reported by the next
// Sync.
func (q *Queue) Enqueue(name string, fn func(ctx context.Context) error) error {
	if q.closed.Load() {
		return errors.NotValidf("enqueue %s on closed queue", name)
	}
	q.pending.Add(1)
	q.mu.Lock()
	q.tasks = append(q.tasks, task{name: name, fn: fn})
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
		// the executor is already signaled
	}
	return nil
}

// Sync waits for every task enqueued so far and returns the first error they
// raised since the previous Sync.
func (q *Queue) Sync() error {
	q.pending.Wait()
	q.mu.Lock()
	defer q.mu.Unlock()
	err := q.err
	q.err = nil
	return err
}

// Close syncs the queue and stops its executor.
func (q *Queue) Close() error {
	if q.closed.Swap(true) {
		return nil
	}
	err := q.Sync()
	close(q.wake)
	<-q.done
	return err
}

func (q *Queue) Device() *Device {
	return q.dev
}

func (q *Queue) Counter() counter.Counter {
	return q.counter
}

// Workspace returns scratch space of n ints for the calling producer. It is
// reused by the next call and must not be captured by an enqueued task.
func (q *Queue) Workspace(n int) []int {
	if n > len(q.workspace) {
		q.dev.logger.Debug("grow queue workspace", zap.Int("from", len(q.workspace)), zap.Int("to", n))
		q.workspace = make([]int, n)
	}
	return q.workspace[:n]
}
