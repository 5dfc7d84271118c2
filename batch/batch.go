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

// Package batch runs many independent small routines with one call.
//
// Every per-item parameter is a slice holding either one value, broadcast to
// every item, or exactly one value per item. Items with the same shape are
// grouped, and each group is one launch on the queue. Groups are launched in
// the order of their first item.
package batch

import (
	"context"
	"fmt"

	"github.com/gorse-io/blas/blas"
	"github.com/gorse-io/blas/common/parallel"
	"github.com/gorse-io/blas/device"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Item status codes written to the info vector.
const (
	StatusOK            int64 = 0
	StatusKernelFailure int64 = 1
)

// ItemError is the failure of a batched call run without an info vector. It
// carries the first failing item; items of the groups after it were skipped.
type ItemError struct {
	Routine string
	Index   int
	Err     error
	Skipped int
}

func (e *ItemError) Error() string {
	msg := fmt.Sprintf("%s: item %d: %v", e.Routine, e.Index, e.Err)
	if e.Skipped > 0 {
		msg += fmt.Sprintf(" (%d items in later groups skipped)", e.Skipped)
	}
	return msg
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// param checks a per-item slice and returns its accessor.
func param[V any](name string, values []V, batchCount int) (func(int) V, error) {
	switch len(values) {
	case 1:
		v := values[0]
		return func(int) V { return v }, nil
	case batchCount:
		return func(i int) V { return values[i] }, nil
	default:
		return nil, errors.NotValidf("len(%s) = %d (must be 1 or %d)", name, len(values), batchCount)
	}
}

// items checks a one value per item slice.
func items[V any](name string, values []V, batchCount int) error {
	if len(values) != batchCount {
		return errors.NotValidf("len(%s) = %d (must be %d)", name, len(values), batchCount)
	}
	return nil
}

func checkInfo(info []int64, batchCount int) error {
	if len(info) != 0 && len(info) != batchCount {
		return errors.NotValidf("len(info) = %d (must be 0 or %d)", len(info), batchCount)
	}
	return nil
}

// group partitions [0, batchCount) by key. Groups are ordered by their first
// item and items keep their order inside a group.
func group[K comparable](q *device.Queue, batchCount int, key func(int) K) [][]int {
	ids := q.Workspace(batchCount)
	index := make(map[K]int)
	var sizes []int
	for i := 0; i < batchCount; i++ {
		k := key(i)
		id, ok := index[k]
		if !ok {
			id = len(sizes)
			index[k] = id
			sizes = append(sizes, 0)
		}
		ids[i] = id
		sizes[id]++
	}
	groups := make([][]int, len(sizes))
	for id, size := range sizes {
		groups[id] = make([]int, 0, size)
	}
	for i := 0; i < batchCount; i++ {
		groups[ids[i]] = append(groups[ids[i]], i)
	}
	return groups
}

// call is the state shared by the launches of one batched call.
type call struct {
	routine string
	info    []int64
	failure *ItemError
	// record counts a group once its launch is enqueued.
	record func(members []int)
}

// dispatch enqueues one launch per group. run computes a single item.
func dispatch(q *device.Queue, c *call, groups [][]int, run func(item int) error) error {
	for g, members := range groups {
		rest := 0
		for _, later := range groups[g+1:] {
			rest += len(later)
		}
		if err := q.Enqueue(c.routine, func(ctx context.Context) error {
			return c.launch(ctx, q, members, rest, run)
		}); err != nil {
			return errors.Trace(err)
		}
		if c.record != nil {
			c.record(members)
		}
	}
	return nil
}

func safeRun(run func(int) error, item int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Annotatef(blas.ErrKernel, "item %d panicked: %v", item, r)
		}
	}()
	return run(item)
}

func (c *call) launch(ctx context.Context, q *device.Queue, members []int, rest int, run func(int) error) error {
	if c.failure != nil {
		// an earlier group of this call failed
		return nil
	}
	if c.info != nil {
		_ = parallel.Parallel(ctx, len(members), q.Device().Workers(), func(_, job int) error {
			item := members[job]
			if err := safeRun(run, item); err != nil {
				q.Device().Logger().Debug("batch item failed",
					zap.String("routine", c.routine), zap.Int("item", item), zap.Error(err))
				c.info[item] = StatusKernelFailure
			} else {
				c.info[item] = StatusOK
			}
			return nil
		})
		return nil
	}
	errs := make([]error, len(members))
	_ = parallel.Parallel(ctx, len(members), q.Device().Workers(), func(_, job int) error {
		errs[job] = safeRun(run, members[job])
		return errs[job]
	})
	for job, err := range errs {
		if err != nil {
			c.failure = &ItemError{Routine: c.routine, Index: members[job], Err: err, Skipped: rest}
			q.Device().Logger().Error("batch launch failed", zap.Error(c.failure))
			return c.failure
		}
	}
	return nil
}
