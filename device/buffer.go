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
	"unsafe"

	"github.com/gorse-io/blas/blas"
	"github.com/juju/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Buffer is a block of device memory holding elements of type T.
type Buffer[T blas.Scalar] struct {
	dev   *Device
	data  []T
	freed atomic.Bool
}

// Malloc allocates count elements on dev. The memory is zeroed.
func Malloc[T blas.Scalar](dev *Device, count int) (*Buffer[T], error) {
	if count < 0 {
		return nil, errors.NotValidf("count %d", count)
	}
	var zero T
	bytes := int64(count) * int64(unsafe.Sizeof(zero))
	if err := dev.reserve(bytes); err != nil {
		dev.logger.Error("failed to allocate device memory", zap.Int("count", count), zap.Error(err))
		return nil, errors.Trace(err)
	}
	return &Buffer[T]{dev: dev, data: make([]T, count)}, nil
}

// Free returns the memory to the device. Freeing twice is an error.
func (b *Buffer[T]) Free() error {
	if b.freed.Swap(true) {
		return errors.NotValidf("double free of %d elements", len(b.data))
	}
	var zero T
	b.dev.release(int64(len(b.data)) * int64(unsafe.Sizeof(zero)))
	b.data = nil
	return nil
}

// Len returns the element count of the buffer.
func (b *Buffer[T]) Len() int {
	return len(b.data)
}

func (b *Buffer[T]) Device() *Device {
	return b.dev
}

// Ptr returns the address of the first element.
func (b *Buffer[T]) Ptr() Ptr[T] {
	return Ptr[T]{buf: b}
}

// Ptr is a device address: a buffer and an element offset into it. The zero
// value is the nil address.
type Ptr[T blas.Scalar] struct {
	buf *Buffer[T]
	off int
}

// Add returns the address n elements further.
func (p Ptr[T]) Add(n int) Ptr[T] {
	return Ptr[T]{buf: p.buf, off: p.off + n}
}

func (p Ptr[T]) Offset() int {
	return p.off
}

func (p Ptr[T]) Buffer() *Buffer[T] {
	return p.buf
}

func (p Ptr[T]) IsNil() bool {
	return p.buf == nil
}

// Slice resolves the address to the memory from it to the end of its buffer.
// Resolving a nil, freed or out of range address is a kernel fault.
func (p Ptr[T]) Slice() ([]T, error) {
	if p.buf == nil {
		return nil, errors.Annotate(blas.ErrKernel, "nil device address")
	}
	if p.buf.freed.Load() {
		return nil, errors.Annotate(blas.ErrKernel, "device address in freed buffer")
	}
	if p.off < 0 || p.off > len(p.buf.data) {
		return nil, errors.Annotatef(blas.ErrKernel, "device address %d out of range [0, %d]", p.off, len(p.buf.data))
	}
	return p.buf.data[p.off:], nil
}

// available reports the number of elements from p to the end of its buffer,
// or -1 if the address can't be resolved.
func (p Ptr[T]) available() int {
	if p.buf == nil || p.buf.freed.Load() || p.off < 0 || p.off > len(p.buf.data) {
		return -1
	}
	return len(p.buf.data) - p.off
}

func checkCopy(rows, cols, ldSrc, ldDst int) error {
	switch {
	case rows < 0:
		return errors.NotValidf("rows %d", rows)
	case cols < 0:
		return errors.NotValidf("cols %d", cols)
	case ldSrc < max(1, rows):
		return errors.NotValidf("source leading dimension %d (must be at least %d)", ldSrc, max(1, rows))
	case ldDst < max(1, rows):
		return errors.NotValidf("destination leading dimension %d (must be at least %d)", ldDst, max(1, rows))
	}
	return nil
}

// matrixLen is the elements a column-major rows-by-cols matrix spans.
func matrixLen(rows, cols, ld int) int {
	if rows == 0 || cols == 0 {
		return 0
	}
	return (cols-1)*ld + rows
}

func copyMatrix[T blas.Scalar](rows, cols int, src []T, ldSrc int, dst []T, ldDst int) {
	for j := 0; j < cols; j++ {
		copy(dst[j*ldDst:j*ldDst+rows], src[j*ldSrc:j*ldSrc+rows])
	}
}

// SetMatrix copies a column-major rows-by-cols host matrix to device memory.
// The copy runs on q and is complete after q.Sync.
func SetMatrix[T blas.Scalar](rows, cols int, src []T, ldSrc int, dst Ptr[T], ldDst int, q *Queue) error {
	if err := checkCopy(rows, cols, ldSrc, ldDst); err != nil {
		return errors.Trace(err)
	}
	n := matrixLen(rows, cols, ldSrc)
	if len(src) < n {
		return errors.NotValidf("len(src) = %d (must be at least %d)", len(src), n)
	}
	if m := matrixLen(rows, cols, ldDst); m > 0 && dst.available() < m {
		return errors.NotValidf("device destination holds %d elements (must be at least %d)", dst.available(), m)
	}
	if rows == 0 || cols == 0 {
		return nil
	}
	// the host slice may be reused by the caller before the queue runs
	staged := make([]T, n)
	copy(staged, src)
	return errors.Trace(q.Enqueue("setmatrix", func(context.Context) error {
		data, err := dst.Slice()
		if err != nil {
			return errors.Trace(err)
		}
		copyMatrix(rows, cols, staged, ldSrc, data, ldDst)
		return nil
	}))
}

// GetMatrix copies a column-major rows-by-cols device matrix to host memory.
// The copy runs on q and dst holds the result after q.Sync.
func GetMatrix[T blas.Scalar](rows, cols int, src Ptr[T], ldSrc int, dst []T, ldDst int, q *Queue) error {
	if err := checkCopy(rows, cols, ldSrc, ldDst); err != nil {
		return errors.Trace(err)
	}
	if n := matrixLen(rows, cols, ldSrc); n > 0 && src.available() < n {
		return errors.NotValidf("device source holds %d elements (must be at least %d)", src.available(), n)
	}
	if n := matrixLen(rows, cols, ldDst); len(dst) < n {
		return errors.NotValidf("len(dst) = %d (must be at least %d)", len(dst), n)
	}
	if rows == 0 || cols == 0 {
		return nil
	}
	return errors.Trace(q.Enqueue("getmatrix", func(context.Context) error {
		data, err := src.Slice()
		if err != nil {
			return errors.Trace(err)
		}
		copyMatrix(rows, cols, data, ldSrc, dst, ldDst)
		return nil
	}))
}
