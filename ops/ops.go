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

// Package ops launches single routines on device queues.
package ops

import (
	"context"

	"github.com/gorse-io/blas/blas"
	"github.com/gorse-io/blas/counter"
	"github.com/gorse-io/blas/device"
	"github.com/juju/errors"
)

// fault turns an error raised while running against device memory into a
// kernel failure.
func fault(routine string, err error) error {
	if err == nil || blas.IsKernel(err) {
		return err
	}
	return errors.Annotatef(blas.ErrKernel, "%s: %v", routine, err)
}

// RunGemm computes C = alpha op(A) op(B) + beta C on device memory in the
// calling goroutine. Arguments must have passed blas.CheckGemm. Addresses
// that can't be resolved fail with blas.ErrKernel.
func RunGemm[T blas.Scalar](layout blas.Layout, transA, transB blas.Op, m, n, k int,
	alpha T, a device.Ptr[T], lda int, b device.Ptr[T], ldb int, beta T, c device.Ptr[T], ldc int) error {
	if m == 0 || n == 0 {
		return nil
	}
	da, err := a.Slice()
	if err != nil {
		return errors.Annotate(err, "A")
	}
	db, err := b.Slice()
	if err != nil {
		return errors.Annotate(err, "B")
	}
	dc, err := c.Slice()
	if err != nil {
		return errors.Annotate(err, "C")
	}
	return fault("gemm", blas.Gemm(layout, transA, transB, m, n, k, alpha, da, lda, db, ldb, beta, dc, ldc))
}

// RunSyrk computes the rank-k update of C on device memory in the calling
// goroutine. Arguments must have passed blas.CheckSyrk.
func RunSyrk[T blas.Scalar](layout blas.Layout, uplo blas.Uplo, trans blas.Op, n, k int,
	alpha T, a device.Ptr[T], lda int, beta T, c device.Ptr[T], ldc int) error {
	if n == 0 {
		return nil
	}
	da, err := a.Slice()
	if err != nil {
		return errors.Annotate(err, "A")
	}
	dc, err := c.Slice()
	if err != nil {
		return errors.Annotate(err, "C")
	}
	return fault("syrk", blas.Syrk(layout, uplo, trans, n, k, alpha, da, lda, beta, dc, ldc))
}

// Gemm computes C = alpha op(A) op(B) + beta C on q. Arguments are checked
// before the launch is enqueued; kernel failures are reported by q.Sync.
func Gemm[T blas.Scalar](q *device.Queue, layout blas.Layout, transA, transB blas.Op, m, n, k int,
	alpha T, a device.Ptr[T], lda int, b device.Ptr[T], ldb int, beta T, c device.Ptr[T], ldc int) error {
	if err := blas.CheckGemm(layout, transA, transB, m, n, k, lda, ldb, ldc); err != nil {
		return errors.Trace(err)
	}
	if m == 0 || n == 0 {
		return nil
	}
	q.Counter().Insert(counter.Gemm, counter.Shape{TransA: transA, TransB: transB, M: m, N: n, K: k}, 1)
	return errors.Trace(q.Enqueue(string(blas.TypeChar[T]())+"gemm", func(context.Context) error {
		return RunGemm(layout, transA, transB, m, n, k, alpha, a, lda, b, ldb, beta, c, ldc)
	}))
}

// Syrk computes the symmetric rank-k update of the uplo triangle of C on q.
func Syrk[T blas.Scalar](q *device.Queue, layout blas.Layout, uplo blas.Uplo, trans blas.Op, n, k int,
	alpha T, a device.Ptr[T], lda int, beta T, c device.Ptr[T], ldc int) error {
	if err := blas.CheckSyrk[T](layout, uplo, trans, n, k, lda, ldc); err != nil {
		return errors.Trace(err)
	}
	if n == 0 {
		return nil
	}
	q.Counter().Insert(counter.Syrk, counter.Shape{Uplo: uplo, TransA: trans, N: n, K: k}, 1)
	return errors.Trace(q.Enqueue(string(blas.TypeChar[T]())+"syrk", func(context.Context) error {
		return RunSyrk(layout, uplo, trans, n, k, alpha, a, lda, beta, c, ldc)
	}))
}
