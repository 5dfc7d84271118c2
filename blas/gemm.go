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

package blas

import "github.com/juju/errors"

// Gemm computes the general matrix-matrix product
//
//	C = alpha op(A) op(B) + beta C,
//
// where op(A) is m-by-k, op(B) is k-by-n and C is m-by-n. A row-major call
// is forwarded to the column-major kernel as C^T = op(B)^T op(A)^T, i.e.
// with m <=> n, A <=> B and transA <=> transB swapped.
func Gemm[T Scalar](layout Layout, transA, transB Op, m, n, k int,
	alpha T, a []T, lda int, b []T, ldb int, beta T, c []T, ldc int) error {
	if err := CheckGemm(layout, transA, transB, m, n, k, lda, ldb, ldc); err != nil {
		return errors.Trace(err)
	}
	am, an := Extents(transA, m, k)
	bm, bn := Extents(transB, k, n)
	if err := firstError(
		checkLen("A", len(a), MinLen(layout, am, an, lda)),
		checkLen("B", len(b), MinLen(layout, bm, bn, ldb)),
		checkLen("C", len(c), MinLen(layout, m, n, ldc)),
	); err != nil {
		return errors.Trace(err)
	}

	// quick return
	if m == 0 || n == 0 {
		return nil
	}

	kernels := NativeFor[T]()
	if layout == RowMajor {
		// swap transA <=> transB, m <=> n, A <=> B
		return errors.Trace(kernels.Gemm(transB, transA, n, m, k, alpha, b, ldb, a, lda, beta, c, ldc))
	}
	return errors.Trace(kernels.Gemm(transA, transB, m, n, k, alpha, a, lda, b, ldb, beta, c, ldc))
}
