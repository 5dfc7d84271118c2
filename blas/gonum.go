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

import (
	gblas "gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/gonum"
)

// The gonum kernels are row-major. A column-major matrix read as row-major is
// its transpose, so every routine below is called on the transposed problem:
//   gemm: C^T = op(B)^T op(A)^T, swap m <=> n and A <=> B
//   syrk, herk: swap upper <=> lower, A => A^T (A^H for herk)
//   ger: A^T = y x^T, swap m <=> n and x <=> y

var impl gonum.Implementation

func gonumOp(op Op) gblas.Transpose {
	switch op {
	case NoTrans:
		return gblas.NoTrans
	case Trans:
		return gblas.Trans
	case ConjTrans:
		return gblas.ConjTrans
	default:
		return 0
	}
}

func gonumUplo(uplo Uplo) gblas.Uplo {
	switch uplo {
	case Upper:
		return gblas.Upper
	case Lower:
		return gblas.Lower
	default:
		return 0
	}
}

// symOp transposes the operation of a symmetric rank-k update.
func symOp(trans Op, complex bool) gblas.Transpose {
	switch trans {
	case NoTrans:
		return gblas.Trans
	case Trans:
		return gblas.NoTrans
	case ConjTrans:
		if complex {
			// illegal for complex syrk, left for the kernel to reject
			return gblas.ConjTrans
		}
		return gblas.NoTrans
	default:
		return 0
	}
}

// herOp transposes the operation of a Hermitian rank-k update.
func herOp(trans Op) gblas.Transpose {
	switch trans {
	case NoTrans:
		return gblas.ConjTrans
	case ConjTrans:
		return gblas.NoTrans
	default:
		return gonumOp(trans)
	}
}

// conjVector copies the n elements of y, conjugated, into a unit-stride vector.
func conjVector[T Scalar](n int, y []T, incy int) []T {
	out := make([]T, n)
	for i := 0; i < n; i++ {
		if incy > 0 {
			out[i] = Conj(y[i*incy])
		} else {
			out[i] = Conj(y[(n-1-i)*(-incy)])
		}
	}
	return out
}

type gonumFloat32 struct{}

func (gonumFloat32) Gemm(transA, transB Op, m, n, k int, alpha float32, a []float32, lda int, b []float32, ldb int, beta float32, c []float32, ldc int) (err error) {
	defer recoverKernel("sgemm", &err)
	impl.Sgemm(gonumOp(transB), gonumOp(transA), n, m, k, alpha, b, ldb, a, lda, beta, c, ldc)
	return
}

func (gonumFloat32) Syrk(uplo Uplo, trans Op, n, k int, alpha float32, a []float32, lda int, beta float32, c []float32, ldc int) (err error) {
	defer recoverKernel("ssyrk", &err)
	impl.Ssyrk(gonumUplo(uplo.Flip()), symOp(trans, false), n, k, alpha, a, lda, beta, c, ldc)
	return
}

func (g gonumFloat32) Herk(uplo Uplo, trans Op, n, k int, alpha float64, a []float32, lda int, beta float64, c []float32, ldc int) error {
	return g.Syrk(uplo, trans, n, k, float32(alpha), a, lda, float32(beta), c, ldc)
}

func (gonumFloat32) Geru(m, n int, alpha float32, x []float32, incx int, y []float32, incy int, a []float32, lda int) (err error) {
	defer recoverKernel("sger", &err)
	impl.Sger(n, m, alpha, y, incy, x, incx, a, lda)
	return
}

func (g gonumFloat32) Gerc(m, n int, alpha float32, x []float32, incx int, y []float32, incy int, a []float32, lda int) error {
	return g.Geru(m, n, alpha, x, incx, y, incy, a, lda)
}

type gonumFloat64 struct{}

func (gonumFloat64) Gemm(transA, transB Op, m, n, k int, alpha float64, a []float64, lda int, b []float64, ldb int, beta float64, c []float64, ldc int) (err error) {
	defer recoverKernel("dgemm", &err)
	impl.Dgemm(gonumOp(transB), gonumOp(transA), n, m, k, alpha, b, ldb, a, lda, beta, c, ldc)
	return
}

func (gonumFloat64) Syrk(uplo Uplo, trans Op, n, k int, alpha float64, a []float64, lda int, beta float64, c []float64, ldc int) (err error) {
	defer recoverKernel("dsyrk", &err)
	impl.Dsyrk(gonumUplo(uplo.Flip()), symOp(trans, false), n, k, alpha, a, lda, beta, c, ldc)
	return
}

func (g gonumFloat64) Herk(uplo Uplo, trans Op, n, k int, alpha float64, a []float64, lda int, beta float64, c []float64, ldc int) error {
	return g.Syrk(uplo, trans, n, k, alpha, a, lda, beta, c, ldc)
}

func (gonumFloat64) Geru(m, n int, alpha float64, x []float64, incx int, y []float64, incy int, a []float64, lda int) (err error) {
	defer recoverKernel("dger", &err)
	impl.Dger(n, m, alpha, y, incy, x, incx, a, lda)
	return
}

func (g gonumFloat64) Gerc(m, n int, alpha float64, x []float64, incx int, y []float64, incy int, a []float64, lda int) error {
	return g.Geru(m, n, alpha, x, incx, y, incy, a, lda)
}

type gonumComplex64 struct{}

func (gonumComplex64) Gemm(transA, transB Op, m, n, k int, alpha complex64, a []complex64, lda int, b []complex64, ldb int, beta complex64, c []complex64, ldc int) (err error) {
	defer recoverKernel("cgemm", &err)
	impl.Cgemm(gonumOp(transB), gonumOp(transA), n, m, k, alpha, b, ldb, a, lda, beta, c, ldc)
	return
}

func (gonumComplex64) Syrk(uplo Uplo, trans Op, n, k int, alpha complex64, a []complex64, lda int, beta complex64, c []complex64, ldc int) (err error) {
	defer recoverKernel("csyrk", &err)
	impl.Csyrk(gonumUplo(uplo.Flip()), symOp(trans, true), n, k, alpha, a, lda, beta, c, ldc)
	return
}

func (gonumComplex64) Herk(uplo Uplo, trans Op, n, k int, alpha float64, a []complex64, lda int, beta float64, c []complex64, ldc int) (err error) {
	defer recoverKernel("cherk", &err)
	impl.Cherk(gonumUplo(uplo.Flip()), herOp(trans), n, k, float32(alpha), a, lda, float32(beta), c, ldc)
	return
}

func (gonumComplex64) Geru(m, n int, alpha complex64, x []complex64, incx int, y []complex64, incy int, a []complex64, lda int) (err error) {
	defer recoverKernel("cgeru", &err)
	impl.Cgeru(n, m, alpha, y, incy, x, incx, a, lda)
	return
}

func (gonumComplex64) Gerc(m, n int, alpha complex64, x []complex64, incx int, y []complex64, incy int, a []complex64, lda int) (err error) {
	defer recoverKernel("cgerc", &err)
	impl.Cgeru(n, m, alpha, conjVector(n, y, incy), 1, x, incx, a, lda)
	return
}

type gonumComplex128 struct{}

func (gonumComplex128) Gemm(transA, transB Op, m, n, k int, alpha complex128, a []complex128, lda int, b []complex128, ldb int, beta complex128, c []complex128, ldc int) (err error) {
	defer recoverKernel("zgemm", &err)
	impl.Zgemm(gonumOp(transB), gonumOp(transA), n, m, k, alpha, b, ldb, a, lda, beta, c, ldc)
	return
}

func (gonumComplex128) Syrk(uplo Uplo, trans Op, n, k int, alpha complex128, a []complex128, lda int, beta complex128, c []complex128, ldc int) (err error) {
	defer recoverKernel("zsyrk", &err)
	impl.Zsyrk(gonumUplo(uplo.Flip()), symOp(trans, true), n, k, alpha, a, lda, beta, c, ldc)
	return
}

func (gonumComplex128) Herk(uplo Uplo, trans Op, n, k int, alpha float64, a []complex128, lda int, beta float64, c []complex128, ldc int) (err error) {
	defer recoverKernel("zherk", &err)
	impl.Zherk(gonumUplo(uplo.Flip()), herOp(trans), n, k, alpha, a, lda, beta, c, ldc)
	return
}

func (gonumComplex128) Geru(m, n int, alpha complex128, x []complex128, incx int, y []complex128, incy int, a []complex128, lda int) (err error) {
	defer recoverKernel("zgeru", &err)
	impl.Zgeru(n, m, alpha, y, incy, x, incx, a, lda)
	return
}

func (gonumComplex128) Gerc(m, n int, alpha complex128, x []complex128, incx int, y []complex128, incy int, a []complex128, lda int) (err error) {
	defer recoverKernel("zgerc", &err)
	impl.Zgeru(n, m, alpha, conjVector(n, y, incy), 1, x, incx, a, lda)
	return
}
