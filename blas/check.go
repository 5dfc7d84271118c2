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

import "math"

func checkLayout(layout Layout) error {
	return errorIf(layout != ColMajor && layout != RowMajor, "layout %v", layout)
}

func checkOp(name string, op Op) error {
	return errorIf(op != NoTrans && op != Trans && op != ConjTrans, "%s = %d", name, int(op))
}

func checkUplo(uplo Uplo) error {
	return errorIf(uplo != Lower && uplo != Upper, "uplo = %d", int(uplo))
}

// checkInt32 rejects values that overflow a 32-bit native integer.
func checkInt32(names []string, values ...int) error {
	if !int32Indices {
		return nil
	}
	for i, v := range values {
		if v > math.MaxInt32 || v < -math.MaxInt32 {
			return errorIf(true, "%s = %d exceeds the native integer range", names[i], v)
		}
	}
	return nil
}

// Extents returns the (rows, cols) of op(X) stored as X, where op(X) is
// rows-by-cols.
func Extents(op Op, rows, cols int) (int, int) {
	if op == NoTrans {
		return rows, cols
	}
	return cols, rows
}

// contiguous returns the (contiguous, strided) extents of a rows-by-cols
// matrix in the given layout.
func contiguous(layout Layout, rows, cols int) (int, int) {
	if layout == RowMajor {
		return cols, rows
	}
	return rows, cols
}

// MinLeadingDim returns the smallest legal leading dimension of a rows-by-cols
// matrix stored in layout.
func MinLeadingDim(layout Layout, rows, cols int) int {
	c, _ := contiguous(layout, rows, cols)
	return max(1, c)
}

// MinLen returns the number of elements spanned by a rows-by-cols matrix
// stored in layout with leading dimension ld.
func MinLen(layout Layout, rows, cols, ld int) int {
	c, s := contiguous(layout, rows, cols)
	if c == 0 || s == 0 {
		return 0
	}
	return (s-1)*ld + c
}

func checkLD(name string, ld, min int) error {
	return errorIf(ld < min, "%s = %d (must be at least %d)", name, ld, min)
}

func checkLen(name string, length, min int) error {
	return errorIf(length < min, "len(%s) = %d (must be at least %d)", name, length, min)
}

func vectorLen(n, inc int) int {
	if n == 0 {
		return 0
	}
	if inc < 0 {
		inc = -inc
	}
	return 1 + (n-1)*inc
}

// CheckGemm validates the scalar arguments of Gemm.
func CheckGemm(layout Layout, transA, transB Op, m, n, k, lda, ldb, ldc int) error {
	if err := firstError(
		checkLayout(layout),
		checkOp("transA", transA),
		checkOp("transB", transB),
		errorIf(m < 0, "m = %d", m),
		errorIf(n < 0, "n = %d", n),
		errorIf(k < 0, "k = %d", k),
	); err != nil {
		return err
	}
	am, an := Extents(transA, m, k)
	bm, bn := Extents(transB, k, n)
	return firstError(
		checkLD("lda", lda, MinLeadingDim(layout, am, an)),
		checkLD("ldb", ldb, MinLeadingDim(layout, bm, bn)),
		checkLD("ldc", ldc, MinLeadingDim(layout, m, n)),
		checkInt32([]string{"m", "n", "k", "lda", "ldb", "ldc"}, m, n, k, lda, ldb, ldc),
	)
}

// CheckSyrk validates the scalar arguments of Syrk. In the complex case
// ConjTrans is illegal.
func CheckSyrk[T Scalar](layout Layout, uplo Uplo, trans Op, n, k, lda, ldc int) error {
	legal := trans == NoTrans || trans == Trans
	if !IsComplex[T]() {
		legal = legal || trans == ConjTrans
	}
	return checkRankK(layout, uplo, trans, legal, n, k, lda, ldc)
}

// CheckHerk validates the scalar arguments of Herk. In the complex case
// Trans is illegal.
func CheckHerk[T Scalar](layout Layout, uplo Uplo, trans Op, n, k, lda, ldc int) error {
	legal := trans == NoTrans || trans == ConjTrans
	if !IsComplex[T]() {
		legal = legal || trans == Trans
	}
	return checkRankK(layout, uplo, trans, legal, n, k, lda, ldc)
}

func checkRankK(layout Layout, uplo Uplo, trans Op, legal bool, n, k, lda, ldc int) error {
	if err := firstError(
		checkLayout(layout),
		checkUplo(uplo),
		errorIf(!legal, "trans = %v", trans),
		errorIf(n < 0, "n = %d", n),
		errorIf(k < 0, "k = %d", k),
	); err != nil {
		return err
	}
	am, an := Extents(trans, n, k)
	return firstError(
		checkLD("lda", lda, MinLeadingDim(layout, am, an)),
		checkLD("ldc", ldc, max(1, n)),
		checkInt32([]string{"n", "k", "lda", "ldc"}, n, k, lda, ldc),
	)
}

// CheckGer validates the scalar arguments of Ger, Geru and Gerc.
func CheckGer(layout Layout, m, n, incx, incy, lda int) error {
	return firstError(
		checkLayout(layout),
		errorIf(m < 0, "m = %d", m),
		errorIf(n < 0, "n = %d", n),
		errorIf(incx == 0, "incx = 0"),
		errorIf(incy == 0, "incy = 0"),
		checkLD("lda", lda, MinLeadingDim(layout, m, n)),
		checkInt32([]string{"m", "n", "lda", "incx", "incy"}, m, n, lda, incx, incy),
	)
}
