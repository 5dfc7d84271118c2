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

func checkGer[T Scalar](layout Layout, m, n int, x []T, incx int, y []T, incy int, a []T, lda int) error {
	if err := CheckGer(layout, m, n, incx, incy, lda); err != nil {
		return err
	}
	return firstError(
		checkLen("x", len(x), vectorLen(m, incx)),
		checkLen("y", len(y), vectorLen(n, incy)),
		checkLen("A", len(a), MinLen(layout, m, n, lda)),
	)
}

// Ger computes the rank-1 update A = alpha x y^T + A, where A is m-by-n.
// For complex types it is Geru.
func Ger[T Scalar](layout Layout, m, n int, alpha T, x []T, incx int, y []T, incy int, a []T, lda int) error {
	return Geru(layout, m, n, alpha, x, incx, y, incy, a, lda)
}

// Geru computes the unconjugated rank-1 update A = alpha x y^T + A.
func Geru[T Scalar](layout Layout, m, n int, alpha T, x []T, incx int, y []T, incy int, a []T, lda int) error {
	if err := checkGer(layout, m, n, x, incx, y, incy, a, lda); err != nil {
		return errors.Trace(err)
	}
	var zero T
	if m == 0 || n == 0 || alpha == zero {
		return nil
	}
	if layout == RowMajor {
		// swap m <=> n, x <=> y
		return errors.Trace(NativeFor[T]().Geru(n, m, alpha, y, incy, x, incx, a, lda))
	}
	return errors.Trace(NativeFor[T]().Geru(m, n, alpha, x, incx, y, incy, a, lda))
}

// Gerc computes the conjugated rank-1 update A = alpha x y^H + A. For real
// types it is Geru.
func Gerc[T Scalar](layout Layout, m, n int, alpha T, x []T, incx int, y []T, incy int, a []T, lda int) error {
	if err := checkGer(layout, m, n, x, incx, y, incy, a, lda); err != nil {
		return errors.Trace(err)
	}
	var zero T
	if m == 0 || n == 0 || alpha == zero {
		return nil
	}
	if layout == RowMajor {
		// swapping m <=> n and x <=> y moves the conjugate onto x, so
		// conjugate y up front and run the unconjugated update
		y2 := conjVector(n, y, incy)
		return errors.Trace(NativeFor[T]().Geru(n, m, alpha, y2, 1, x, incx, a, lda))
	}
	return errors.Trace(NativeFor[T]().Gerc(m, n, alpha, x, incx, y, incy, a, lda))
}
