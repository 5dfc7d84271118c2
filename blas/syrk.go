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

// Syrk computes the symmetric rank-k update
//
//	C = alpha A A^T + beta C  (trans = NoTrans), or
//	C = alpha A^T A + beta C  (trans = Trans),
//
// where C is n-by-n and only its uplo triangle is referenced. For real
// types ConjTrans means Trans; for complex types it is illegal (see Herk).
func Syrk[T Scalar](layout Layout, uplo Uplo, trans Op, n, k int,
	alpha T, a []T, lda int, beta T, c []T, ldc int) error {
	if err := CheckSyrk[T](layout, uplo, trans, n, k, lda, ldc); err != nil {
		return errors.Trace(err)
	}
	am, an := Extents(trans, n, k)
	if err := firstError(
		checkLen("A", len(a), MinLen(layout, am, an, lda)),
		checkLen("C", len(c), MinLen(layout, n, n, ldc)),
	); err != nil {
		return errors.Trace(err)
	}
	if n == 0 {
		return nil
	}
	if layout == RowMajor {
		// swap lower <=> upper, A => A^T, A^T => A
		uplo = uplo.Flip()
		if trans == NoTrans {
			trans = Trans
		} else {
			trans = NoTrans
		}
	}
	return errors.Trace(NativeFor[T]().Syrk(uplo, trans, n, k, alpha, a, lda, beta, c, ldc))
}

// Herk computes the Hermitian rank-k update
//
//	C = alpha A A^H + beta C  (trans = NoTrans), or
//	C = alpha A^H A + beta C  (trans = ConjTrans),
//
// with real alpha and beta. For real types it is Syrk.
func Herk[T Scalar](layout Layout, uplo Uplo, trans Op, n, k int,
	alpha float64, a []T, lda int, beta float64, c []T, ldc int) error {
	if !IsComplex[T]() {
		return Syrk(layout, uplo, trans, n, k, FromFloat[T](alpha), a, lda, FromFloat[T](beta), c, ldc)
	}
	if err := CheckHerk[T](layout, uplo, trans, n, k, lda, ldc); err != nil {
		return errors.Trace(err)
	}
	am, an := Extents(trans, n, k)
	if err := firstError(
		checkLen("A", len(a), MinLen(layout, am, an, lda)),
		checkLen("C", len(c), MinLen(layout, n, n, ldc)),
	); err != nil {
		return errors.Trace(err)
	}
	if n == 0 {
		return nil
	}
	if layout == RowMajor {
		// swap lower <=> upper, A => A^H, A^H => A
		uplo = uplo.Flip()
		if trans == NoTrans {
			trans = ConjTrans
		} else {
			trans = NoTrans
		}
	}
	return errors.Trace(NativeFor[T]().Herk(uplo, trans, n, k, alpha, a, lda, beta, c, ldc))
}
