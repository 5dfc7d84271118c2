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

import "sync"

// Native is the set of single-call kernels of one precision. Every matrix is
// column-major. Implementations report illegal arguments with an error whose
// cause is ErrKernel.
type Native[T Scalar] interface {
	// Gemm computes C = alpha op(A) op(B) + beta C.
	Gemm(transA, transB Op, m, n, k int, alpha T, a []T, lda int, b []T, ldb int, beta T, c []T, ldc int) error
	// Syrk computes C = alpha op(A) op(A)^T + beta C on the uplo triangle.
	Syrk(uplo Uplo, trans Op, n, k int, alpha T, a []T, lda int, beta T, c []T, ldc int) error
	// Herk computes C = alpha op(A) op(A)^H + beta C on the uplo triangle.
	// Real precisions compute Syrk.
	Herk(uplo Uplo, trans Op, n, k int, alpha float64, a []T, lda int, beta float64, c []T, ldc int) error
	// Geru computes A = alpha x y^T + A.
	Geru(m, n int, alpha T, x []T, incx int, y []T, incy int, a []T, lda int) error
	// Gerc computes A = alpha x y^H + A.
	Gerc(m, n int, alpha T, x []T, incx int, y []T, incy int, a []T, lda int) error
}

var natives = struct {
	sync.RWMutex
	name string
	s    Native[float32]
	d    Native[float64]
	c    Native[complex64]
	z    Native[complex128]
}{
	name: "gonum",
	s:    gonumFloat32{},
	d:    gonumFloat64{},
	c:    gonumComplex64{},
	z:    gonumComplex128{},
}

// NativeFor returns the kernels registered for the element type T.
func NativeFor[T Scalar]() Native[T] {
	natives.RLock()
	defer natives.RUnlock()
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(natives.s).(Native[T])
	case float64:
		return any(natives.d).(Native[T])
	case complex64:
		return any(natives.c).(Native[T])
	default:
		return any(natives.z).(Native[T])
	}
}

// SetNative replaces the kernels of element type T and returns the previous ones.
func SetNative[T Scalar](kernels Native[T]) Native[T] {
	prev := NativeFor[T]()
	natives.Lock()
	defer natives.Unlock()
	switch k := any(kernels).(type) {
	case Native[float32]:
		natives.s = k
	case Native[float64]:
		natives.d = k
	case Native[complex64]:
		natives.c = k
	case Native[complex128]:
		natives.z = k
	}
	return prev
}

// Backend returns the name of the backend serving the default kernels.
func Backend() string {
	natives.RLock()
	defer natives.RUnlock()
	return natives.name
}

// int32Indices is set by backends whose native integer type is 32-bit.
var int32Indices = false
