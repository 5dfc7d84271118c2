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

import "fmt"

// Scalar is the set of element types served by the native kernels.
type Scalar interface {
	float32 | float64 | complex64 | complex128
}

// Real is the set of real element types.
type Real interface {
	float32 | float64
}

// Complex is the set of complex element types.
type Complex interface {
	complex64 | complex128
}

// Layout is the storage order of a matrix. Values follow cblas.
type Layout int

const (
	RowMajor Layout = 101
	ColMajor Layout = 102
)

func (l Layout) String() string {
	switch l {
	case RowMajor:
		return "RowMajor"
	case ColMajor:
		return "ColMajor"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// Op is the operation applied to a matrix operand.
type Op int

const (
	NoTrans   Op = 111
	Trans     Op = 112
	ConjTrans Op = 113
)

func NewOp(transpose bool) Op {
	if transpose {
		return Trans
	} else {
		return NoTrans
	}
}

// Char returns the Fortran character of the operation.
func (op Op) Char() byte {
	switch op {
	case NoTrans:
		return 'N'
	case Trans:
		return 'T'
	case ConjTrans:
		return 'C'
	default:
		return '?'
	}
}

func (op Op) String() string {
	return string(op.Char())
}

// Uplo selects the referenced triangle of a symmetric or Hermitian matrix.
type Uplo int

const (
	Upper Uplo = 121
	Lower Uplo = 122
)

func (u Uplo) Char() byte {
	switch u {
	case Upper:
		return 'U'
	case Lower:
		return 'L'
	default:
		return '?'
	}
}

func (u Uplo) String() string {
	return string(u.Char())
}

// Flip returns the opposite triangle.
func (u Uplo) Flip() Uplo {
	if u == Lower {
		return Upper
	}
	return Lower
}

// IsComplex reports whether T is a complex element type.
func IsComplex[T Scalar]() bool {
	var zero T
	switch any(zero).(type) {
	case complex64, complex128:
		return true
	default:
		return false
	}
}

// TypeChar returns the BLAS precision prefix of T: s, d, c or z.
func TypeChar[T Scalar]() byte {
	var zero T
	switch any(zero).(type) {
	case float32:
		return 's'
	case float64:
		return 'd'
	case complex64:
		return 'c'
	default:
		return 'z'
	}
}

// FromFloat converts a real value to T.
func FromFloat[T Scalar](v float64) T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(float32(v)).(T)
	case float64:
		return any(v).(T)
	case complex64:
		return any(complex64(complex(v, 0))).(T)
	default:
		return any(complex(v, 0)).(T)
	}
}

// Conj returns the complex conjugate of v. Real values are returned as is.
func Conj[T Scalar](v T) T {
	switch x := any(v).(type) {
	case complex64:
		return any(complex(real(x), -imag(x))).(T)
	case complex128:
		return any(complex(real(x), -imag(x))).(T)
	default:
		return v
	}
}
