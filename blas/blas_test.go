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
	"fmt"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	layouts = []Layout{ColMajor, RowMajor}
	ops     = []Op{NoTrans, Trans, ConjTrans}
	uplos   = []Uplo{Upper, Lower}
)

func toComplex[T Scalar](v T) complex128 {
	switch x := any(v).(type) {
	case float32:
		return complex(float64(x), 0)
	case float64:
		return complex(x, 0)
	case complex64:
		return complex128(x)
	default:
		return any(v).(complex128)
	}
}

func fromComplex[T Scalar](v complex128) T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(float32(real(v))).(T)
	case float64:
		return any(real(v)).(T)
	case complex64:
		return any(complex64(v)).(T)
	default:
		return any(v).(T)
	}
}

func randomSlice[T Scalar](rng *rand.Rand, n int) []T {
	x := make([]T, n)
	for i := range x {
		x[i] = fromComplex[T](complex(rng.Float64()*2-1, rng.Float64()*2-1))
	}
	return x
}

func tolerance[T Scalar]() float64 {
	switch TypeChar[T]() {
	case 's', 'c':
		return 1e-4
	default:
		return 1e-10
	}
}

func assertClose[T Scalar](t *testing.T, expected, actual []T, msgAndArgs ...any) {
	t.Helper()
	require.Equal(t, len(expected), len(actual), msgAndArgs...)
	for i := range expected {
		if cmplx.Abs(toComplex(expected[i])-toComplex(actual[i])) > tolerance[T]() {
			assert.Failf(t, "values differ", "index %d: expected %v, actual %v %v",
				i, expected[i], actual[i], fmt.Sprint(msgAndArgs...))
			return
		}
	}
}

// at returns the address of X(i, j).
func at(layout Layout, i, j, ld int) int {
	if layout == ColMajor {
		return i + j*ld
	}
	return i*ld + j
}

// opAt returns op(X)(i, j).
func opAt[T Scalar](layout Layout, op Op, x []T, i, j, ld int) complex128 {
	switch op {
	case NoTrans:
		return toComplex(x[at(layout, i, j, ld)])
	case Trans:
		return toComplex(x[at(layout, j, i, ld)])
	default:
		return cmplx.Conj(toComplex(x[at(layout, j, i, ld)]))
	}
}

func refGemm[T Scalar](layout Layout, transA, transB Op, m, n, k int, alpha T, a []T, lda int, b []T, ldb int, beta T, c []T, ldc int) {
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum complex128
			for l := 0; l < k; l++ {
				sum += opAt(layout, transA, a, i, l, lda) * opAt(layout, transB, b, l, j, ldb)
			}
			idx := at(layout, i, j, ldc)
			c[idx] = fromComplex[T](toComplex(alpha)*sum + toComplex(beta)*toComplex(c[idx]))
		}
	}
}

func testGemm[T Scalar](t *testing.T) {
	rng := rand.New(rand.NewSource(0))
	m, n, k := 5, 4, 3
	for _, layout := range layouts {
		for _, transA := range ops {
			for _, transB := range ops {
				am, an := Extents(transA, m, k)
				bm, bn := Extents(transB, k, n)
				lda := MinLeadingDim(layout, am, an) + 2
				ldb := MinLeadingDim(layout, bm, bn) + 1
				ldc := MinLeadingDim(layout, m, n) + 3
				a := randomSlice[T](rng, MinLen(layout, am, an, lda))
				b := randomSlice[T](rng, MinLen(layout, bm, bn, ldb))
				c := randomSlice[T](rng, MinLen(layout, m, n, ldc))
				expected := append([]T(nil), c...)
				alpha, beta := fromComplex[T](1.5+0.5i), fromComplex[T](-0.5+0.25i)
				refGemm(layout, transA, transB, m, n, k, alpha, a, lda, b, ldb, beta, expected, ldc)
				err := Gemm(layout, transA, transB, m, n, k, alpha, a, lda, b, ldb, beta, c, ldc)
				require.NoError(t, err)
				assertClose(t, expected, c, layout, transA, transB)
			}
		}
	}
}

func TestGemm(t *testing.T) {
	t.Run("s", testGemm[float32])
	t.Run("d", testGemm[float64])
	t.Run("c", testGemm[complex64])
	t.Run("z", testGemm[complex128])
}

func TestGemmPrecondition(t *testing.T) {
	a := make([]float64, 16)
	b := make([]float64, 16)
	c := make([]float64, 16)
	err := Gemm(Layout(0), NoTrans, NoTrans, 4, 4, 4, 1, a, 4, b, 4, 0, c, 4)
	assert.True(t, IsPrecondition(err))
	err = Gemm(ColMajor, Op(0), NoTrans, 4, 4, 4, 1, a, 4, b, 4, 0, c, 4)
	assert.True(t, IsPrecondition(err))
	err = Gemm(ColMajor, NoTrans, NoTrans, -1, 4, 4, 1, a, 4, b, 4, 0, c, 4)
	assert.True(t, IsPrecondition(err))
	err = Gemm(ColMajor, NoTrans, NoTrans, 4, 4, 4, 1, a, 3, b, 4, 0, c, 4)
	assert.True(t, IsPrecondition(err))
	assert.Contains(t, err.Error(), "lda")
	// row-major A (4-by-2) needs lda >= 2, not 4
	err = Gemm(RowMajor, NoTrans, NoTrans, 4, 4, 2, 1, a, 2, b, 4, 0, c, 4)
	assert.NoError(t, err)
	err = Gemm(ColMajor, NoTrans, NoTrans, 4, 4, 4, 1, a[:15], 4, b, 4, 0, c, 4)
	assert.True(t, IsPrecondition(err))
	assert.Contains(t, err.Error(), "len(A)")
}

func TestGemmQuickReturn(t *testing.T) {
	c := []float32{1, 2, 3}
	err := Gemm(ColMajor, NoTrans, NoTrans, 0, 3, 2, 1, nil, 1, make([]float32, 6), 2, 0, c, 1)
	assert.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, c)
}

func refSyrk[T Scalar](layout Layout, uplo Uplo, trans Op, n, k int, alpha T, a []T, lda int, beta T, c []T, ldc int, hermitian bool) {
	// op(A) is n-by-k
	opA := trans
	if trans == ConjTrans && !hermitian {
		opA = Trans
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if (uplo == Upper && i > j) || (uplo == Lower && i < j) {
				continue
			}
			var sum complex128
			for l := 0; l < k; l++ {
				x := opAt(layout, opA, a, i, l, lda)
				y := opAt(layout, opA, a, j, l, lda)
				if hermitian {
					y = cmplx.Conj(y)
				}
				sum += x * y
			}
			idx := at(layout, i, j, ldc)
			v := toComplex(alpha)*sum + toComplex(beta)*toComplex(c[idx])
			if hermitian && i == j {
				v = complex(real(toComplex(alpha))*real(sum)+real(toComplex(beta))*real(toComplex(c[idx])), 0)
			}
			c[idx] = fromComplex[T](v)
		}
	}
}

func testSyrk[T Scalar](t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	n, k := 4, 3
	trans := []Op{NoTrans, Trans}
	if !IsComplex[T]() {
		trans = ops
	}
	for _, layout := range layouts {
		for _, uplo := range uplos {
			for _, op := range trans {
				am, an := Extents(op, n, k)
				lda := MinLeadingDim(layout, am, an) + 1
				ldc := n + 2
				a := randomSlice[T](rng, MinLen(layout, am, an, lda))
				c := randomSlice[T](rng, MinLen(layout, n, n, ldc))
				expected := append([]T(nil), c...)
				alpha, beta := fromComplex[T](0.75-0.5i), fromComplex[T](2+1i)
				refSyrk(layout, uplo, op, n, k, alpha, a, lda, beta, expected, ldc, false)
				err := Syrk(layout, uplo, op, n, k, alpha, a, lda, beta, c, ldc)
				require.NoError(t, err)
				assertClose(t, expected, c, layout, uplo, op)
			}
		}
	}
}

func TestSyrk(t *testing.T) {
	t.Run("s", testSyrk[float32])
	t.Run("d", testSyrk[float64])
	t.Run("c", testSyrk[complex64])
	t.Run("z", testSyrk[complex128])
}

func TestSyrkPrecondition(t *testing.T) {
	a := make([]complex128, 16)
	c := make([]complex128, 16)
	err := Syrk(ColMajor, Lower, ConjTrans, 4, 4, 1, a, 4, 0, c, 4)
	assert.True(t, IsPrecondition(err))
	err = Syrk(ColMajor, Uplo(0), NoTrans, 4, 4, 1, a, 4, 0, c, 4)
	assert.True(t, IsPrecondition(err))
	err = Syrk(ColMajor, Lower, NoTrans, 4, 4, 1, a, 4, 0, c, 3)
	assert.True(t, IsPrecondition(err))
	// lda >= k for row-major NoTrans
	err = Syrk(RowMajor, Lower, NoTrans, 4, 2, 1, a, 2, 0, c, 4)
	assert.NoError(t, err)
	err = Syrk(RowMajor, Lower, NoTrans, 4, 2, 1, a, 1, 0, c, 4)
	assert.True(t, IsPrecondition(err))
	// real ConjTrans is Trans
	err = Syrk(ColMajor, Lower, ConjTrans, 4, 4, 1.0, make([]float64, 16), 4, 0, make([]float64, 16), 4)
	assert.NoError(t, err)
}

func testHerk[T Scalar](t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	n, k := 5, 2
	for _, layout := range layouts {
		for _, uplo := range uplos {
			for _, op := range []Op{NoTrans, ConjTrans} {
				am, an := Extents(op, n, k)
				lda := MinLeadingDim(layout, am, an)
				ldc := n
				a := randomSlice[T](rng, MinLen(layout, am, an, lda))
				c := randomSlice[T](rng, MinLen(layout, n, n, ldc))
				expected := append([]T(nil), c...)
				refSyrk(layout, uplo, op, n, k, fromComplex[T](1.25), a, lda, fromComplex[T](0.5), expected, ldc, true)
				err := Herk(layout, uplo, op, n, k, 1.25, a, lda, 0.5, c, ldc)
				require.NoError(t, err)
				assertClose(t, expected, c, layout, uplo, op)
			}
		}
	}
}

func TestHerk(t *testing.T) {
	t.Run("c", testHerk[complex64])
	t.Run("z", testHerk[complex128])
	t.Run("d", func(t *testing.T) {
		a := []float64{1, 2, 3, 4}
		c := make([]float64, 4)
		expected := make([]float64, 4)
		assert.NoError(t, Herk(ColMajor, Upper, NoTrans, 2, 2, 1, a, 2, 0, c, 2))
		assert.NoError(t, Syrk(ColMajor, Upper, NoTrans, 2, 2, 1.0, a, 2, 0, expected, 2))
		assert.Equal(t, expected, c)
	})
	err := Herk(ColMajor, Upper, Trans, 2, 2, 1, make([]complex64, 4), 2, 0, make([]complex64, 4), 2)
	assert.True(t, IsPrecondition(err))
}

func vecAt[T Scalar](x []T, n, inc, i int) complex128 {
	if inc > 0 {
		return toComplex(x[i*inc])
	}
	return toComplex(x[(n-1-i)*(-inc)])
}

func testGer[T Scalar](t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	m, n := 4, 3
	for _, layout := range layouts {
		for _, conj := range []bool{false, true} {
			for _, inc := range [][2]int{{1, 1}, {2, -1}, {-3, 2}} {
				incx, incy := inc[0], inc[1]
				lda := MinLeadingDim(layout, m, n) + 1
				x := randomSlice[T](rng, vectorLen(m, incx))
				y := randomSlice[T](rng, vectorLen(n, incy))
				a := randomSlice[T](rng, MinLen(layout, m, n, lda))
				expected := append([]T(nil), a...)
				alpha := fromComplex[T](0.5 + 2i)
				for i := 0; i < m; i++ {
					for j := 0; j < n; j++ {
						yj := vecAt(y, n, incy, j)
						if conj {
							yj = cmplx.Conj(yj)
						}
						idx := at(layout, i, j, lda)
						expected[idx] = fromComplex[T](toComplex(expected[idx]) + toComplex(alpha)*vecAt(x, m, incx, i)*yj)
					}
				}
				var err error
				if conj {
					err = Gerc(layout, m, n, alpha, x, incx, y, incy, a, lda)
				} else {
					err = Geru(layout, m, n, alpha, x, incx, y, incy, a, lda)
				}
				require.NoError(t, err)
				assertClose(t, expected, a, layout, conj, inc)
			}
		}
	}
}

func TestGer(t *testing.T) {
	t.Run("s", testGer[float32])
	t.Run("d", testGer[float64])
	t.Run("c", testGer[complex64])
	t.Run("z", testGer[complex128])
	err := Ger(ColMajor, 2, 2, 1.0, []float64{1, 2}, 0, []float64{1, 2}, 1, make([]float64, 4), 2)
	assert.True(t, IsPrecondition(err))
	err = Ger(RowMajor, 2, 3, 1.0, []float64{1, 2}, 1, []float64{1, 2, 3}, 1, make([]float64, 6), 2)
	assert.True(t, IsPrecondition(err))
}

func TestNativeKernelError(t *testing.T) {
	// short C reaches the kernel unchecked
	err := NativeFor[float64]().Gemm(NoTrans, NoTrans, 2, 2, 2, 1, make([]float64, 4), 2, make([]float64, 4), 2, 0, make([]float64, 3), 2)
	assert.True(t, IsKernel(err))
	assert.False(t, IsPrecondition(err))
	err = NativeFor[complex64]().Syrk(Upper, ConjTrans, 2, 2, 1, make([]complex64, 4), 2, 0, make([]complex64, 4), 2)
	assert.True(t, IsKernel(err))
}

type countingNative struct {
	Native[float32]
	calls int
}

func (n *countingNative) Gemm(transA, transB Op, m, nn, k int, alpha float32, a []float32, lda int, b []float32, ldb int, beta float32, c []float32, ldc int) error {
	n.calls++
	return n.Native.Gemm(transA, transB, m, nn, k, alpha, a, lda, b, ldb, beta, c, ldc)
}

func TestSetNative(t *testing.T) {
	counting := &countingNative{Native: NativeFor[float32]()}
	prev := SetNative[float32](counting)
	defer SetNative(prev)
	c := make([]float32, 4)
	assert.NoError(t, Gemm(RowMajor, NoTrans, NoTrans, 2, 2, 1, 1, []float32{1, 2}, 1, []float32{3, 4}, 2, 0, c, 2))
	assert.Equal(t, 1, counting.calls)
	assert.Equal(t, []float32{3, 4, 6, 8}, c)
	// other precisions are untouched
	if Backend() == "gonum" {
		assert.IsType(t, gonumFloat64{}, NativeFor[float64]())
	}
}

func TestEnums(t *testing.T) {
	assert.Equal(t, "N", NoTrans.String())
	assert.Equal(t, byte('C'), ConjTrans.Char())
	assert.Equal(t, Trans, NewOp(true))
	assert.Equal(t, Upper, Lower.Flip())
	assert.Equal(t, "RowMajor", RowMajor.String())
	assert.Equal(t, byte('z'), TypeChar[complex128]())
	assert.True(t, IsComplex[complex64]())
	assert.False(t, IsComplex[float64]())
	assert.Equal(t, complex64(1-2i), Conj(complex64(1+2i)))
	assert.Equal(t, float32(3), FromFloat[float32](3))
}
