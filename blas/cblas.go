//go:build cgo && ((darwin && arm64) || mkl)

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

// cblas kernels serve real gemm. The remaining routines fall back to gonum.

type cblasFloat32 struct {
	gonumFloat32
}

func (g cblasFloat32) Gemm(transA, transB Op, m, n, k int, alpha float32, a []float32, lda int, b []float32, ldb int, beta float32, c []float32, ldc int) (err error) {
	if m == 0 || n == 0 || k == 0 {
		return g.gonumFloat32.Gemm(transA, transB, m, n, k, alpha, a, lda, b, ldb, beta, c, ldc)
	}
	defer recoverKernel("sgemm", &err)
	sgemm(transA, transB, m, n, k, alpha, a, lda, b, ldb, beta, c, ldc)
	return
}

type cblasFloat64 struct {
	gonumFloat64
}

func (g cblasFloat64) Gemm(transA, transB Op, m, n, k int, alpha float64, a []float64, lda int, b []float64, ldb int, beta float64, c []float64, ldc int) (err error) {
	if m == 0 || n == 0 || k == 0 {
		return g.gonumFloat64.Gemm(transA, transB, m, n, k, alpha, a, lda, b, ldb, beta, c, ldc)
	}
	defer recoverKernel("dgemm", &err)
	dgemm(transA, transB, m, n, k, alpha, a, lda, b, ldb, beta, c, ldc)
	return
}

func registerCBLAS(name string) {
	natives.Lock()
	defer natives.Unlock()
	natives.name = name
	natives.s = cblasFloat32{}
	natives.d = cblasFloat64{}
	int32Indices = true
}
