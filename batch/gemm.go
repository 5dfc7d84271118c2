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

package batch

import (
	"github.com/gorse-io/blas/blas"
	"github.com/gorse-io/blas/counter"
	"github.com/gorse-io/blas/device"
	"github.com/gorse-io/blas/ops"
	"github.com/juju/errors"
)

// GemmArgs are the parameters of a batched Gemm. A, B and C hold one address
// per item; every other slice holds one value or one value per item.
type GemmArgs[T blas.Scalar] struct {
	Layout blas.Layout
	TransA []blas.Op
	TransB []blas.Op
	M      []int
	N      []int
	K      []int
	Alpha  []T
	A      []device.Ptr[T]
	LdA    []int
	B      []device.Ptr[T]
	LdB    []int
	Beta   []T
	C      []device.Ptr[T]
	LdC    []int
}

type gemmShape struct {
	transA, transB blas.Op
	m, n, k        int
	lda, ldb, ldc  int
}

type gemmParams[T blas.Scalar] struct {
	transA, transB func(int) blas.Op
	m, n, k        func(int) int
	alpha, beta    func(int) T
	lda, ldb, ldc  func(int) int
}

func (p *gemmParams[T]) shape(i int) gemmShape {
	return gemmShape{
		transA: p.transA(i), transB: p.transB(i),
		m: p.m(i), n: p.n(i), k: p.k(i),
		lda: p.lda(i), ldb: p.ldb(i), ldc: p.ldc(i),
	}
}

func checkGemm[T blas.Scalar](args *GemmArgs[T], batchCount int) (*gemmParams[T], error) {
	var (
		p   gemmParams[T]
		err error
	)
	if p.transA, err = param("transA", args.TransA, batchCount); err != nil {
		return nil, err
	}
	if p.transB, err = param("transB", args.TransB, batchCount); err != nil {
		return nil, err
	}
	if p.m, err = param("m", args.M, batchCount); err != nil {
		return nil, err
	}
	if p.n, err = param("n", args.N, batchCount); err != nil {
		return nil, err
	}
	if p.k, err = param("k", args.K, batchCount); err != nil {
		return nil, err
	}
	if p.alpha, err = param("alpha", args.Alpha, batchCount); err != nil {
		return nil, err
	}
	if p.lda, err = param("lda", args.LdA, batchCount); err != nil {
		return nil, err
	}
	if p.ldb, err = param("ldb", args.LdB, batchCount); err != nil {
		return nil, err
	}
	if p.beta, err = param("beta", args.Beta, batchCount); err != nil {
		return nil, err
	}
	if p.ldc, err = param("ldc", args.LdC, batchCount); err != nil {
		return nil, err
	}
	if err = items("A", args.A, batchCount); err != nil {
		return nil, err
	}
	if err = items("B", args.B, batchCount); err != nil {
		return nil, err
	}
	if err = items("C", args.C, batchCount); err != nil {
		return nil, err
	}
	// broadcast shapes are checked once
	n := 1
	if varying(batchCount, len(args.TransA), len(args.TransB), len(args.M), len(args.N), len(args.K),
		len(args.LdA), len(args.LdB), len(args.LdC)) {
		n = batchCount
	}
	for i := 0; i < n; i++ {
		s := p.shape(i)
		if err = blas.CheckGemm(args.Layout, s.transA, s.transB, s.m, s.n, s.k, s.lda, s.ldb, s.ldc); err != nil {
			return nil, errors.Annotatef(err, "item %d", i)
		}
	}
	return &p, nil
}

// varying reports whether any per-item slice has more than one value.
func varying(batchCount int, lengths ...int) bool {
	if batchCount <= 1 {
		return false
	}
	for _, l := range lengths {
		if l > 1 {
			return true
		}
	}
	return false
}

// Gemm computes C[i] = alpha[i] op(A[i]) op(B[i]) + beta[i] C[i] for every
// item i in [0, batchCount) on q. Arguments are checked before anything is
// enqueued. With an info vector of batchCount entries info[i] holds the
// status of item i after q.Sync and failing items don't fail the call.
// Without one the first failing item fails the call: the *ItemError is
// reported by q.Sync and the groups after it are skipped.
func Gemm[T blas.Scalar](q *device.Queue, args GemmArgs[T], batchCount int, info []int64) error {
	if batchCount < 0 {
		return errors.NotValidf("batch count %d", batchCount)
	}
	if err := checkInfo(info, batchCount); err != nil {
		return errors.Trace(err)
	}
	if batchCount == 0 {
		return nil
	}
	p, err := checkGemm(&args, batchCount)
	if err != nil {
		return errors.Trace(err)
	}
	groups := group(q, batchCount, p.shape)
	c := &call{
		routine: "batch." + string(blas.TypeChar[T]()) + "gemm",
		record: func(members []int) {
			s := p.shape(members[0])
			q.Counter().Insert(counter.Gemm, counter.Shape{
				TransA: s.transA, TransB: s.transB, M: s.m, N: s.n, K: s.k,
			}, len(members))
		},
	}
	if len(info) > 0 {
		c.info = info
	}
	layout := args.Layout
	return dispatch(q, c, groups, func(i int) error {
		s := p.shape(i)
		return ops.RunGemm(layout, s.transA, s.transB, s.m, s.n, s.k,
			p.alpha(i), args.A[i], s.lda, args.B[i], s.ldb, p.beta(i), args.C[i], s.ldc)
	})
}
