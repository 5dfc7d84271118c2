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

// SyrkArgs are the parameters of a batched Syrk.
type SyrkArgs[T blas.Scalar] struct {
	Layout blas.Layout
	Uplo   []blas.Uplo
	Trans  []blas.Op
	N      []int
	K      []int
	Alpha  []T
	A      []device.Ptr[T]
	LdA    []int
	Beta   []T
	C      []device.Ptr[T]
	LdC    []int
}

type syrkShape struct {
	uplo     blas.Uplo
	trans    blas.Op
	n, k     int
	lda, ldc int
}

type syrkParams[T blas.Scalar] struct {
	uplo        func(int) blas.Uplo
	trans       func(int) blas.Op
	n, k        func(int) int
	alpha, beta func(int) T
	lda, ldc    func(int) int
}

func (p *syrkParams[T]) shape(i int) syrkShape {
	return syrkShape{
		uplo: p.uplo(i), trans: p.trans(i),
		n: p.n(i), k: p.k(i),
		lda: p.lda(i), ldc: p.ldc(i),
	}
}

func checkSyrk[T blas.Scalar](args *SyrkArgs[T], batchCount int) (*syrkParams[T], error) {
	var (
		p   syrkParams[T]
		err error
	)
	if p.uplo, err = param("uplo", args.Uplo, batchCount); err != nil {
		return nil, err
	}
	if p.trans, err = param("trans", args.Trans, batchCount); err != nil {
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
	if p.beta, err = param("beta", args.Beta, batchCount); err != nil {
		return nil, err
	}
	if p.ldc, err = param("ldc", args.LdC, batchCount); err != nil {
		return nil, err
	}
	if err = items("A", args.A, batchCount); err != nil {
		return nil, err
	}
	if err = items("C", args.C, batchCount); err != nil {
		return nil, err
	}
	n := 1
	if varying(batchCount, len(args.Uplo), len(args.Trans), len(args.N), len(args.K), len(args.LdA), len(args.LdC)) {
		n = batchCount
	}
	for i := 0; i < n; i++ {
		s := p.shape(i)
		if err = blas.CheckSyrk[T](args.Layout, s.uplo, s.trans, s.n, s.k, s.lda, s.ldc); err != nil {
			return nil, errors.Annotatef(err, "item %d", i)
		}
	}
	return &p, nil
}

// Syrk computes the symmetric rank-k update of the uplo triangle of C[i] for
// every item i in [0, batchCount) on q. Info vector handling is that of Gemm.
func Syrk[T blas.Scalar](q *device.Queue, args SyrkArgs[T], batchCount int, info []int64) error {
	if batchCount < 0 {
		return errors.NotValidf("batch count %d", batchCount)
	}
	if err := checkInfo(info, batchCount); err != nil {
		return errors.Trace(err)
	}
	if batchCount == 0 {
		return nil
	}
	p, err := checkSyrk(&args, batchCount)
	if err != nil {
		return errors.Trace(err)
	}
	groups := group(q, batchCount, p.shape)
	c := &call{
		routine: "batch." + string(blas.TypeChar[T]()) + "syrk",
		record: func(members []int) {
			s := p.shape(members[0])
			q.Counter().Insert(counter.Syrk, counter.Shape{Uplo: s.uplo, TransA: s.trans, N: s.n, K: s.k}, len(members))
		},
	}
	if len(info) > 0 {
		c.info = info
	}
	layout := args.Layout
	return dispatch(q, c, groups, func(i int) error {
		s := p.shape(i)
		return ops.RunSyrk(layout, s.uplo, s.trans, s.n, s.k, p.alpha(i), args.A[i], s.lda, p.beta(i), args.C[i], s.ldc)
	})
}
