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

// Package tile splits column-major matrices into square tiles.
package tile

import (
	"iter"

	"github.com/gorse-io/blas/blas"
	"github.com/gorse-io/blas/device"
	"github.com/juju/errors"
	"golang.org/x/exp/constraints"
)

// RoundUp returns the smallest multiple of align not less than x.
func RoundUp[T constraints.Integer](x, align T) T {
	if align <= 1 {
		return x
	}
	return (x + align - 1) / align * align
}

// RoundDown returns the largest multiple of nb not greater than x.
func RoundDown[T constraints.Integer](x, nb T) T {
	if nb <= 1 {
		return x
	}
	return x / nb * nb
}

// LeadingDim returns the leading dimension of a column-major matrix with the
// given rows, padded to a multiple of align.
func LeadingDim(rows, align int) int {
	return RoundUp(max(1, rows), align)
}

// Grid is an M-by-N matrix split into MT-by-NT tiles of NB-by-NB.
type Grid struct {
	M  int
	N  int
	NB int
	MT int
	NT int
}

// NewGrid splits an m-by-n matrix into nb-by-nb tiles. Both m and n must be
// multiples of nb.
func NewGrid(m, n, nb int) (Grid, error) {
	switch {
	case nb <= 0:
		return Grid{}, errors.NotValidf("tile size %d", nb)
	case m < 0:
		return Grid{}, errors.NotValidf("m = %d", m)
	case n < 0:
		return Grid{}, errors.NotValidf("n = %d", n)
	case m%nb != 0:
		return Grid{}, errors.NotValidf("m = %d (not a multiple of %d)", m, nb)
	case n%nb != 0:
		return Grid{}, errors.NotValidf("n = %d (not a multiple of %d)", n, nb)
	}
	return Grid{M: m, N: n, NB: nb, MT: m / nb, NT: n / nb}, nil
}

// Count returns the number of tiles.
func (g Grid) Count() int {
	return g.MT * g.NT
}

// Index returns the position of tile (i, j) in column-major tile order.
func (g Grid) Index(i, j int) int {
	return i + j*g.MT
}

// Coords yields tile coordinates in column-major tile order.
func (g Grid) Coords() iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		for j := 0; j < g.NT; j++ {
			for i := 0; i < g.MT; i++ {
				if !yield(i, j) {
					return
				}
			}
		}
	}
}

// Extent returns the rows and columns of tile (i, j).
func (g Grid) Extent(i, j int) (int, int) {
	return min(g.NB, g.M-i*g.NB), min(g.NB, g.N-j*g.NB)
}

// Offset returns the element offset of block (i, j) of a column-major matrix
// with leading dimension ld.
func Offset(i, j, nb, ld int) int {
	return i*nb + j*nb*ld
}

// Pointers builds the batch address arrays of a tiled update C -= A B where A
// is m-by-nb, B is nb-by-n and C is m-by-n. Tile (i, j) multiplies the i-th
// block row of A by the j-th block column of B into block (i, j) of C.
func Pointers[T blas.Scalar](g Grid, a device.Ptr[T], b device.Ptr[T], ldb int, c device.Ptr[T], ldc int) (pa, pb, pc []device.Ptr[T]) {
	count := g.Count()
	pa = make([]device.Ptr[T], 0, count)
	pb = make([]device.Ptr[T], 0, count)
	pc = make([]device.Ptr[T], 0, count)
	for i, j := range g.Coords() {
		pa = append(pa, a.Add(i*g.NB))
		pb = append(pb, b.Add(j*g.NB*ldb))
		pc = append(pc, c.Add(Offset(i, j, g.NB, ldc)))
	}
	return
}
