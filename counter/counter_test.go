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

package counter

import (
	"bytes"
	"testing"

	"github.com/gorse-io/blas/blas"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestID(t *testing.T) {
	assert.Equal(t, "gemm", Gemm.String())
	assert.Equal(t, "syrk", Syrk.String())
	assert.Equal(t, "trsm", Trsm.String())
	assert.Equal(t, "id(42)", ID(42).String())
}

func TestNoop(t *testing.T) {
	var c Counter = Noop{}
	c.Insert(Gemm, Shape{TransA: blas.NoTrans, TransB: blas.NoTrans, M: 1, N: 1, K: 1}, 1)
}

func TestPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPrometheus(reg)
	shape := Shape{TransA: blas.NoTrans, TransB: blas.Trans, M: 64, N: 64, K: 32}
	c.Insert(Gemm, shape, 16)
	c.Insert(Gemm, shape, 4)
	c.Insert(Syrk, Shape{Uplo: blas.Lower, TransA: blas.NoTrans, N: 8, K: 4}, 1)

	assert.Equal(t, 20.0, testutil.ToFloat64(c.calls.WithLabelValues("gemm", "", "N", "T", "64", "64", "32")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.calls.WithLabelValues("syrk", "L", "N", "", "0", "8", "4")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.calls))

	var buf bytes.Buffer
	assert.NoError(t, Print(&buf, reg))
	assert.Contains(t, buf.String(), "gemm( N, T, 64, 64, 32 ) count 20\n")
	assert.Contains(t, buf.String(), "syrk( L, N, 8, 4 ) count 1\n")
}

func TestPrintEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, Print(&buf, prometheus.NewRegistry()))
	assert.Empty(t, buf.String())
}
