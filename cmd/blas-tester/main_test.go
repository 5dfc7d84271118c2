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

package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/gorse-io/blas/base/log"
	"github.com/gorse-io/blas/blas"
	"github.com/gorse-io/blas/config"
	"github.com/gorse-io/blas/counter"
	"github.com/gorse-io/blas/tile"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDims(t *testing.T) {
	dims, err := ParseDims("256x128x64")
	assert.NoError(t, err)
	assert.Equal(t, []Dim{{256, 128, 64}}, dims)

	dims, err = ParseDims("100, 200x50")
	assert.NoError(t, err)
	assert.Equal(t, []Dim{{100, 100, 100}, {200, 50, 50}}, dims)

	dims, err = ParseDims("64:192:64x32x8:9")
	assert.NoError(t, err)
	assert.Equal(t, []Dim{
		{64, 32, 8}, {64, 32, 9},
		{128, 32, 8}, {128, 32, 9},
		{192, 32, 8}, {192, 32, 9},
	}, dims)

	for _, text := range []string{"", ",", "1x2x3x4", "ax2", "-1", "1:8:0", "1:2:3:4"} {
		_, err = ParseDims(text)
		assert.True(t, errors.Is(err, errors.NotValid), text)
	}
}

func TestFlops(t *testing.T) {
	assert.Equal(t, float64(2*4*5*6), gemmFlops[float64](4, 5, 6))
	assert.Equal(t, float64(8*4*5*6), gemmFlops[complex128](4, 5, 6))
	assert.Equal(t, float64(3*4*5), syrkFlops[float32](4, 3))
	assert.Equal(t, float64(4*3*4*5), syrkFlops[complex64](4, 3))
	assert.Equal(t, 2.0, gflops(2e9, time.Second))
	assert.Zero(t, gflops(1, 0))
}

func TestFill(t *testing.T) {
	x := fill[float64](7, 3*fillChunk+5, 4)
	y := fill[float64](7, 3*fillChunk+5, 1)
	assert.Equal(t, x, y)
	for _, v := range x {
		assert.True(t, v >= 0 && v < 1)
	}
	z := fill[complex64](7, 10, 2)
	assert.Len(t, z, 10)
	assert.NotZero(t, imag(z[0]))
}

func TestBest(t *testing.T) {
	var setups, runs int
	_, err := best(3, func() error {
		setups++
		return nil
	}, func() error {
		runs++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, setups)
	assert.Equal(t, 3, runs)

	_, err = best(3, nil, func() error {
		return errors.New("run failed")
	})
	assert.EqualError(t, err, "run failed")
}

func newCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("config", "", "")
	cmd.Flags().Bool("ref", false, "")
	sweepFlags(cmd.Flags())
	log.AddFlags(cmd.Flags())
	return cmd
}

func TestLoadConfig(t *testing.T) {
	cmd := newCommand()
	require.NoError(t, cmd.Flags().Set("type", "z"))
	require.NoError(t, cmd.Flags().Set("dim", "64x64x16"))
	require.NoError(t, cmd.Flags().Set("alpha", "2"))
	require.NoError(t, cmd.Flags().Set("ref", "true"))
	require.NoError(t, cmd.Flags().Set("debug", "true"))
	conf, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "z", conf.Tester.Type)
	assert.Equal(t, "64x64x16", conf.Tester.Dim)
	assert.Equal(t, 2.0, conf.Tester.Alpha)
	assert.True(t, conf.Tester.Ref)
	assert.True(t, conf.Log.Debug)
	// unchanged flags keep the configured values
	assert.Equal(t, 1.0, conf.Tester.Beta)
	assert.Equal(t, 1, conf.Tester.Repeat)

	cmd = newCommand()
	require.NoError(t, cmd.Flags().Set("align", "0"))
	_, err = loadConfig(cmd)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func newTestEnv(t *testing.T, conf *config.Config) *env {
	conf.Device.Workers = 2
	e, err := newEnv(context.Background(), conf, 4)
	require.NoError(t, err)
	return e
}

func TestSchurGemm(t *testing.T) {
	conf := config.GetDefaultConfig()
	conf.Tester.Ref = true
	conf.Tester.Align = 8
	conf.Tester.Repeat = 2
	e := newTestEnv(t, conf)
	ctx := context.Background()

	out, ok, err := schur[float64](ctx, e, Dim{M: 22, N: 13, K: 4})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Dim{M: 20, N: 12, K: 4}, out.Dim)
	assert.Equal(t, 15, out.Batch)
	assert.Positive(t, out.Time)
	assert.Positive(t, out.RefTime)
	// the batched update matches a single Gemm over the whole matrix
	ldc := tile.LeadingDim(20, 8)
	initial := fill[float64](1<<21, ldc*12, 2)
	require.Len(t, out.C, len(initial))
	require.Len(t, out.RefC, len(initial))
	assert.NotEqual(t, initial[0], out.C[0])
	for i := range out.C {
		assert.InDelta(t, out.RefC[i], out.C[i], 1e-9, "index %d", i)
	}

	_, ok, err = schurGemm[complex64](ctx, e, Dim{M: 3, N: 8, K: 4})
	assert.NoError(t, err)
	assert.False(t, ok)

	var buf bytes.Buffer
	require.NoError(t, counter.Print(&buf, e.registry))
	assert.Contains(t, buf.String(), "gemm( N, N, 4, 4, 4 ) count 30")
	assert.Contains(t, buf.String(), "gemm( N, N, 20, 12, 4 ) count 2")

	assert.Zero(t, e.dev.Allocated())
	assert.NoError(t, e.Close(ctx))
}

func TestHostRoutines(t *testing.T) {
	conf := config.GetDefaultConfig()
	e := newTestEnv(t, conf)
	ctx := context.Background()

	opts := hostOptions{layout: blas.RowMajor, transA: blas.Trans, transB: blas.NoTrans, uplo: blas.Upper}
	r, ok, err := hostGemm[float32](opts)(ctx, e, Dim{M: 7, N: 5, K: 3})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, r.Batch)

	r, ok, err = hostSyrk[complex128](opts)(ctx, e, Dim{M: 6, N: 6, K: 2})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Dim{M: 6, N: 6, K: 2}, r.Dim)

	opts.transA = blas.ConjTrans
	_, _, err = hostSyrk[complex128](opts)(ctx, e, Dim{M: 6, N: 6, K: 2})
	assert.True(t, blas.IsPrecondition(err))

	var buf bytes.Buffer
	require.NoError(t, counter.Print(&buf, e.registry))
	assert.Contains(t, buf.String(), "gemm( T, N, 7, 5, 3 ) count 1")
	assert.Contains(t, buf.String(), "syrk( U, T, 6, 2 ) count 1")
	assert.NoError(t, e.Close(ctx))
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printResults(&buf, []result{
		{Type: "d", Dim: Dim{M: 256, N: 256, K: 64}, Batch: 16, Time: time.Millisecond, Gflops: 8.389},
		{Type: "d", Dim: Dim{M: 512, N: 512, K: 64}, Batch: 64, Time: time.Millisecond, Gflops: 33.554,
			RefTime: 2 * time.Millisecond, RefGflops: 16.777},
	}))
	output := buf.String()
	for _, header := range []string{"Type", "Batch", "Time (ms)", "Gflop/s", "Ref time (ms)", "Ref Gflop/s"} {
		assert.Contains(t, output, header)
	}
	assert.NotContains(t, output, "GFLOP")
	assert.Contains(t, output, "8.389")
	assert.Contains(t, output, "16.777")
	assert.Contains(t, output, "NA")
}
