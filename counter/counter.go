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

// Package counter records which routines ran with which shapes.
package counter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gorse-io/blas/blas"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"
)

// ID identifies a routine in the counting set.
type ID int

const (
	Gemm ID = iota
	Hemm
	Her2k
	Herk
	Symm
	Syr2k
	Syrk
	Trmm
	Trsm
)

var names = []string{"gemm", "hemm", "her2k", "herk", "symm", "syr2k", "syrk", "trmm", "trsm"}

func (id ID) String() string {
	if id < 0 || int(id) >= len(names) {
		return "id(" + strconv.Itoa(int(id)) + ")"
	}
	return names[id]
}

// Shape is the hashable part of a call. Routines without a second operand
// leave TransB zero, routines without a triangle leave Uplo zero.
type Shape struct {
	Uplo   blas.Uplo
	TransA blas.Op
	TransB blas.Op
	M      int
	N      int
	K      int
}

// Counter accumulates calls. Implementations must be safe for concurrent use.
type Counter interface {
	Insert(id ID, shape Shape, n int)
}

// Noop drops every call.
type Noop struct{}

func (Noop) Insert(ID, Shape, int) {}

const (
	LabelRoutine = "routine"
	LabelUplo    = "uplo"
	LabelTransA  = "trans_a"
	LabelTransB  = "trans_b"
	LabelM       = "m"
	LabelN       = "n"
	LabelK       = "k"
)

// Prometheus counts calls in a counter vector.
type Prometheus struct {
	calls *prometheus.CounterVec
}

// NewPrometheus registers blas_routine_calls_total on reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	return &Prometheus{
		calls: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "blas",
			Subsystem: "routine",
			Name:      "calls_total",
			Help:      "Number of routine calls by shape.",
		}, []string{LabelRoutine, LabelUplo, LabelTransA, LabelTransB, LabelM, LabelN, LabelK}),
	}
}

func (p *Prometheus) Insert(id ID, shape Shape, n int) {
	p.calls.WithLabelValues(
		id.String(),
		lo.Ternary(shape.Uplo != 0, shape.Uplo.String(), ""),
		lo.Ternary(shape.TransA != 0, shape.TransA.String(), ""),
		lo.Ternary(shape.TransB != 0, shape.TransB.String(), ""),
		strconv.Itoa(shape.M),
		strconv.Itoa(shape.N),
		strconv.Itoa(shape.K),
	).Add(float64(n))
}

// Print writes every counted shape gathered from g, one line per shape.
func Print(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return errors.Trace(err)
	}
	for _, family := range families {
		if family.GetName() != "blas_routine_calls_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := make(map[string]string)
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			count := int64(metric.GetCounter().GetValue())
			var line string
			switch labels[LabelRoutine] {
			case "gemm":
				line = fmt.Sprintf("gemm( %s, %s, %s, %s, %s ) count %d",
					labels[LabelTransA], labels[LabelTransB], labels[LabelM], labels[LabelN], labels[LabelK], count)
			case "syrk", "herk":
				line = fmt.Sprintf("%s( %s, %s, %s, %s ) count %d",
					labels[LabelRoutine], labels[LabelUplo], labels[LabelTransA], labels[LabelN], labels[LabelK], count)
			default:
				line = fmt.Sprintf("%s( %s, %s, %s ) count %d",
					labels[LabelRoutine], labels[LabelM], labels[LabelN], labels[LabelK], count)
			}
			if _, err = fmt.Fprintln(w, line); err != nil {
				return errors.Trace(err)
			}
		}
	}
	return nil
}
