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
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Dim is one problem size of a sweep.
type Dim struct {
	M int
	N int
	K int
}

// ParseDims parses a comma separated list of sizes. A size is MxNxK, MxN
// (K = N) or N (M = N = K). Every extent may be a range start:stop:step,
// which expands to the product of the ranges.
func ParseDims(text string) ([]Dim, error) {
	var dims []Dim
	for _, field := range strings.Split(text, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		parts := strings.Split(field, "x")
		if len(parts) > 3 {
			return nil, errors.NotValidf("dim %q", field)
		}
		extents := make([][]int, len(parts))
		for i, part := range parts {
			values, err := parseRange(part)
			if err != nil {
				return nil, errors.Annotatef(err, "dim %q", field)
			}
			extents[i] = values
		}
		switch len(extents) {
		case 1:
			for _, v := range extents[0] {
				dims = append(dims, Dim{M: v, N: v, K: v})
			}
		case 2:
			for _, m := range extents[0] {
				for _, n := range extents[1] {
					dims = append(dims, Dim{M: m, N: n, K: n})
				}
			}
		case 3:
			for _, m := range extents[0] {
				for _, n := range extents[1] {
					for _, k := range extents[2] {
						dims = append(dims, Dim{M: m, N: n, K: k})
					}
				}
			}
		}
	}
	if len(dims) == 0 {
		return nil, errors.NotValidf("empty dim %q", text)
	}
	return dims, nil
}

func parseRange(text string) ([]int, error) {
	parts := strings.Split(text, ":")
	values := make([]int, len(parts))
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, errors.NotValidf("extent %q", part)
		}
		if v < 0 {
			return nil, errors.NotValidf("negative extent %d", v)
		}
		values[i] = v
	}
	switch len(values) {
	case 1:
		return values, nil
	case 2:
		return lo.RangeWithSteps(values[0], values[1]+1, 1), nil
	case 3:
		if values[2] == 0 {
			return nil, errors.NotValidf("zero step in %q", text)
		}
		return lo.RangeWithSteps(values[0], values[1]+1, values[2]), nil
	default:
		return nil, errors.NotValidf("range %q", text)
	}
}
