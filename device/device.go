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

// Package device provides host-backed device memory and execution queues.
package device

import (
	"runtime"
	"strconv"

	"github.com/gorse-io/blas/base/log"
	"github.com/juju/errors"
	"github.com/klauspost/cpuid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Count returns the number of available devices. The host device 0 is always
// present.
func Count() int {
	return 1
}

// Device is a compute device with its own memory pool.
type Device struct {
	id        int
	name      string
	limit     int64
	workers   int
	allocated atomic.Int64
	gauge     prometheus.Gauge
	logger    *zap.Logger
}

type options struct {
	limit      int64
	workers    int
	logger     *zap.Logger
	registerer prometheus.Registerer
}

// Option configures Open.
type Option func(*options)

// WithMemoryLimit caps the bytes that may be allocated on the device. Zero
// means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.limit = bytes
	}
}

// WithWorkers sets the number of workers used by a launch.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegisterer sets where the allocated bytes gauge is registered.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// Open opens device id.
func Open(id int, opts ...Option) (*Device, error) {
	if id < 0 || id >= Count() {
		return nil, errors.NotValidf("device %d (must be in [0, %d))", id, Count())
	}
	o := options{
		registerer: prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.limit < 0 {
		return nil, errors.NotValidf("memory limit %d", o.limit)
	}
	if o.workers < 0 {
		return nil, errors.NotValidf("workers %d", o.workers)
	}
	if o.workers == 0 {
		o.workers = cpuid.CPU.LogicalCores
		if o.workers <= 0 {
			o.workers = runtime.NumCPU()
		}
	}
	if o.logger == nil {
		o.logger = log.Logger()
	}
	gauge, err := allocatedBytes(o.registerer)
	if err != nil {
		return nil, errors.Trace(err)
	}
	dev := &Device{
		id:      id,
		name:    cpuid.CPU.BrandName,
		limit:   o.limit,
		workers: o.workers,
		gauge:   gauge.WithLabelValues(strconv.Itoa(id)),
		logger:  o.logger.With(zap.Int("device", id)),
	}
	if dev.name == "" {
		dev.name = runtime.GOARCH
	}
	dev.logger.Info("open device",
		zap.String("name", dev.name),
		zap.Int("workers", dev.workers),
		zap.Int64("memory_limit", dev.limit))
	return dev, nil
}

func allocatedBytes(reg prometheus.Registerer) (*prometheus.GaugeVec, error) {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "blas",
		Subsystem: "device",
		Name:      "allocated_bytes",
		Help:      "Bytes currently allocated on the device.",
	}, []string{"device"})
	if err := reg.Register(vec); err != nil {
		var registered prometheus.AlreadyRegisteredError
		if errors.As(err, &registered) {
			if existing, ok := registered.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
		}
		return nil, errors.Trace(err)
	}
	return vec, nil
}

func (dev *Device) ID() int {
	return dev.id
}

func (dev *Device) Name() string {
	return dev.name
}

// Workers returns the number of workers a launch runs on.
func (dev *Device) Workers() int {
	return dev.workers
}

// Allocated returns the bytes currently allocated on the device.
func (dev *Device) Allocated() int64 {
	return dev.allocated.Load()
}

func (dev *Device) Logger() *zap.Logger {
	return dev.logger
}

// Close reports buffers that were never freed.
func (dev *Device) Close() error {
	if leaked := dev.allocated.Load(); leaked > 0 {
		dev.logger.Warn("close device with allocated memory", zap.Int64("bytes", leaked))
	} else {
		dev.logger.Info("close device")
	}
	return nil
}

func (dev *Device) reserve(bytes int64) error {
	total := dev.allocated.Add(bytes)
	if dev.limit > 0 && total > dev.limit {
		dev.allocated.Sub(bytes)
		return errors.QuotaLimitExceededf("device %d: allocate %d bytes with %d of %d in use",
			dev.id, bytes, total-bytes, dev.limit)
	}
	dev.gauge.Set(float64(total))
	return nil
}

func (dev *Device) release(bytes int64) {
	dev.gauge.Set(float64(dev.allocated.Sub(bytes)))
}
