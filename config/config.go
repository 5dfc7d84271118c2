// Copyright 2020 gorse Project Authors
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

package config

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorse-io/blas/base/log"
	"github.com/juju/errors"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config is the configuration of the tester.
type Config struct {
	Device  DeviceConfig  `mapstructure:"device"`
	Log     LogConfig     `mapstructure:"log"`
	Tester  TesterConfig  `mapstructure:"tester"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// DeviceConfig is the configuration of the device routines run on.
type DeviceConfig struct {
	ID          int   `mapstructure:"id" validate:"gte=0"`
	MemoryLimit int64 `mapstructure:"memory_limit" validate:"gte=0"`
	Workers     int   `mapstructure:"workers" validate:"gte=0"`
}

// LogConfig is the configuration of the log file.
type LogConfig struct {
	Debug      bool   `mapstructure:"debug"`
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size" validate:"gte=0"`
	MaxAge     int    `mapstructure:"max_age" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
}

// Options converts the configuration to logger options.
func (config *LogConfig) Options() log.Options {
	return log.Options{
		Debug:      config.Debug,
		Path:       config.Path,
		MaxSize:    config.MaxSize,
		MaxAge:     config.MaxAge,
		MaxBackups: config.MaxBackups,
	}
}

// TesterConfig is the configuration of a test sweep.
type TesterConfig struct {
	Type   string  `mapstructure:"type" validate:"oneof=s d c z"`
	Dim    string  `mapstructure:"dim" validate:"required"`
	Align  int     `mapstructure:"align" validate:"gte=1"`
	Alpha  float64 `mapstructure:"alpha"`
	Beta   float64 `mapstructure:"beta"`
	Repeat int     `mapstructure:"repeat" validate:"gte=1"`
	Ref    bool    `mapstructure:"ref"`
}

// TracingConfig is the configuration of the span exporter.
type TracingConfig struct {
	EnableTracing     bool    `mapstructure:"enable_tracing"`
	Exporter          string  `mapstructure:"exporter" validate:"oneof=otlp otlphttp zipkin"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"`
	Sampler           string  `mapstructure:"sampler" validate:"oneof=always never ratio"`
	Ratio             float64 `mapstructure:"ratio" validate:"gte=0,lte=1"`
}

// NewTracerProvider creates the tracer provider that exports spans to the
// configured collector.
func (config *TracingConfig) NewTracerProvider(ctx context.Context) (*sdktrace.TracerProvider, error) {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch config.Exporter {
	case "otlp":
		exporter, err = otlptrace.New(ctx, otlptracegrpc.NewClient(
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(config.CollectorEndpoint)))
	case "otlphttp":
		exporter, err = otlptrace.New(ctx, otlptracehttp.NewClient(
			otlptracehttp.WithInsecure(),
			otlptracehttp.WithEndpoint(config.CollectorEndpoint)))
	case "zipkin":
		exporter, err = zipkin.New(config.CollectorEndpoint)
	default:
		return nil, errors.NotSupportedf("exporter %s", config.Exporter)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(config.newSampler()),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", "blas-tester"))),
	), nil
}

func (config *TracingConfig) newSampler() sdktrace.Sampler {
	switch config.Sampler {
	case "never":
		return sdktrace.NeverSample()
	case "ratio":
		return sdktrace.TraceIDRatioBased(config.Ratio)
	default:
		return sdktrace.AlwaysSample()
	}
}

func GetDefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			MaxSize: 100,
		},
		Tester: TesterConfig{
			Type:   "d",
			Dim:    "256x256x64",
			Align:  1,
			Alpha:  -1,
			Beta:   1,
			Repeat: 1,
		},
		Tracing: TracingConfig{
			Exporter: "otlp",
			Sampler:  "always",
			Ratio:    1,
		},
	}
}

func setDefault() {
	defaultConfig := GetDefaultConfig()
	// [device]
	viper.SetDefault("device.id", defaultConfig.Device.ID)
	viper.SetDefault("device.memory_limit", defaultConfig.Device.MemoryLimit)
	viper.SetDefault("device.workers", defaultConfig.Device.Workers)
	// [log]
	viper.SetDefault("log.debug", defaultConfig.Log.Debug)
	viper.SetDefault("log.path", defaultConfig.Log.Path)
	viper.SetDefault("log.max_size", defaultConfig.Log.MaxSize)
	viper.SetDefault("log.max_age", defaultConfig.Log.MaxAge)
	viper.SetDefault("log.max_backups", defaultConfig.Log.MaxBackups)
	// [tester]
	viper.SetDefault("tester.type", defaultConfig.Tester.Type)
	viper.SetDefault("tester.dim", defaultConfig.Tester.Dim)
	viper.SetDefault("tester.align", defaultConfig.Tester.Align)
	viper.SetDefault("tester.alpha", defaultConfig.Tester.Alpha)
	viper.SetDefault("tester.beta", defaultConfig.Tester.Beta)
	viper.SetDefault("tester.repeat", defaultConfig.Tester.Repeat)
	viper.SetDefault("tester.ref", defaultConfig.Tester.Ref)
	// [tracing]
	viper.SetDefault("tracing.enable_tracing", defaultConfig.Tracing.EnableTracing)
	viper.SetDefault("tracing.exporter", defaultConfig.Tracing.Exporter)
	viper.SetDefault("tracing.collector_endpoint", defaultConfig.Tracing.CollectorEndpoint)
	viper.SetDefault("tracing.sampler", defaultConfig.Tracing.Sampler)
	viper.SetDefault("tracing.ratio", defaultConfig.Tracing.Ratio)
}

func init() {
	setDefault()
}

// LoadConfig loads the configuration from a TOML file. An empty path loads
// the defaults. Environment variables BLAS_<SECTION>_<KEY> take precedence.
func LoadConfig(path string) (*Config, error) {
	viper.SetEnvPrefix("blas")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if path != "" {
		viper.SetConfigFile(path)
		viper.SetConfigType("toml")
		if err := viper.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, errors.Trace(err)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &config, nil
}

func (config *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return errors.NewNotValid(err, "invalid config")
	}
	return nil
}
