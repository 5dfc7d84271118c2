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
	"context"
	"fmt"
	"os"

	"github.com/gorse-io/blas/base/log"
	"github.com/gorse-io/blas/cmd/version"
	"github.com/gorse-io/blas/config"
	"github.com/gorse-io/blas/counter"
	"github.com/gorse-io/blas/device"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:   "blas-tester",
	Short: "Tester of batched and single-call BLAS routines.",
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion, _ := cmd.PersistentFlags().GetBool("version"); showVersion {
			fmt.Println(version.BuildInfo())
			return
		}
		_ = cmd.Help()
	},
}

func init() {
	rootCommand.PersistentFlags().StringP("config", "c", "", "Configuration file path.")
	rootCommand.PersistentFlags().BoolP("version", "v", false, "Gorse BLAS version")
	rootCommand.PersistentFlags().Bool("counter", false, "Print routine call counts after the sweep.")
	log.AddFlags(rootCommand.PersistentFlags())
}

// sweepFlags registers the flags shared by every test command.
func sweepFlags(flagSet *pflag.FlagSet) {
	flagSet.StringP("type", "t", "", "Element type (s, d, c or z).")
	flagSet.String("dim", "", "Problem sizes, e.g. 256x256x64,512 or 128:512:128x64.")
	flagSet.Int("align", 0, "Leading dimensions are rounded up to a multiple of align.")
	flagSet.Float64("alpha", 0, "Scalar alpha.")
	flagSet.Float64("beta", 0, "Scalar beta.")
	flagSet.Int("repeat", 0, "Runs per size; the fastest is reported.")
}

// loadConfig loads the configuration file and overrides it with the flags
// set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errors.Trace(err)
	}
	flags := cmd.Flags()
	if flags.Changed("type") {
		conf.Tester.Type, _ = flags.GetString("type")
	}
	if flags.Changed("dim") {
		conf.Tester.Dim, _ = flags.GetString("dim")
	}
	if flags.Changed("align") {
		conf.Tester.Align, _ = flags.GetInt("align")
	}
	if flags.Changed("alpha") {
		conf.Tester.Alpha, _ = flags.GetFloat64("alpha")
	}
	if flags.Changed("beta") {
		conf.Tester.Beta, _ = flags.GetFloat64("beta")
	}
	if flags.Changed("repeat") {
		conf.Tester.Repeat, _ = flags.GetInt("repeat")
	}
	if flags.Changed("ref") {
		conf.Tester.Ref, _ = flags.GetBool("ref")
	}
	override := log.OptionsFromFlags(flags)
	if flags.Changed("debug") {
		conf.Log.Debug = override.Debug
	}
	if flags.Changed("log-path") {
		conf.Log.Path = override.Path
	}
	if flags.Changed("log-max-size") {
		conf.Log.MaxSize = override.MaxSize
	}
	if flags.Changed("log-max-age") {
		conf.Log.MaxAge = override.MaxAge
	}
	if flags.Changed("log-max-backups") {
		conf.Log.MaxBackups = override.MaxBackups
	}
	if err = conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return conf, nil
}

// env is the device and queue a sweep runs on.
type env struct {
	conf     *config.Config
	registry *prometheus.Registry
	tracer   *sdktrace.TracerProvider
	dev      *device.Device
	queue    *device.Queue
}

func newEnv(ctx context.Context, conf *config.Config, batchHint int) (*env, error) {
	e := &env{conf: conf, registry: prometheus.NewRegistry()}
	queueOptions := []device.QueueOption{device.WithCounter(counter.NewPrometheus(e.registry))}
	if conf.Tracing.EnableTracing {
		tp, err := conf.Tracing.NewTracerProvider(ctx)
		if err != nil {
			return nil, errors.Trace(err)
		}
		otel.SetTracerProvider(tp)
		otel.SetErrorHandler(log.GetErrorHandler())
		e.tracer = tp
		queueOptions = append(queueOptions, device.WithTracerProvider(tp))
	}
	dev, err := device.Open(conf.Device.ID,
		device.WithMemoryLimit(conf.Device.MemoryLimit),
		device.WithWorkers(conf.Device.Workers),
		device.WithRegisterer(e.registry))
	if err != nil {
		return nil, errors.Trace(err)
	}
	e.dev = dev
	e.queue, err = device.NewQueue(dev, batchHint, queueOptions...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return e, nil
}

func (e *env) Close(ctx context.Context) error {
	err := e.queue.Close()
	if closeErr := e.dev.Close(); err == nil {
		err = closeErr
	}
	if e.tracer != nil {
		if shutdownErr := e.tracer.Shutdown(ctx); err == nil {
			err = shutdownErr
		}
	}
	return errors.Trace(err)
}

// run executes a sweep command: it loads the configuration, sets up the
// logger and the device, and prints the result table.
func run(cmd *cobra.Command, sweep func(ctx context.Context, e *env, dims []Dim) ([]result, error)) {
	conf, err := loadConfig(cmd)
	if err != nil {
		log.SetLogger(log.OptionsFromFlags(cmd.Flags()))
		log.Logger().Fatal("failed to load config", zap.Error(err))
	}
	log.SetLogger(conf.Log.Options())
	defer log.CloseLogger()
	dims, err := ParseDims(conf.Tester.Dim)
	if err != nil {
		log.Logger().Fatal("failed to parse dim", zap.Error(err))
	}

	// size the queue workspace for the largest tiled batch of the sweep
	batchHint := lo.Max(lo.Map(dims, func(d Dim, _ int) int {
		if d.K <= 0 {
			return 0
		}
		return (d.M / d.K) * (d.N / d.K)
	}))
	ctx := context.Background()
	e, err := newEnv(ctx, conf, batchHint)
	if err != nil {
		log.Logger().Fatal("failed to open device", zap.Error(err))
	}
	results, err := sweep(ctx, e, dims)
	if err != nil {
		log.Logger().Fatal("failed to run sweep", zap.Error(err))
	}
	if err = printResults(os.Stdout, results); err != nil {
		log.Logger().Error("failed to print results", zap.Error(err))
	}
	if printCounter, _ := cmd.Flags().GetBool("counter"); printCounter {
		if err = counter.Print(os.Stdout, e.registry); err != nil {
			log.Logger().Error("failed to print counter", zap.Error(err))
		}
	}
	if err = e.Close(ctx); err != nil {
		log.Logger().Error("failed to close device", zap.Error(err))
	}
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute command", zap.Error(err))
	}
}
