// Copyright 2022 gorse Project Authors
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

package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestSetLogger(t *testing.T) {
	defer func(l *zap.Logger) { logger = l }(logger)
	path := filepath.Join(t.TempDir(), "blas.log")
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flagSet)
	assert.NoError(t, flagSet.Parse([]string{"--debug", "--log-path", path, "--log-max-size", "10"}))
	opts := OptionsFromFlags(flagSet)
	assert.Equal(t, Options{Debug: true, Path: path, MaxSize: 10}, opts)

	SetLogger(opts)
	assert.True(t, Logger().Core().Enabled(zapcore.DebugLevel))
	Logger().Info("hello")
	assert.NoError(t, Logger().Sync())
	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "hello")

	SetLogger(Options{})
	assert.False(t, Logger().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, Logger().Core().Enabled(zapcore.InfoLevel))
}

func TestCloseLogger(t *testing.T) {
	defer func(l *zap.Logger) { logger = l }(logger)
	CloseLogger()
	assert.False(t, Logger().Core().Enabled(zapcore.ErrorLevel))
	assert.True(t, Logger().Core().Enabled(zapcore.FatalLevel))
}
