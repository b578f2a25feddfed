/*
Copyright 2025 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package logging

import (
	"github.com/go-logr/logr"
	uberzap "go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// level backs every logger built by InitSetupLogging. Flags are parsed after the first setup log line, so the level is
// adjusted in place instead of installing a second logger.
var level = uberzap.NewAtomicLevelAt(zapcore.InfoLevel)

// InitSetupLogging installs the process logger behind ctrl.Log at info level.
func InitSetupLogging() {
	ctrl.SetLogger(zap.New(zap.Level(level), zap.RawZapOpts(uberzap.AddCaller())))
}

// InitLogging applies the level parsed from the zap flags. ctrl.SetLogger only takes effect once, so a later call
// mutates the shared level rather than replacing the logger.
func InitLogging(opts *zap.Options) {
	if opts.Level == nil {
		return
	}
	switch lvl := opts.Level.(type) {
	case uberzap.AtomicLevel:
		level.SetLevel(lvl.Level())
	case zapcore.Level:
		level.SetLevel(lvl)
	}
}

// SetVerbosity maps a logr verbosity (as passed to -v) onto the shared zap level.
func SetVerbosity(v int) {
	level.SetLevel(zapcore.Level(int8(-v)))
}

// Verbosity returns the logr verbosity the shared level currently admits.
func Verbosity() int {
	return -int(level.Level())
}

// NewTestLogger creates a development-mode logger that emits every verbosity up to TRACE.
func NewTestLogger() logr.Logger {
	return zap.New(
		zap.UseDevMode(true),
		zap.Level(uberzap.NewAtomicLevelAt(zapcore.Level(-1*TRACE))),
		zap.RawZapOpts(uberzap.AddCaller()),
	)
}
