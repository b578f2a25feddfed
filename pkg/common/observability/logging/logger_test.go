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
	"testing"

	"github.com/stretchr/testify/assert"
	uberzap "go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// These tests mutate the shared level and therefore do not run in parallel.

func TestInitLogging(t *testing.T) {
	t.Cleanup(func() { SetVerbosity(0) })

	InitLogging(&zap.Options{Level: uberzap.NewAtomicLevelAt(zapcore.Level(-DEBUG))})
	assert.Equal(t, DEBUG, Verbosity())

	InitLogging(&zap.Options{Level: zapcore.ErrorLevel})
	assert.Equal(t, zapcore.ErrorLevel, level.Level())

	InitLogging(&zap.Options{})
	assert.Equal(t, zapcore.ErrorLevel, level.Level(), "options without a level must leave it unchanged")
}

func TestSetVerbosity(t *testing.T) {
	t.Cleanup(func() { SetVerbosity(0) })

	SetVerbosity(TRACE)
	assert.Equal(t, TRACE, Verbosity())
	assert.True(t, level.Enabled(zapcore.Level(-TRACE)))
	assert.False(t, level.Enabled(zapcore.Level(-TRACE-1)))
}

func TestNewTestLogger(t *testing.T) {
	logger := NewTestLogger()
	assert.True(t, logger.V(TRACE).Enabled(), "test loggers must emit trace output")
	assert.False(t, logger.V(TRACE+1).Enabled())
}
