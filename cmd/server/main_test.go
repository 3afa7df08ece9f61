package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestLoggerConfigFormat(t *testing.T) {
	assert.Equal(t, "console", loggerConfig("info", "console").Encoding)
	assert.Equal(t, "json", loggerConfig("info", "json").Encoding)
	assert.Equal(t, "json", loggerConfig("info", "").Encoding)
}

func TestLoggerConfigLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, loggerConfig("debug", "json").Level.Level())
	assert.Equal(t, zapcore.WarnLevel, loggerConfig("warn", "json").Level.Level())
	assert.Equal(t, zapcore.ErrorLevel, loggerConfig("error", "console").Level.Level())
}
