package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	tcs := []struct {
		in     string
		expect zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"-1", zapcore.DebugLevel},
		{"2", zapcore.ErrorLevel},
		{"nonsense", zapcore.InfoLevel},
	}
	for _, tc := range tcs {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.expect, ParseLogLevel(tc.in))
		})
	}
}
