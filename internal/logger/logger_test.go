package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAnonymize(t *testing.T) {
	cases := map[string]string{
		"login for elena@example.com":        "login for [REDACTED_EMAIL]",
		"token eyJhbGciOi.abc.def issued":    "token [REDACTED_TOKEN] issued",
		"followed by user_id=user-1":         "followed by user_id=[USER_ID]",
		"nothing sensitive in this sentence": "nothing sensitive in this sentence",
	}
	for in, want := range cases {
		assert.Equal(t, want, Anonymize(in))
	}
}

func TestLoggerRedactsMessageAndError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithZap(zap.New(core))

	l.Error("store", "write failed for john@example.com", errors.New("bad user_id=user-2"))
	l.Info("server", "started")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "write failed for [REDACTED_EMAIL]", entries[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "store", ctx["module"])
	assert.Equal(t, "bad user_id=[USER_ID]", ctx["error"])
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
}
