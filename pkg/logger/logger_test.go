package logger

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liscraper/pkg/config"
)

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"disabled", zerolog.Disabled},
	}
	for _, c := range cases {
		level, err := parseLogLevel(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, level, c.in)
	}

	_, err := parseLogLevel("loud")
	assert.Error(t, err)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&config.LoggingConfig{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestTestLoggerCapturesMessages(t *testing.T) {
	l := NewTestLogger()

	l.Info("starting up")
	l.WithField("count", 3).Warn("slow listing")
	l.WithError(errors.New("boom")).Error("commit failed")
	l.InfoWithFields("iteration complete", map[string]interface{}{"iteration": 7})

	assert.True(t, l.HasMessage("info", "starting up"))
	assert.True(t, l.HasMessage("warn", "slow listing"))
	assert.True(t, l.HasMessage("error", "commit failed"))

	msgs := l.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, 3, msgs[1].Fields["count"])
	assert.Equal(t, "boom", msgs[2].Fields["error"])
	assert.Equal(t, 7, msgs[3].Fields["iteration"])
}

func TestTestLoggerChildFieldsAccumulate(t *testing.T) {
	l := NewTestLogger()

	child := l.WithField("component", "harvester").WithField("run", 1)
	child.Info("bound fields travel")

	msgs := l.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "harvester", msgs[0].Fields["component"])
	assert.Equal(t, 1, msgs[0].Fields["run"])
}

func TestSetLoggerReplacesGlobal(t *testing.T) {
	prev := GetLogger()
	defer SetLogger(prev)

	capture := NewTestLogger()
	SetLogger(capture)

	Info("global message")
	assert.True(t, capture.HasMessage("info", "global message"))
}
