package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"json info", Config{Level: "info", Format: FormatJSON}, false},
		{"console debug", Config{Level: "debug", Format: FormatConsole}, false},
		{"uppercase level", Config{Level: "WARN", Format: FormatJSON}, false},
		{"unknown level", Config{Level: "verbose", Format: FormatJSON}, true},
		{"unknown format", Config{Level: "info", Format: "logfmt"}, true},
		{"empty format", Config{Level: "info"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewWithSink_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithSink(Config{Level: "info", Format: FormatJSON}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("corpus store opened", zap.String("path", ":memory:"))
	require.NoError(t, logger.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1, "debug is below the configured level")

	var record map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &record))
	assert.Equal(t, "corpus store opened", record["msg"])
	assert.Equal(t, ":memory:", record["path"])
	assert.Contains(t, record, "ts")
}

func TestNewWithSink_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithSink(Config{Level: "debug", Format: FormatConsole}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Debug("similarity scan", zap.Int("window", 2000))
	assert.Contains(t, buf.String(), "similarity scan")
	assert.Contains(t, buf.String(), "debug")
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{Level: "info", Format: "xml"})
	assert.Error(t, err)
}
