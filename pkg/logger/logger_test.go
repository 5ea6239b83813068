package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProductionWritesJSONWithServiceFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "info", Environment: "production", Service: "survivor-api", Output: &buf})
	require.NoError(t, err)

	log.Component("pick_service").WithLeague("league-1", "alice").
		WithError(errors.New("boom")).Info("Pick rejected")
	require.NoError(t, log.Sync())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Pick rejected", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "pick_service", entry["component"])
	assert.Equal(t, "survivor-api", entry["service"])
	assert.Equal(t, "production", entry["environment"])
	assert.Equal(t, "league-1", entry["league_id"])
	assert.Equal(t, "alice", entry["user_id"])
	assert.Equal(t, "boom", entry["error"])
}

func TestNew_DevelopmentWritesConsoleLines(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "debug", Environment: "development", Output: &buf})
	require.NoError(t, err)

	log.Debug("reconcile pass")
	require.NoError(t, log.Sync())

	line := buf.String()
	assert.Contains(t, line, "reconcile pass")
	assert.False(t, strings.HasPrefix(strings.TrimSpace(line), "{"))
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "warn", Environment: "production", Output: &buf})
	require.NoError(t, err)

	log.Info("dropped")
	log.Warn("kept")
	require.NoError(t, log.Sync())

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: "info"},
		{in: "DEBUG", want: "debug"},
		{in: " warning ", want: "warn"},
		{in: "error", want: "error"},
		{in: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLogLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestWithLeague_OmitsEmptyUser(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Environment: "production", Output: &buf})
	require.NoError(t, err)

	log.WithLeague("league-1", "").Info("standings built")
	require.NoError(t, log.Sync())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "league-1", entry["league_id"])
	assert.NotContains(t, entry, "user_id")
}
