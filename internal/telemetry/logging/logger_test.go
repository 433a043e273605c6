package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "defaults", config: Config{}},
		{name: "json debug", config: Config{Level: "debug", Format: "json"}},
		{name: "text warn", config: Config{Level: "WARN", Format: "text"}},
		{name: "invalid level", config: Config{Level: "loud"}, wantErr: true},
		{name: "invalid format", config: Config{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, logger)

				return
			}

			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer

	logger, err := New(Config{Level: "warn", Format: "text", Writer: &buf})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "site", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "site=3")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer

	logger, err := New(Config{Format: "json", Writer: &buf})
	require.NoError(t, err)

	logger.Info("analyzed", "document", "Profile.cs")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "analyzed", record["msg"])
	assert.Equal(t, "Profile.cs", record["document"])
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))

	logger := Discard()
	assert.Same(t, logger, OrDiscard(logger))
	assert.NotPanics(t, func() { OrDiscard(nil).Info("dropped") })
}
