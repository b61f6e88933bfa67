package logger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	err := Setup(LogConfig{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)

	l := WithInvoice("export", "inv-42")
	l.Info().Msg("exported")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "export", entry["component"])
	assert.Equal(t, "inv-42", entry["invoice_id"])
	assert.Equal(t, "exported", entry["message"])
}

func TestSetup_InvalidLevel(t *testing.T) {
	err := Setup(LogConfig{Level: "loud", Format: "json", Output: "stderr"})
	assert.Error(t, err)
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	custom := zerolog.Nop().With().Str("request_id", "r1").Logger().Level(zerolog.InfoLevel)
	ctx := WithContext(context.Background(), custom)
	assert.Equal(t, zerolog.InfoLevel, FromContext(ctx).GetLevel())
}
