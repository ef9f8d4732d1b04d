package logger_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NamanBalaji/signedplay/internal/logger"
)

func TestDisabledByDefault(t *testing.T) {
	require.NoError(t, logger.InitLogging(false, ""))
	defer logger.Close()

	assert.False(t, logger.DebugEnabled)
	logger.Infof("not written")
}

func TestInitLogging_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "signedplay.log")

	require.NoError(t, logger.InitLogging(true, path))
	logger.Errorf("request %s failed", "abc")
	logger.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[ERROR] request abc failed")
}

func TestSetOutput(t *testing.T) {
	var buf bytes.Buffer

	logger.SetOutput(&buf)
	defer logger.Close()

	logger.Debugf("chunk %d", 7)
	logger.Warnf("slow")

	assert.Contains(t, buf.String(), "[DEBUG] chunk 7")
	assert.Contains(t, buf.String(), "[WARNING] slow")
}
