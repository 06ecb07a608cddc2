package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/saliency/internal/config"
)

func TestNewLogger_FileClosed(t *testing.T) {
	cfg := config.Default()
	cfg.Log.File = filepath.Join(t.TempDir(), "saliency.log")

	logger, closeLogger, err := newLogger(cfg, &bytes.Buffer{})
	require.NoError(t, err)

	logger.Info("written before close")
	require.NoError(t, closeLogger())

	logs, err := os.ReadFile(cfg.Log.File)
	require.NoError(t, err)
	assert.Contains(t, string(logs), "written before close")

	// The file can be removed once the handle is released.
	require.NoError(t, os.Remove(cfg.Log.File))
}

func TestNewLogger_Stderr(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Format = "console"

	var stderr bytes.Buffer
	logger, closeLogger, err := newLogger(cfg, &stderr)
	require.NoError(t, err)

	logger.Info("to stderr")
	assert.NoError(t, closeLogger())
	assert.Contains(t, stderr.String(), "to stderr")
}

func TestNewLogger_BadLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "loud"

	_, _, err := newLogger(cfg, &bytes.Buffer{})
	assert.Error(t, err)
}
