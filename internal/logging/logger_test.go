package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize_DisabledIsNoOp(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Settings{DebugMode: false}))
	defer Close()

	Agent("should go nowhere")
	Tools("also nowhere")

	_, err := os.Stat(filepath.Join(dir, ".tablenerd", "logs"))
	assert.True(t, os.IsNotExist(err), "disabled logging must not touch the filesystem")
}

func TestInitialize_WritesCategoryFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Settings{DebugMode: true, Level: "debug"}))
	defer Close()

	Agent("planning started session=%s", "abc")
	Store("turn persisted")

	logsDir := filepath.Join(dir, ".tablenerd", "logs")
	entries, err := os.ReadDir(logsDir)
	require.NoError(t, err)

	var agentFile string
	for _, e := range entries {
		if strings.Contains(e.Name(), "agent") {
			agentFile = filepath.Join(logsDir, e.Name())
		}
	}
	require.NotEmpty(t, agentFile, "expected a per-category agent log file")

	data, err := os.ReadFile(agentFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "planning started session=abc")
	assert.Contains(t, string(data), "[INFO]")
}

func TestInitialize_LevelFiltersDebug(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Settings{DebugMode: true, Level: "info"}))
	defer Close()

	AgentDebug("noisy detail")
	Agent("kept line")

	logsDir := filepath.Join(dir, ".tablenerd", "logs")
	entries, err := os.ReadDir(logsDir)
	require.NoError(t, err)

	for _, e := range entries {
		if !strings.Contains(e.Name(), "agent") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(logsDir, e.Name()))
		require.NoError(t, err)
		assert.NotContains(t, string(data), "noisy detail")
		assert.Contains(t, string(data), "kept line")
	}
}

func TestCategoryToggles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Settings{
		DebugMode:  true,
		Level:      "debug",
		Categories: map[string]bool{"tools": false},
	}))
	defer Close()

	assert.False(t, IsCategoryEnabled(CategoryTools))
	assert.True(t, IsCategoryEnabled(CategoryAgent))

	// Disabled categories still hand out safe no-op loggers.
	Tools("dropped on the floor")
}

func TestClose_WithoutInitialize(t *testing.T) {
	assert.NotPanics(t, func() { Close() })
}
