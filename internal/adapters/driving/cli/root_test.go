package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ferry-cli/internal/logger"
)

// TestRootCmd_Use tests the root command name
func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "ferry", rootCmd.Use)
}

// TestRootCmd_HasSubcommands tests that every command group is mounted
func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}

	assert.Contains(t, names, "fs")
	assert.Contains(t, names, "webdav")
	assert.Contains(t, names, "scm")
	assert.Contains(t, names, "config")
	assert.Contains(t, names, "version")
}

// TestRootCmd_VerboseFlag tests that --verbose switches debug logging on
func TestRootCmd_VerboseFlag(t *testing.T) {
	defer func() {
		verbose = false
		logger.SetVerbose(false)
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"--verbose", "version"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	require.NoError(t, err)
	assert.True(t, logger.IsVerbose())
}

// TestWireServices_WithoutEndpoint tests that a missing backend URL leaves the backend services nil
func TestWireServices_WithoutEndpoint(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	prevConfigDir := configDir
	configDir = t.TempDir()
	defer func() { configDir = prevConfigDir }()

	ingestor = nil
	manifestRunner = nil
	commitSyncer = nil

	err := wireServices()
	require.NoError(t, err)
	assert.NotNil(t, configStore)
	assert.NotNil(t, providerFactory)
	assert.Nil(t, ingestor)
	assert.Nil(t, manifestRunner)
	assert.Nil(t, commitSyncer)
}

// TestWireServices_WithEndpoint tests the full production graph wiring
func TestWireServices_WithEndpoint(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	dir := t.TempDir()
	content := "[ingester]\nbase_url = \"https://ingest.example.test\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))
	prevConfigDir := configDir
	configDir = dir
	defer func() { configDir = prevConfigDir }()

	err := wireServices()
	require.NoError(t, err)
	assert.NotNil(t, ingestor)
	assert.NotNil(t, manifestRunner)
	assert.NotNil(t, commitSyncer)
	assert.Equal(t, "https://ingest.example.test", agentSettings.Ingester.BaseURL)
}
