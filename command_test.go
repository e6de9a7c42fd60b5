package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villa-importer/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Collection:      "villas",
		Store:           config.StoreMemory,
		MaxBatchSize:    config.DefaultBatchSize,
		DuplicatePolicy: config.DuplicatesReject,
		LogLevel:        "error",
	}
}

func execute(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeWithStderr(t, cfg, args...)
	return out, err
}

func executeWithStderr(t *testing.T, cfg *config.Config, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand(cfg)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "villas.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCommandImportsIntoMemoryStore(t *testing.T) {
	path := writeFile(t, `[{"id":"v1","price":100},{"id":"v2","price":200}]`)

	out, err := execute(t, testConfig(), "--file", path, "--batch-size", "1")
	require.NoError(t, err)

	assert.Contains(t, out, "Batches attempted  : 2")
	assert.Contains(t, out, "Batches succeeded  : 2")
	assert.Contains(t, out, "Documents written  : 2")
}

func TestCommandFailsOnInvalidRecords(t *testing.T) {
	path := writeFile(t, `[{"id":"v1"},{"price":2}]`)

	out, err := execute(t, testConfig(), "--file", path)
	require.Error(t, err)
	assert.Contains(t, out, "Batches attempted  : 0")
}

func TestCommandDryRunSkipsStore(t *testing.T) {
	path := writeFile(t, `[{"id":"v1"},{"id":"v2"},{"id":"v3"}]`)

	// firestore without a project would fail to open; dry run never opens it
	out, err := execute(t, testConfig(), "--file", path, "--store", "firestore", "--dry-run", "--batch-size", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "DRY RUN")
	assert.Contains(t, out, "Batches planned    : 2")
}

func TestCommandRejectsBadConfig(t *testing.T) {
	path := writeFile(t, `[]`)

	_, err := execute(t, testConfig(), "--file", path, "--duplicates", "first-wins")
	assert.Error(t, err)
}

func TestCommandWritesCSVReport(t *testing.T) {
	path := writeFile(t, `[{"id":"v1"},{"id":"v2"},{"id":"v3"}]`)
	report := filepath.Join(t.TempDir(), "report.csv")

	_, err := execute(t, testConfig(), "--file", path, "--batch-size", "2", "--report-csv", report)
	require.NoError(t, err)

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3)
}

func TestCommandPrintsFlagErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--bogus"}},
		{"malformed batch size", []string{"--batch-size", "x"}},
		{"positional argument", []string{"villas.json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := executeWithStderr(t, testConfig(), tt.args...)
			require.Error(t, err)
			assert.Contains(t, stderr, "Error:")
			assert.Contains(t, stderr, err.Error())
		})
	}
}

func TestCommandPrintsImportErrors(t *testing.T) {
	path := writeFile(t, `[{"price":1}]`)

	_, stderr, err := executeWithStderr(t, testConfig(), "--file", path)
	require.Error(t, err)
	assert.Contains(t, stderr, "missing id")
}
