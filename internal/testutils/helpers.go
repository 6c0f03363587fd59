// Package testutils holds fixtures shared by package tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// AbsTempDir returns an absolute temporary directory removed after the test.
// The learned-category repository requires absolute roots.
func AbsTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")
	return dir
}

// WriteFile writes content to path, creating parent directories.
// It fails the test immediately on error.
func WriteFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
