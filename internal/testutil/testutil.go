// Package testutil provides file tree helpers for xmod tests.
package testutil

import (
	"maps"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/Iron-Ham/xmod/internal/eventlog"
	"github.com/Iron-Ham/xmod/internal/mode"
)

// DirMode is the mode of directories created by SetupTree and Mkdir.
const DirMode os.FileMode = 0o755

// SetupTree creates a temporary directory holding files, a map of slash
// separated relative paths to permission bits. Missing parent directories are
// created with DirMode. The tree is removed when the test completes.
func SetupTree(t *testing.T, files map[string]os.FileMode) string {
	t.Helper()

	root := t.TempDir()
	for _, rel := range slices.Sorted(maps.Keys(files)) {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), DirMode); err != nil {
			t.Fatalf("failed to create parent of %s: %v", rel, err)
		}
		WriteFile(t, path, files[rel])
	}
	return root
}

// WriteFile creates a one-byte file with exactly perm, regardless of umask.
func WriteFile(t *testing.T, path string, perm os.FileMode) {
	t.Helper()

	if err := os.WriteFile(path, []byte("x"), perm); err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	if err := os.Chmod(path, perm); err != nil {
		t.Fatalf("failed to chmod %s: %v", path, err)
	}
}

// Mkdir creates a directory with exactly DirMode.
func Mkdir(t *testing.T, path string) {
	t.Helper()

	if err := os.Mkdir(path, DirMode); err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	if err := os.Chmod(path, DirMode); err != nil {
		t.Fatalf("failed to chmod %s: %v", path, err)
	}
}

// Perm returns the rwx permission bits of path.
func Perm(t *testing.T, path string) os.FileMode {
	t.Helper()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("failed to stat %s: %v", path, err)
	}
	return info.Mode() & mode.PermMask
}

// ReadEvents loads an event log, failing the test on malformed records.
func ReadEvents(t *testing.T, path string) []eventlog.Event {
	t.Helper()

	events, err := eventlog.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read event log %s: %v", path, err)
	}
	return events
}

// SkipIfRoot skips tests that rely on permission checks.
func SkipIfRoot(t *testing.T) {
	t.Helper()

	if os.Geteuid() == 0 {
		t.Skip("running as root, permission checks do not apply")
	}
}
