package coverage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for FileDiscovery:
// - Walks directories and returns sorted .py files only
// - Always skips .tox, .venv, venv, .git and .hg
// - Exclude globs match relative paths, including directory globs
// - Plain exclude paths drop a file or a whole directory
// - An explicit .py file is returned as is, de-duplicated against directory roots
// - An explicit non-Python file fails with ErrInvalidFile
// - No Python files fails with ErrNoFiles
// - Invalid glob patterns fail at construction
// - CommonBase finds the deepest shared directory

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("\"\"\"doc\"\"\"\n"), 0o644))
	}
}

func relAll(t *testing.T, root string, files []string) []string {
	t.Helper()
	rel := make([]string, len(files))
	for i, f := range files {
		r, err := filepath.Rel(root, f)
		require.NoError(t, err)
		rel[i] = filepath.ToSlash(r)
	}
	return rel
}

func TestDiscoverFiles_PythonOnlySorted(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root,
		"pkg/b.py",
		"pkg/a.py",
		"pkg/__init__.py",
		"README.md",
		"setup.cfg",
		"top.py",
		".venv/lib/site.py",
		"venv/lib/site.py",
		".tox/py311/x.py",
		".git/hooks/h.py",
		".hg/store/s.py",
	)

	fd, err := NewFileDiscovery([]string{root}, nil)
	require.NoError(t, err)

	files, err := fd.DiscoverFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/__init__.py", "pkg/a.py", "pkg/b.py", "top.py"}, relAll(t, root, files))
}

func TestDiscoverFiles_ExcludeGlobs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root,
		"src/app.py",
		"src/test_app.py",
		"tests/test_b.py",
		"build/gen.py",
		"docs/conf.py",
	)

	fd, err := NewFileDiscovery([]string{root}, []string{"**/test_*.py", "build/**", "docs/*"})
	require.NoError(t, err)

	files, err := fd.DiscoverFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"src/app.py"}, relAll(t, root, files))
}

func TestDiscoverFiles_ExcludePaths(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, "keep.py", "drop.py", "vendor/lib.py")

	fd, err := NewFileDiscovery([]string{root}, []string{
		filepath.Join(root, "drop.py"),
		filepath.Join(root, "vendor"),
	})
	require.NoError(t, err)

	files, err := fd.DiscoverFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.py"}, relAll(t, root, files))
}

func TestDiscoverFiles_ExplicitFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, "a.py", "sub/b.py")

	fd, err := NewFileDiscovery([]string{filepath.Join(root, "a.py"), root}, nil)
	require.NoError(t, err)

	files, err := fd.DiscoverFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "sub/b.py"}, relAll(t, root, files))
}

func TestDiscoverFiles_InvalidFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, "notes.txt")

	fd, err := NewFileDiscovery([]string{filepath.Join(root, "notes.txt")}, nil)
	require.NoError(t, err)

	_, err = fd.DiscoverFiles()
	assert.ErrorIs(t, err, ErrInvalidFile)
}

func TestDiscoverFiles_NoFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, "README.md", ".venv/x.py")

	fd, err := NewFileDiscovery([]string{root}, nil)
	require.NoError(t, err)

	_, err = fd.DiscoverFiles()
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestDiscoverFiles_MissingPath(t *testing.T) {
	t.Parallel()

	fd, err := NewFileDiscovery([]string{filepath.Join(t.TempDir(), "missing")}, nil)
	require.NoError(t, err)

	_, err = fd.DiscoverFiles()
	assert.True(t, os.IsNotExist(err))
}

func TestNewFileDiscovery_InvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := NewFileDiscovery([]string{t.TempDir()}, []string{"[unclosed*"})
	assert.Error(t, err)
}

func TestCommonBase(t *testing.T) {
	t.Parallel()

	sep := string(filepath.Separator)
	root := sep + filepath.Join("repo", "src")

	assert.Equal(t, "", CommonBase(nil))
	assert.Equal(t, root, CommonBase([]string{filepath.Join(root, "a.py")}))
	assert.Equal(t, root, CommonBase([]string{
		filepath.Join(root, "a.py"),
		filepath.Join(root, "pkg", "b.py"),
	}))
	assert.Equal(t, sep+"repo", CommonBase([]string{
		filepath.Join(root, "a.py"),
		sep + filepath.Join("repo", "tests", "t.py"),
	}))
	assert.Equal(t, root, CommonBase([]string{
		filepath.Join(root, "pkg", "deep", "c.py"),
		filepath.Join(root, "other", "d.py"),
	}))
}
