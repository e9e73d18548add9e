package coverage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrNoFiles indicates discovery found nothing to analyze.
	ErrNoFiles = errors.New("no Python files found to interrogate")

	// ErrInvalidFile indicates an explicit path that is not a Python file.
	ErrInvalidFile = errors.New("unable to interrogate non-Python file")
)

// commonExclude lists directories skipped under every root.
var commonExclude = []string{".tox", ".venv", "venv", ".git", ".hg"}

const pythonExt = ".py"

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// FileDiscovery resolves root paths and exclude rules into the list of files to analyze.
type FileDiscovery struct {
	roots          []string
	excludePaths   []string
	ignorePatterns []compiledPattern
}

// NewFileDiscovery creates a new file discovery instance.
//
// Each exclude entry is either a glob (matched against paths relative to each root, and
// against absolute paths) or a plain file/directory path excluded together with everything
// beneath it.
func NewFileDiscovery(roots, exclude []string) (*FileDiscovery, error) {
	fd := &FileDiscovery{}

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
		}
		fd.roots = append(fd.roots, abs)
		for _, dir := range commonExclude {
			fd.excludePaths = append(fd.excludePaths, filepath.Join(abs, dir))
		}
	}

	for _, pattern := range exclude {
		if !hasGlobMeta(pattern) {
			abs, err := filepath.Abs(pattern)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve exclude %s: %w", pattern, err)
			}
			fd.excludePaths = append(fd.excludePaths, abs)
			continue
		}

		g, err := glob.Compile(filepath.ToSlash(pattern), '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		fd.ignorePatterns = append(fd.ignorePatterns, compiledPattern{pattern: pattern, glob: g})
	}

	return fd, nil
}

// DiscoverFiles walks every root and returns the sorted, de-duplicated Python files.
func (fd *FileDiscovery) DiscoverFiles() ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range fd.roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if filepath.Ext(root) != pythonExt {
				return nil, fmt.Errorf("%w: %s", ErrInvalidFile, root)
			}
			add(root)
			continue
		}

		err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if fd.shouldIgnore(root, path) {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if info.IsDir() || filepath.Ext(path) != pythonExt {
				return nil
			}

			add(path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in '%s'", ErrNoFiles, strings.Join(fd.roots, ", "))
	}

	sort.Strings(files)
	return files, nil
}

// shouldIgnore checks if a path is excluded by path prefix or glob.
func (fd *FileDiscovery) shouldIgnore(root, path string) bool {
	for _, excluded := range fd.excludePaths {
		if path == excluded || strings.HasPrefix(path, excluded+string(filepath.Separator)) {
			return true
		}
	}

	relPath, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}

	// Normalize path separators for glob matching
	relPath = filepath.ToSlash(relPath)
	if relPath == "." {
		return false
	}

	if fd.matchesAnyPattern(relPath) || fd.matchesAnyPattern(filepath.ToSlash(path)) {
		return true
	}

	// Also check if this is a directory that would match with /** suffix
	// For example, "build" should match pattern "build/**"
	return fd.matchesAnyPattern(relPath + "/**")
}

// matchesAnyPattern checks if a path matches any of the exclude globs.
func (fd *FileDiscovery) matchesAnyPattern(path string) bool {
	for _, cp := range fd.ignorePatterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	// Special handling: if path is in root (no slash), also try matching against
	// patterns with **/ prefix removed. This makes "**/test_*.py" match both
	// "test_a.py" and "tests/test_b.py".
	if !strings.Contains(path, "/") {
		for _, cp := range fd.ignorePatterns {
			if strings.HasPrefix(cp.pattern, "**/") {
				simplified := strings.TrimPrefix(cp.pattern, "**/")
				if simplifiedGlob, err := glob.Compile(simplified, '/'); err == nil {
					if simplifiedGlob.Match(path) {
						return true
					}
				}
			}
		}
	}

	return false
}

// CommonBase returns the deepest directory containing every file.
func CommonBase(files []string) string {
	if len(files) == 0 {
		return ""
	}

	base := filepath.Dir(files[0])
	for _, f := range files[1:] {
		for !isWithin(base, f) {
			parent := filepath.Dir(base)
			if parent == base {
				return base
			}
			base = parent
		}
	}
	return base
}

func isWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func hasGlobMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
