// Package discovery implements the Discovery component (spec §4.A):
// walking the project root, filtering by include/exclude globs and
// language, and yielding candidate files with stable relative paths.
package discovery

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jward/statik/internal/lang"
	"github.com/jward/statik/internal/pattern"
)

// File is one discovered candidate (spec §4.A: "(absolute_path,
// relative_path, language_tag) triples").
type File struct {
	AbsolutePath string
	RelativePath string // POSIX-separated, rooted at the project root
	Language     string
}

// Config controls which files Discovery yields.
type Config struct {
	Include   []string        // empty ⇒ match all
	Exclude   []string        // exclusions always win
	Languages map[string]bool // empty ⇒ no language filter
}

// defaultExcludes are always applied in addition to Config.Exclude
// (spec §4.A).
var defaultExcludes = []string{
	"node_modules/**",
	"target/**",
	"dist/**",
	"build/**",
	".git/**",
	".statik/**",
	"**/package-lock.json",
	"**/yarn.lock",
	"**/Cargo.lock",
	"**/poetry.lock",
}

// skipDirNames are pruned outright while walking, mirroring canopy's
// Engine.IndexDirectory skipDirs map — an optimization on top of, not a
// replacement for, the exclude-glob evaluation below.
var skipDirNames = map[string]bool{
	"node_modules": true, "target": true, "dist": true, "build": true,
	".git": true, ".statik": true, "__pycache__": true, "vendor": true,
}

// Discover walks root and yields every file matching Config, using
// git ls-files when root is inside a git work tree (respecting
// .gitignore) and a plain filesystem walk otherwise — grounded on
// canopy's Engine.IndexDirectory.
func Discover(root string, cfg Config) ([]File, error) {
	includeMatcher, err := pattern.Compile(cfg.Include)
	if err != nil {
		return nil, err
	}
	excludeMatcher, err := pattern.Compile(append(append([]string{}, cfg.Exclude...), defaultExcludes...))
	if err != nil {
		return nil, err
	}

	relPaths, err := listCandidatePaths(root)
	if err != nil {
		return nil, err
	}

	var out []File
	for _, rel := range relPaths {
		ext := filepath.Ext(rel)
		language, ok := lang.LanguageForExtension(ext)
		if !ok {
			continue
		}
		if len(cfg.Languages) > 0 && !cfg.Languages[language] {
			continue
		}
		if !includeMatcher.Empty() && !includeMatcher.Match(rel) {
			continue
		}
		if excludeMatcher.Match(rel) {
			continue
		}
		out = append(out, File{
			AbsolutePath: filepath.Join(root, filepath.FromSlash(rel)),
			RelativePath: rel,
			Language:     language,
		})
	}

	// Deterministic output (spec §4.D: "output counts depend only on the
	// final file set and contents, not ordering").
	sort.Slice(out, func(i, j int) bool { return out[i].RelativePath < out[j].RelativePath })
	return out, nil
}

// listCandidatePaths returns every regular, non-symlinked file under root
// as a POSIX-relative path, preferring `git ls-files` (gitignore-aware)
// and falling back to filepath.WalkDir.
func listCandidatePaths(root string) ([]string, error) {
	if paths, ok := gitLsFiles(root); ok {
		return paths, nil
	}
	return walkFiles(root)
}

func gitLsFiles(root string) ([]string, bool) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, false
	}
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	var paths []string
	for _, l := range lines {
		if l == "" {
			continue
		}
		// Symlinks are skipped here as well as in walkFiles.
		if fi, err := os.Lstat(filepath.Join(root, l)); err == nil && fi.Mode()&os.ModeSymlink != 0 {
			continue
		}
		paths = append(paths, filepath.ToSlash(l))
	}
	return paths, true
}

func walkFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && skipDirNames[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return nil // symlinks are not followed (spec §4.A)
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
