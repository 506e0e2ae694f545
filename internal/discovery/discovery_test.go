package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/statik/internal/store"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte("// content\n"), 0o644))
}

func relPaths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelativePath
	}
	return out
}

func TestDiscover_FindsSupportedLanguagesSkipsUnknownExtensions(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "src/a.ts")
	writeFile(t, root, "src/b.py")
	writeFile(t, root, "README.md")
	writeFile(t, root, "Cargo.toml")

	files, err := Discover(root, Config{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"src/a.ts", "src/b.py"}, relPaths(files))
}

func TestDiscover_DefaultExcludesAreAlwaysApplied(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "src/a.ts")
	writeFile(t, root, "node_modules/pkg/index.js")
	writeFile(t, root, "dist/bundle.js")
	writeFile(t, root, "build/out.js")

	files, err := Discover(root, Config{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"src/a.ts"}, relPaths(files))
}

func TestDiscover_UserExcludeGlobSuppressesMatches(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "src/a.ts")
	writeFile(t, root, "src/generated/b.ts")

	files, err := Discover(root, Config{Exclude: []string{"src/generated/**"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"src/a.ts"}, relPaths(files))
}

func TestDiscover_IncludeGlobRestrictsToMatches(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "src/a.ts")
	writeFile(t, root, "tests/b.ts")

	files, err := Discover(root, Config{Include: []string{"src/**"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"src/a.ts"}, relPaths(files))
}

func TestDiscover_LanguageFilterRestrictsResults(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "src/a.ts")
	writeFile(t, root, "src/b.py")

	files, err := Discover(root, Config{Languages: map[string]bool{store.LangPython: true}})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "src/b.py", files[0].RelativePath)
	assert.Equal(t, store.LangPython, files[0].Language)
}

func TestDiscover_ExcludeWinsOverInclude(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "src/a.ts")
	writeFile(t, root, "src/b.ts")

	files, err := Discover(root, Config{
		Include: []string{"src/**"},
		Exclude: []string{"src/b.ts"},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"src/a.ts"}, relPaths(files))
}

func TestDiscover_OutputSortedByRelativePath(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "src/z.ts")
	writeFile(t, root, "src/a.ts")
	writeFile(t, root, "src/m.ts")

	files, err := Discover(root, Config{})
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, []string{"src/a.ts", "src/m.ts", "src/z.ts"}, relPaths(files))
}

func TestDiscover_AbsolutePathJoinsRootAndRelative(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "src/a.ts")

	files, err := Discover(root, Config{})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(root, "src", "a.ts"), files[0].AbsolutePath)
}

func TestDiscover_SkipsSymlinks(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "src/real.ts")
	err := os.Symlink(filepath.Join(root, "src", "real.ts"), filepath.Join(root, "src", "link.ts"))
	if err != nil {
		t.Skip("symlinks unsupported in this environment")
	}

	files, err := Discover(root, Config{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"src/real.ts"}, relPaths(files))
}

func TestDiscover_EmptyDirectoryYieldsNoFiles(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	files, err := Discover(root, Config{})
	require.NoError(t, err)
	assert.Empty(t, files)
}
