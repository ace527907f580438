package fragment

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func TestStoresKeepLegacyAndCurrentFragmentsApart(t *testing.T) {
	files := map[string]string{
		"1.ComposingData/recipes/flip.md": "current flip",
		"ComposingData/recipes/flip.md":   "legacy flip",
	}
	stores := map[string]Store{
		"memory": NewMemoryStore(files),
		"dir":    NewDirStore(writeTree(t, files)),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			current, err := store.Resolve("1.ComposingData/recipes/flip.md")
			require.NoError(t, err)
			assert.Equal(t, "current flip", string(current.Content))

			legacy, err := store.Resolve("ComposingData/recipes/flip.md")
			require.NoError(t, err)
			assert.Equal(t, "legacy flip", string(legacy.Content))

			_, err = store.Resolve("recipes/flip.md")
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = store.Resolve("flip.md")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.NotEqual(t, current.Checksum(), legacy.Checksum())
			assert.Equal(t, current.Path.Base(), legacy.Path.Base())
		})
	}
}

func TestResolveIsCaseSensitive(t *testing.T) {
	store := NewDirStore(writeTree(t, map[string]string{"recipes/flip.md": "x"}))
	_, err := store.Resolve("recipes/Flip.md")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Resolve("Recipes/flip.md")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirStoreRejectsPathsOutsideRoot(t *testing.T) {
	base := writeTree(t, map[string]string{"outside.md": "secret", "book/inside.md": "ok"})
	store := NewDirStore(filepath.Join(base, "book"))

	for _, path := range []string{"../outside.md", "/outside.md", "./inside.md", "", ".", "sub/"} {
		_, err := store.Resolve(path)
		var lookupErr *LookupError
		require.ErrorAs(t, err, &lookupErr, "path %q", path)
		assert.ErrorIs(t, err, ErrNotFound, "path %q", path)
		assert.Equal(t, path, lookupErr.Path)
	}

	fragment, err := store.Resolve("inside.md")
	require.NoError(t, err)
	assert.Equal(t, SemanticPath("inside.md"), fragment.Path)
}

func TestDirStoreDirectoryIsNotAFragment(t *testing.T) {
	store := NewDirStore(writeTree(t, map[string]string{"chapter/title.md": "T"}))
	_, err := store.Resolve("chapter")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirStoreFindsFilesCreatedAfterForget(t *testing.T) {
	root := writeTree(t, map[string]string{"a.md": "A"})
	store := NewDirStore(root)
	_, err := store.Resolve("a.md")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "b.md"), []byte("B"), 0o644))
	_, err = store.Resolve("b.md")
	assert.ErrorIs(t, err, ErrNotFound, "listing is cached until forgotten")

	store.Forget()
	fragment, err := store.Resolve("b.md")
	require.NoError(t, err)
	assert.Equal(t, "B", string(fragment.Content))
}

func TestDirStorePaths(t *testing.T) {
	root := writeTree(t, map[string]string{
		"Sample.txt":              "manifest",
		"markdown/a.md":           "A",
		"markdown/b/c.md":         "C",
		"markdown/notes.txt":      "N",
		".quire/cache.md":         "hidden",
		"markdown/.drafts/d.md":   "hidden",
		"build/manuscript.md":     "output",
		"ComposingData/legacy.md": "L",
	})

	store := NewDirStore(root, WithExtensions("md"), WithExcluded("build/manuscript.md"))
	paths, err := store.Paths()
	require.NoError(t, err)
	assert.Equal(t, []string{"ComposingData/legacy.md", "markdown/a.md", "markdown/b/c.md"}, paths)

	unfiltered, err := NewDirStore(root).Paths()
	require.NoError(t, err)
	assert.Contains(t, unfiltered, "Sample.txt")
	assert.Contains(t, unfiltered, "markdown/notes.txt")
	assert.NotContains(t, unfiltered, ".quire/cache.md")
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(map[string]string{"b.md": "B", "a.md": "A"})
	store.Put("c.md", []byte("C"))

	paths, err := store.Paths()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "b.md", "c.md"}, paths)

	fragment, err := store.Resolve("c.md")
	require.NoError(t, err)
	fragment.Content[0] = 'X'
	again, err := store.Resolve("c.md")
	require.NoError(t, err)
	assert.Equal(t, "C", string(again.Content), "resolved content must not alias the store")

	_, err = store.Resolve("d.md")
	var lookupErr *LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Equal(t, "d.md", lookupErr.Path)
}

func TestResolverFunc(t *testing.T) {
	resolver := ResolverFunc(func(path string) (Fragment, error) {
		if path == "known.md" {
			return Fragment{Path: SemanticPath(path), Content: []byte("K")}, nil
		}
		return Fragment{}, notFound(path, "")
	})
	fragment, err := resolver.Resolve("known.md")
	require.NoError(t, err)
	assert.Equal(t, "K", string(fragment.Content))
	_, err = resolver.Resolve("other.md")
	assert.ErrorIs(t, err, ErrNotFound)
}

// flakyFS fails the first reads of every file with a transient error.
type flakyFS struct {
	fstest.MapFS
	failures int32
	failed   atomic.Int32
}

var errTransient = errors.New("device busy")

func (f *flakyFS) ReadFile(name string) ([]byte, error) {
	if f.failed.Add(1) <= f.failures {
		return nil, &fs.PathError{Op: "read", Path: name, Err: errTransient}
	}
	return f.MapFS.ReadFile(name)
}

func TestDirStoreRetriesTransientReadFailures(t *testing.T) {
	files := fstest.MapFS{"a.md": &fstest.MapFile{Data: []byte("A")}}

	recovering := &flakyFS{MapFS: files, failures: 2}
	store := NewDirStore("mem", withFS(recovering), WithRetries(2, time.Millisecond))
	fragment, err := store.Resolve("a.md")
	require.NoError(t, err)
	assert.Equal(t, "A", string(fragment.Content))
	assert.EqualValues(t, 3, recovering.failed.Load())

	persistent := &flakyFS{MapFS: files, failures: 10}
	store = NewDirStore("mem", withFS(persistent), WithRetries(1, time.Millisecond))
	_, err = store.Resolve("a.md")
	assert.ErrorIs(t, err, errTransient)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.EqualValues(t, 2, persistent.failed.Load())
}
