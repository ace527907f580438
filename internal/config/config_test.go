package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n2code/quire/internal/assembly"
)

func writeConfig(t *testing.T, dir string, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0644))
	return path
}

func TestInitWritesLoadableDefaults(t *testing.T) {
	dir := t.TempDir()
	c, err := Init(dir, "Sample.txt")
	require.NoError(t, err)

	assert.Equal(t, dir, c.Dir)
	assert.Equal(t, filepath.Join(dir, "Sample.txt"), c.Project.Manifest)
	assert.Equal(t, dir, c.Project.Fragments.Root)
	assert.Equal(t, []string{"md"}, c.Project.Fragments.Extensions)
	assert.Equal(t, filepath.Join(dir, "build", "manuscript.md"), c.Project.Output)
	assert.Equal(t, filepath.Join(dir, ".quire", "build.record"), c.Project.Record)
	assert.Equal(t, "\n\n", c.Project.Assembly.Separator)
	assert.Equal(t, "{%s}", c.Project.Assembly.SectionMarker)
	assert.Equal(t, assembly.WarnDuplicates, c.DuplicatePolicy())
	assert.Equal(t, 4, c.Project.Assembly.ParallelReads)
	assert.Equal(t, 2, c.Project.Assembly.ReadRetries)

	_, err = Init(dir, "Other.txt")
	assert.ErrorContains(t, err, "exists already")
}

func TestInitQuotesManifestName(t *testing.T) {
	dir := t.TempDir()
	c, err := Init(dir, "my book: draft #2.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "my book: draft #2.txt"), c.Project.Manifest)
}

func TestLoadKeepsDefaultsForUnsetValues(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(writeConfig(t, dir, `
manifest: Book.txt
assembly:
  section_marker: ""
  duplicates: ERROR
`))
	require.NoError(t, err)
	assert.Equal(t, "", c.Project.Assembly.SectionMarker, "explicitly empty marker disables markers")
	assert.Equal(t, "\n\n", c.Project.Assembly.Separator)
	assert.Equal(t, assembly.RejectDuplicates, c.DuplicatePolicy())
	assert.Equal(t, 1, c.Project.Version)
}

func TestLoadResolvesPathsAgainstConfigDir(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(writeConfig(t, dir, `
manifest: manuscript/Book.txt
fragments:
  root: manuscript
  extensions: [".md", " markdown "]
output: /tmp/out.md
`))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "manuscript", "Book.txt"), c.Project.Manifest)
	assert.Equal(t, filepath.Join(dir, "manuscript"), c.Project.Fragments.Root)
	assert.Equal(t, []string{"md", "markdown"}, c.Project.Fragments.Extensions)
	assert.Equal(t, "/tmp/out.md", c.Project.Output)

	assert.Equal(t, "manuscript/Book.txt", c.Rel(c.Project.Manifest))
	assert.Equal(t, "/tmp/out.md", c.Rel("/tmp/out.md"))
	rel, inside := c.RelToFragments(filepath.Join(dir, "manuscript", "a", "b.md"))
	assert.True(t, inside)
	assert.Equal(t, "a/b.md", rel)
	_, inside = c.RelToFragments(filepath.Join(dir, "build", "manuscript.md"))
	assert.False(t, inside)
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"version":         "version: 2\nmanifest: Book.txt",
		"no manifest":     "manifest: \"  \"",
		"output=manifest": "manifest: Book.txt\noutput: ./Book.txt",
		"duplicates":      "manifest: Book.txt\nassembly:\n  duplicates: ignore",
		"parallel":        "manifest: Book.txt\nassembly:\n  parallel_reads: -1",
		"retries":         "manifest: Book.txt\nassembly:\n  read_retries: -1",
		"marker":          "manifest: Book.txt\nassembly:\n  section_marker: \"---\"",
		"syntax":          "manifest: [unterminated",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, t.TempDir(), content))
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), "config: "), err.Error())
		})
	}
}

func TestLocateWalksUpwards(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "manifest: Book.txt")
	nested := filepath.Join(root, "markdown", "0.Functions")
	require.NoError(t, os.MkdirAll(nested, 0755))

	c, err := Locate(nested)
	require.NoError(t, err)
	assert.Equal(t, root, c.Dir)
}

func TestLocateWithoutProjectFile(t *testing.T) {
	_, err := Locate(t.TempDir())
	assert.ErrorIs(t, err, ErrNotFound)
}
