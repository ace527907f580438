package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/n2code/quire/internal/logging"
)

type invocation struct {
	stdout string
	stderr string
	code   int
	level  logging.Level
}

func run(ctx context.Context, args ...string) invocation {
	var stdout, stderr bytes.Buffer
	var result invocation
	rq := newRequest(&stdout, &stderr)
	rq.newLogger = func(level logging.Level) (*zap.Logger, error) {
		result.level = level
		return zap.NewNop(), nil
	}
	result.code = rq.execute(ctx, args)
	result.stdout, result.stderr = stdout.String(), stderr.String()
	return result
}

func writeFile(t *testing.T, dir string, path string, content string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(path))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	initialized := run(context.Background(), "-C", dir, "init")
	require.Equal(t, 0, initialized.code, initialized.stderr)
	writeFile(t, dir, "Book.txt", "frontmatter:\n  front/preface.md\nmainmatter:\n  ch1.md\n    # ch1/draft.md\n    ch1/scene.md\n")
	writeFile(t, dir, "front/preface.md", "Preface")
	writeFile(t, dir, "ch1.md", "Chapter 1")
	writeFile(t, dir, "ch1/scene.md", "Scene")
	return dir
}

func TestBuildAction(t *testing.T) {
	dir := newProject(t)

	built := run(context.Background(), "-C", dir, "build")
	require.Equal(t, 0, built.code, built.stderr)
	assert.Contains(t, built.stdout, "Built")
	assert.Equal(t, logging.Default, built.level)

	output, err := os.ReadFile(filepath.Join(dir, "build", "manuscript.md"))
	require.NoError(t, err)
	assert.Equal(t, "{frontmatter}\n\nPreface\n\n{mainmatter}\n\nChapter 1\n\nScene", string(output))

	quiet := run(context.Background(), "-C", dir, "-q", "build")
	assert.Equal(t, 0, quiet.code)
	assert.Empty(t, quiet.stdout)
	assert.Equal(t, logging.Quiet, quiet.level)
}

func TestBuildActionFailsOnMissingFragment(t *testing.T) {
	dir := newProject(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "ch1", "scene.md")))

	failed := run(context.Background(), "-C", dir, "build")
	assert.Equal(t, 1, failed.code)
	assert.Contains(t, failed.stderr, "fragment not found: ch1/scene.md")
	assert.NoFileExists(t, filepath.Join(dir, "build", "manuscript.md"))
}

func TestQueryActions(t *testing.T) {
	dir := newProject(t)

	sequence := run(context.Background(), "-C", filepath.Join(dir, "ch1"), "-q", "sequence")
	require.Equal(t, 0, sequence.code, sequence.stderr)
	assert.Equal(t, "front/preface.md\nch1.md\nch1/scene.md\n", sequence.stdout)

	tree := run(context.Background(), "-C", dir, "tree", "--enabled")
	require.Equal(t, 0, tree.code, tree.stderr)
	assert.Contains(t, tree.stdout, "└── mainmatter:\n    └── [+] ch1.md\n        └── [+] ch1/scene.md\n")
	assert.NotContains(t, tree.stdout, "draft")

	status := run(context.Background(), "-C", dir, "-v", "status")
	require.Equal(t, 0, status.code, status.stderr)
	assert.Equal(t, logging.Verbose, status.level)
	assert.Contains(t, status.stdout, "Not built yet.")
	assert.Contains(t, status.stdout, "[#] ch1/draft.md (line 5)")
}

func TestInitActionWithDirectoryAndManifestName(t *testing.T) {
	base := t.TempDir()
	result := run(context.Background(), "-C", base, "init", "novel", "--manifest", "Sample.txt")
	require.Equal(t, 0, result.code, result.stderr)
	assert.FileExists(t, filepath.Join(base, "novel", "quire.yaml"))
	assert.FileExists(t, filepath.Join(base, "novel", "Sample.txt"))

	again := run(context.Background(), "-C", base, "init", "novel")
	assert.Equal(t, 1, again.code)
	assert.Contains(t, again.stderr, "exists already")
}

func TestActionOutsideProject(t *testing.T) {
	result := run(context.Background(), "-C", t.TempDir(), "status")
	assert.Equal(t, 1, result.code)
	assert.Contains(t, result.stderr, "project load error")
}

func TestUsageErrors(t *testing.T) {
	for name, args := range map[string][]string{
		"no action":         {},
		"unknown action":    {"publish"},
		"exclusive modes":   {"-v", "-q", "build"},
		"unknown flag":      {"build", "--nope"},
		"surplus arguments": {"build", "Book.txt"},
		"too many dirs":     {"init", "a", "b"},
	} {
		t.Run(name, func(t *testing.T) {
			result := run(context.Background(), args...)
			assert.Equal(t, 2, result.code)
			assert.Contains(t, result.stderr, "Usage help: quire --help")
		})
	}
}

func TestWatchActionStopsWhenCancelled(t *testing.T) {
	dir := newProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := run(ctx, "-C", dir, "watch")
	assert.Equal(t, 0, result.code, result.stderr)
}
