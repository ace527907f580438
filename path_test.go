//go:build !windows

package quire

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n2code/quire/internal/output"
)

func TestPleasantPath(t *testing.T) {
	type args struct {
		absolute     string
		root         string
		wd           string
		collapseRoot bool
		omitDotSlash bool
	}
	tests := []struct {
		name string
		args args
		want string
	}{
		{name: "NextToManifestInRoot_1", args: args{absolute: "/my/book/Book.txt", root: "/my/book", wd: "/my/book", collapseRoot: true, omitDotSlash: true}, want: "Book.txt"},
		{name: "NextToManifestInRoot_2", args: args{absolute: "/my/book/Book.txt", root: "/my/book", wd: "/my/book", collapseRoot: false, omitDotSlash: false}, want: "./Book.txt"},
		{name: "OutputFromRoot_1", args: args{absolute: "/my/book/build/manuscript.md", root: "/my/book", wd: "/my/book", collapseRoot: true, omitDotSlash: true}, want: "build/manuscript.md"},
		{name: "OutputFromRoot_2", args: args{absolute: "/my/book/build/manuscript.md", root: "/my/book", wd: "/my/book", collapseRoot: true, omitDotSlash: false}, want: "./build/manuscript.md"},
		{name: "ManifestFromFragmentDir_1", args: args{absolute: "/my/book/Book.txt", root: "/my/book", wd: "/my/book/markdown", collapseRoot: true, omitDotSlash: false}, want: "../Book.txt"},
		{name: "ManifestFromFragmentDir_2", args: args{absolute: "/my/book/Book.txt", root: "/my/book", wd: "/my/book/markdown/0.Functions", collapseRoot: false, omitDotSlash: true}, want: "../../Book.txt"},
		{name: "NextToFragmentInSub_1", args: args{absolute: "/my/book/markdown/a.md", root: "/my/book", wd: "/my/book/markdown", collapseRoot: true, omitDotSlash: true}, want: "a.md"},
		{name: "NextToFragmentInSub_2", args: args{absolute: "/my/book/markdown/a.md", root: "/my/book", wd: "/my/book/markdown", collapseRoot: true, omitDotSlash: false}, want: "./a.md"},
		{name: "OutsideProject_1", args: args{absolute: "/my/book/build/manuscript.md", root: "/my/book", wd: "/", collapseRoot: true, omitDotSlash: true}, want: "quire://build/manuscript.md"},
		{name: "OutsideProject_2", args: args{absolute: "/my/book/build/manuscript.md", root: "/my/book", wd: "/", collapseRoot: false, omitDotSlash: false}, want: "/my/book/build/manuscript.md"},
		{name: "BarelyOutsideProject_1", args: args{absolute: "/my/book/Book.txt", root: "/my/book", wd: "/my", collapseRoot: true, omitDotSlash: false}, want: "quire://Book.txt"},
		{name: "BarelyOutsideProject_2", args: args{absolute: "/my/book/Book.txt", root: "/my/book", wd: "/my", collapseRoot: false, omitDotSlash: true}, want: "/my/book/Book.txt"},
		{name: "TargetOutsideProject", args: args{absolute: "/tmp/out.md", root: "/my/book", wd: "/my", collapseRoot: true, omitDotSlash: false}, want: "/tmp/out.md"},
		{name: "TargetOutsideProjectFromInside", args: args{absolute: "/my/out.md", root: "/my/book", wd: "/my/book", collapseRoot: true, omitDotSlash: false}, want: "../out.md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pleasantPath(tt.args.absolute, tt.args.root, tt.args.wd, tt.args.collapseRoot, tt.args.omitDotSlash); got != tt.want {
				t.Errorf("pleasantPath() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDisplayablePathAboveProjectRoot(t *testing.T) {
	p := newTestProject(t, "frontmatter:\n  a.md\n", map[string]string{"a.md": "A"})
	previousWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(filepath.Dir(p.root)))
	t.Cleanup(func() { _ = os.Chdir(previousWd) })

	manuscript := filepath.Join(p.root, "build", "manuscript.md")
	assert.Equal(t, "quire://build/manuscript.md", p.handle.displayablePath(manuscript, true, false))
	assert.Equal(t, manuscript, p.handle.displayablePath(manuscript, false, false))
	assert.Equal(t, "/elsewhere/out.md", p.handle.displayablePath("/elsewhere/out.md", true, false))

	fancy := p.open(t, CreateConfig{FancyTerminal: true})
	assert.Equal(t, output.TerminalFormatAsDim("quire://")+"build/manuscript.md", fancy.displayablePath(manuscript, true, false))

	_, err = p.handle.Build(context.Background())
	require.NoError(t, err)
	assert.Contains(t, p.out.String(), "Built quire://build/manuscript.md from 1 fragment")
}
