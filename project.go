package quire

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/n2code/quire/internal/config"
	"github.com/n2code/quire/internal/manifest"
	"github.com/n2code/quire/internal/output"
)

const manifestSkeleton = "frontmatter:\n\nmainmatter:\n\nbackmatter:\n"

func createProject(absoluteRoot string, manifestName string, createConfig CreateConfig) (*quire, error) {
	if err := os.MkdirAll(absoluteRoot, 0755); err != nil {
		return nil, err
	}
	projectConfig, err := config.Init(absoluteRoot, manifestName)
	if err != nil {
		return nil, err
	}
	q := makeQuire(projectConfig, createConfig)

	manifestPath := projectConfig.Project.Manifest
	if _, statErr := os.Stat(manifestPath); errors.Is(statErr, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(manifestPath), 0755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(manifestPath, []byte(manifestSkeleton), 0644); err != nil {
			return nil, fmt.Errorf("writing manifest (%s) failed: %w", manifestPath, err)
		}
		q.Print(output.Verbose, "Created empty manifest %s\n", q.displayablePath(manifestPath, false, false))
	} else if statErr != nil {
		return nil, statErr
	} else {
		q.Print(output.Verbose, "Using existing manifest %s\n", q.displayablePath(manifestPath, false, false))
	}

	q.Print(output.Normal, "Initialized manuscript project with root %s\n", absoluteRoot)
	return q, nil
}

func loadProject(startingDirectoryAbsolute string, createConfig CreateConfig) (*quire, error) {
	projectConfig, err := config.Locate(startingDirectoryAbsolute)
	if err != nil {
		return nil, err
	}
	q := makeQuire(projectConfig, createConfig)
	q.logger.Debug("project loaded",
		zap.String("root", projectConfig.Dir),
		zap.String("manifest", projectConfig.Project.Manifest),
		zap.String("fragments", projectConfig.Project.Fragments.Root))
	return q, nil
}

func (q *quire) Manifest() (*manifest.Manifest, error) {
	path := q.config.Project.Manifest
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, newCommandError("reading manifest failed", err)
	}
	m, err := manifest.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, newCommandError(fmt.Sprintf("manifest %s is malformed", q.displayablePath(path, true, false)), err)
	}
	return m, nil
}
