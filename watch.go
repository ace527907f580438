package quire

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/n2code/quire/internal/output"
)

func (q *quire) Watch(ctx context.Context, onBuild func(*BuildResult, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return newCommandError("starting file watcher failed", err)
	}
	defer watcher.Close()

	if err := q.watchTree(watcher, q.config.Project.Fragments.Root); err != nil {
		return newCommandError("watching fragments failed", err)
	}
	if err := watcher.Add(filepath.Dir(q.config.Project.Manifest)); err != nil {
		return newCommandError("watching manifest failed", err)
	}

	build := func() {
		result, err := q.Build(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			q.logger.Warn("build failed", zap.Error(err))
		}
		if onBuild != nil {
			onBuild(result, err)
		}
	}

	q.Print(output.Normal, "Watching %s for changes\n", q.displayablePath(q.config.Project.Fragments.Root, true, false))
	build()

	quietPeriod := time.NewTimer(q.debounce)
	stopTimer(quietPeriod)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, open := <-watcher.Events:
			if !open {
				return nil
			}
			if !q.triggersRebuild(event) {
				continue
			}
			q.logger.Debug("change detected", zap.String("path", event.Name), zap.Stringer("op", event.Op))
			if event.Has(fsnotify.Create) {
				if err := q.watchTree(watcher, event.Name); err != nil && !errors.Is(err, fs.ErrNotExist) {
					q.logger.Warn("watching new directory failed", zap.String("path", event.Name), zap.Error(err))
				}
			}
			stopTimer(quietPeriod)
			quietPeriod.Reset(q.debounce)
		case err, open := <-watcher.Errors:
			if !open {
				return nil
			}
			q.logger.Warn("file watcher error", zap.Error(err))
		case <-quietPeriod.C:
			build()
		}
	}
}

// watchTree adds root and all directories below it, dot directories excepted. Files are ignored.
func (q *quire) watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func (q *quire) triggersRebuild(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	path := filepath.Clean(event.Name)
	if strings.HasSuffix(path, workInProgressFileSuffix) {
		return false
	}
	project := q.config.Project
	if path == project.Manifest {
		return true
	}
	switch path {
	case project.Output, project.Record, filepath.Dir(project.Output), filepath.Dir(project.Record):
		return false
	}
	rel, inside := q.config.RelToFragments(path)
	if !inside {
		return false
	}
	for _, element := range strings.Split(rel, "/") {
		if strings.HasPrefix(element, ".") {
			return false
		}
	}
	return true
}

func stopTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
