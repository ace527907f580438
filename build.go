package quire

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/n2code/quire/internal/assembly"
	"github.com/n2code/quire/internal/output"
	"github.com/n2code/quire/internal/record"
)

const workInProgressFileSuffix = ".wip"

// BuildResult summarizes a successful build.
type BuildResult struct {
	Output      string //absolute, system-native path of the written manuscript
	Fingerprint string
	Size        int
	Fragments   int
	Skipped     bool //output was already up to date and left untouched
	Warnings    []*DuplicatePathError
}

func (q *quire) Assemble(ctx context.Context) (*assembly.Document, error) {
	m, err := q.Manifest()
	if err != nil {
		return nil, err
	}
	q.store.Forget()
	doc, err := q.assembler.Assemble(ctx, m, q.store)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (q *quire) Build(ctx context.Context) (result *BuildResult, err error) {
	m, err := q.Manifest()
	if err != nil {
		return nil, err
	}
	q.store.Forget()
	doc, err := q.assembler.Assemble(ctx, m, q.store)
	if err != nil {
		return nil, newCommandError("assembly failed, nothing written", err)
	}

	project := q.config.Project
	previous, err := q.loadRecord()
	if err != nil {
		return nil, err
	}

	content := doc.Bytes()
	result = &BuildResult{
		Output:      project.Output,
		Fingerprint: doc.Fingerprint(),
		Size:        len(content),
		Fragments:   len(doc.Parts()),
		Warnings:    doc.Warnings(),
	}
	for _, warning := range result.Warnings {
		q.Print(output.Error, "%swarning: %s%s\n", output.Yellow, warning, output.Reset)
	}

	rec := record.New(m.Fingerprint(), q.config.Rel(project.Output), result.Fingerprint, time.Now())
	for _, part := range doc.Parts() {
		rec.Include(part.Path, part.Checksum)
	}

	if !q.thorough && previous != nil && previous.OutputFingerprint == result.Fingerprint && fileExists(project.Output) {
		result.Skipped = true
		if !previous.Matches(rec) {
			//same bytes from different inputs, e.g. a moved fragment
			if err := q.saveRecord(rec); err != nil {
				return nil, err
			}
			q.logger.Debug("build record refreshed", zap.String("record", project.Record))
		}
		q.logger.Debug("output up to date", zap.String("output", project.Output), zap.String("fingerprint", result.Fingerprint))
		q.Print(output.Normal, "Manuscript %s is up to date (%d %s)\n",
			q.displayablePath(project.Output, true, false), result.Fragments, output.Plural(result.Fragments, "fragment", "fragments"))
		return result, nil
	}

	if err := writeAtomically(project.Output, content); err != nil {
		return nil, newCommandError("writing manuscript failed", err)
	}
	if err := q.saveRecord(rec); err != nil {
		return nil, err
	}

	q.logger.Info("manuscript built",
		zap.String("output", project.Output),
		zap.String("fingerprint", result.Fingerprint),
		zap.Int("fragments", result.Fragments))
	q.Print(output.Normal, "Built %s from %d %s (%s)\n",
		q.displayablePath(project.Output, true, false),
		result.Fragments, output.Plural(result.Fragments, "fragment", "fragments"),
		output.Filesize(int64(result.Size)))
	return result, nil
}

func (q *quire) saveRecord(rec *record.Record) error {
	if err := os.MkdirAll(filepath.Dir(q.config.Project.Record), 0755); err != nil {
		return newCommandError("saving build record failed", err)
	}
	if err := record.Save(q.config.Project.Record, rec); err != nil {
		return newCommandError("saving build record failed", err)
	}
	return nil
}

// loadRecord returns nil if nothing was built yet.
func (q *quire) loadRecord() (*record.Record, error) {
	rec, err := record.Load(q.config.Project.Record)
	if errors.Is(err, record.ErrNoRecord) {
		return nil, nil
	}
	if err != nil {
		return nil, newCommandError(fmt.Sprintf("build record unusable, delete %s to start over", q.displayablePath(q.config.Project.Record, true, false)), err)
	}
	return rec, nil
}

func writeAtomically(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tempPath := path + workInProgressFileSuffix
	if err := os.WriteFile(tempPath, content, 0644); err != nil {
		os.Remove(tempPath)
		return err
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("replacing %s with temporary working copy %s failed: %w", path, tempPath, err)
	}
	return nil
}

func fileExists(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && stat.Mode().IsRegular()
}
