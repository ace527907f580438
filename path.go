package quire

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/n2code/quire/internal/output"
)

const projectRootScheme = "quire:" + string(filepath.Separator) + string(filepath.Separator)

func (q *quire) displayablePath(absolutePath string, shortenProjectRoot bool, omitDotSlash bool) string {
	pleasant := pleasantPath(filepath.Clean(absolutePath), q.config.Dir, mustGetwd(), shortenProjectRoot, omitDotSlash)
	if q.printer.UsesEscapes() && strings.HasPrefix(pleasant, projectRootScheme) {
		pleasant = strings.Replace(pleasant, projectRootScheme, output.TerminalFormatAsDim(projectRootScheme), 1)
	}
	return pleasant
}

const parentPrefix = ".." + string(filepath.Separator)

// relativeInside returns the path of target relative to dir if target lies strictly below dir.
func relativeInside(target string, dir string) (string, bool) {
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, parentPrefix) {
		return "", false
	}
	return rel, true
}

// pleasantPath renders an absolute path for a user working in wd.
// Inside the project the path is relative to wd, prefixed with "./" unless omitDotSlash is set.
// Above the project root, paths inside the project are anchored as quire://... if collapseRoot is set
// and all other paths stay absolute.
func pleasantPath(absolute string, root string, wd string, collapseRoot bool, omitDotSlash bool) string {
	if _, wdAboveRoot := relativeInside(root, wd); wdAboveRoot {
		if anchored, inside := relativeInside(absolute, root); inside && collapseRoot {
			return projectRootScheme + anchored
		}
		return absolute
	}

	relative, _ := filepath.Rel(wd, absolute) //both are absolute
	if omitDotSlash || strings.HasPrefix(relative, parentPrefix) {
		return relative
	}
	return "." + string(filepath.Separator) + relative
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return wd
}

// mustAbsFilepath calls filepath.Abs and asserts that it is successful
func mustAbsFilepath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		panic(err)
	}
	return abs
}
