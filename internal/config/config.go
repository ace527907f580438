// Package config locates, reads and creates the quire.yaml project file.
// Every relative path inside it is resolved against the directory holding the file,
// that directory is the project root.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/n2code/quire/internal/assembly"
)

// FileName is the name of the project file searched for by Locate.
const FileName = "quire.yaml"

const (
	defaultManifest      = "Book.txt"
	defaultOutput        = "build/manuscript.md"
	defaultRecord        = ".quire/build.record"
	defaultParallelReads = 4
	defaultReadRetries   = 2
)

// ErrNotFound signals that no project file exists in the directory or any of its parents.
var ErrNotFound = errors.New("no " + FileName + " found")

const defaultProjectConfigYAML = `# quire project configuration
version: 1

# Manifest listing the fragments of the manuscript.
manifest: %s

fragments:
  # Directory that manifest paths are relative to.
  root: .
  # Only files with these extensions are considered when looking for orphans.
  extensions: [md]

# Assembled manuscript and the record of the last build.
output: %s
record: %s

assembly:
  separator: "\n\n"
  # Line opening each section, %%s is the section name. Empty disables markers.
  section_marker: "{%%s}"
  # What to do if a fragment is included more than once: allow, warn or error
  duplicates: warn
  parallel_reads: %d
  read_retries: %d
`

type FragmentsConfig struct {
	Root       string   `yaml:"root"`
	Extensions []string `yaml:"extensions,omitempty"`
}

type AssemblyConfig struct {
	Separator     string `yaml:"separator"`
	SectionMarker string `yaml:"section_marker"`
	Duplicates    string `yaml:"duplicates"`
	ParallelReads int    `yaml:"parallel_reads"`
	ReadRetries   int    `yaml:"read_retries"`
}

// ProjectConfig models quire.yaml. After loading all paths are absolute.
type ProjectConfig struct {
	Version   int             `yaml:"version"`
	Manifest  string          `yaml:"manifest"`
	Fragments FragmentsConfig `yaml:"fragments"`
	Output    string          `yaml:"output"`
	Record    string          `yaml:"record"`
	Assembly  AssemblyConfig  `yaml:"assembly"`
}

// Config is a loaded project file.
type Config struct {
	// Dir is the project root, i.e. the directory containing the project file
	Dir     string
	Project ProjectConfig
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:   1,
		Manifest:  defaultManifest,
		Fragments: FragmentsConfig{Root: ".", Extensions: []string{"md"}},
		Output:    defaultOutput,
		Record:    defaultRecord,
		Assembly: AssemblyConfig{
			Separator:     assembly.DefaultSeparator,
			SectionMarker: assembly.DefaultSectionMarker,
			Duplicates:    string(assembly.WarnDuplicates),
			ParallelReads: defaultParallelReads,
			ReadRetries:   defaultReadRetries,
		},
	}
}

// Init writes a commented default project file into dir. An existing project file is never overwritten.
func Init(dir string, manifestName string) (*Config, error) {
	if strings.TrimSpace(manifestName) == "" {
		manifestName = defaultManifest
	}
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("config: %s exists already", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: %w", err)
	}
	content := fmt.Sprintf(defaultProjectConfigYAML, quote(manifestName), defaultOutput, defaultRecord, defaultParallelReads, defaultReadRetries)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("config: write %s: %w", path, err)
	}
	return Load(path)
}

func quote(value string) string {
	encoded, err := yaml.Marshal(value)
	if err != nil {
		return value
	}
	return strings.TrimSuffix(string(encoded), "\n")
}

// Locate searches startDir and its parents for the project file and loads the first one found.
func Locate(startDir string) (*Config, error) {
	currentDir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	for {
		candidate := filepath.Join(currentDir, FileName)
		stat, statErr := os.Stat(candidate)
		if statErr == nil && stat.Mode().IsRegular() {
			return Load(candidate)
		} else if statErr != nil && !errors.Is(statErr, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: %w", statErr)
		}
		parent := filepath.Dir(currentDir)
		if parent == currentDir {
			return nil, fmt.Errorf("%w in %s or any parent directory", ErrNotFound, startDir)
		}
		currentDir = parent
	}
}

// Load reads the given project file. Unset values keep their defaults.
func Load(path string) (*Config, error) {
	absolutePath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	data, err := os.ReadFile(absolutePath)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", absolutePath, err)
	}

	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", absolutePath, err)
	}

	dir := filepath.Dir(absolutePath)
	parsed.applyDefaults()
	parsed.normalize(dir)
	if err := parsed.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", absolutePath, err)
	}
	return &Config{Dir: dir, Project: parsed}, nil
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Fragments.Root) == "" {
		pc.Fragments.Root = "."
	}
	if strings.TrimSpace(pc.Output) == "" {
		pc.Output = defaultOutput
	}
	if strings.TrimSpace(pc.Record) == "" {
		pc.Record = defaultRecord
	}
	if pc.Assembly.Duplicates == "" {
		pc.Assembly.Duplicates = string(assembly.WarnDuplicates)
	}
	if pc.Assembly.ParallelReads == 0 {
		pc.Assembly.ParallelReads = 1
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Manifest = resolvePath(base, pc.Manifest)
	pc.Fragments.Root = resolvePath(base, pc.Fragments.Root)
	pc.Output = resolvePath(base, pc.Output)
	pc.Record = resolvePath(base, pc.Record)
	for i, ext := range pc.Fragments.Extensions {
		pc.Fragments.Extensions[i] = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	}
	pc.Assembly.Duplicates = strings.ToLower(strings.TrimSpace(pc.Assembly.Duplicates))
}

func (pc *ProjectConfig) validate() error {
	if pc.Version != 1 {
		return fmt.Errorf("unsupported config version %d", pc.Version)
	}
	if pc.Manifest == "" {
		return fmt.Errorf("manifest is required")
	}
	if pc.Output == pc.Manifest {
		return fmt.Errorf("output must not overwrite the manifest")
	}
	if _, err := assembly.ParseDuplicatePolicy(pc.Assembly.Duplicates); err != nil {
		return fmt.Errorf("assembly.duplicates: %w", err)
	}
	if pc.Assembly.ParallelReads < 1 {
		return fmt.Errorf("assembly.parallel_reads must be >= 1")
	}
	if pc.Assembly.ReadRetries < 0 {
		return fmt.Errorf("assembly.read_retries must be >= 0")
	}
	if pc.Assembly.SectionMarker != "" && strings.Count(pc.Assembly.SectionMarker, "%s") != 1 {
		return fmt.Errorf("assembly.section_marker must contain %%s exactly once")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

// DuplicatePolicy returns the validated duplicate handling.
func (c *Config) DuplicatePolicy() assembly.DuplicatePolicy {
	policy, _ := assembly.ParseDuplicatePolicy(c.Project.Assembly.Duplicates)
	return policy
}

// Rel expresses an absolute path relative to the project root, slash-separated.
// Paths outside the root are returned unchanged.
func (c *Config) Rel(path string) string {
	rel, err := filepath.Rel(c.Dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

// RelToFragments expresses an absolute path relative to the fragment root, slash-separated.
// The second result is false for paths outside the fragment root.
func (c *Config) RelToFragments(path string) (string, bool) {
	rel, err := filepath.Rel(c.Project.Fragments.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
